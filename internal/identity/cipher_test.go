package identity

import (
	"strings"
	"testing"
)

func TestSealUnsealRoundtrip(t *testing.T) {
	c := NewCipher("test-secret")

	tokens := []string{
		"03a0c6a9-8773-4338-8c75-891961e9a8ee",
		"a",
		"",
		"тест-юнікод-значення",
	}
	for _, tok := range tokens {
		env, err := c.Seal(tok)
		if err != nil {
			t.Fatalf("Seal(%q) error: %v", tok, err)
		}
		got, err := c.Unseal(env)
		if err != nil {
			t.Fatalf("Unseal(Seal(%q)) error: %v", tok, err)
		}
		if got != tok {
			t.Errorf("Unseal(Seal(%q)) = %q", tok, got)
		}
	}
}

func TestSealIsNonDeterministic(t *testing.T) {
	c := NewCipher("test-secret")

	a, err := c.Seal("same-token")
	if err != nil {
		t.Fatalf("Seal error: %v", err)
	}
	b, err := c.Seal("same-token")
	if err != nil {
		t.Fatalf("Seal error: %v", err)
	}
	if a == b {
		t.Error("two seals of the same token produced identical envelopes")
	}
}

func TestEnvelopeFormat(t *testing.T) {
	c := NewCipher("test-secret")

	env, err := c.Seal("hello")
	if err != nil {
		t.Fatalf("Seal error: %v", err)
	}
	iv, _, ok := strings.Cut(env, ":")
	if !ok {
		t.Fatalf("envelope %q has no separator", env)
	}
	if len(iv) != ivLength*2 {
		t.Errorf("iv hex length = %d, want %d", len(iv), ivLength*2)
	}
}

func TestUnsealMalformed(t *testing.T) {
	c := NewCipher("test-secret")

	cases := []struct {
		name string
		env  string
	}{
		{"no separator", "deadbeef"},
		{"bad iv hex", "zz:00"},
		{"short iv", "dead:00"},
		{"bad data hex", "00112233445566778899aabbccddeeff:zz"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := c.Unseal(tc.env); err == nil {
				t.Errorf("Unseal(%q) succeeded, want error", tc.env)
			}
		})
	}
}

func TestKeysDiffer(t *testing.T) {
	a := NewCipher("secret-a")
	b := NewCipher("secret-b")

	env, err := a.Seal("token")
	if err != nil {
		t.Fatalf("Seal error: %v", err)
	}
	got, err := b.Unseal(env)
	if err != nil {
		t.Fatalf("Unseal error: %v", err)
	}
	if got == "token" {
		t.Error("cipher with a different secret decrypted the envelope")
	}
}
