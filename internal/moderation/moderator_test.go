package moderation

import (
	"strings"
	"testing"
)

func mustModerator(t *testing.T, terms []string) *Moderator {
	t.Helper()
	m, err := New(terms)
	if err != nil {
		t.Fatalf("New(%v): %v", terms, err)
	}
	return m
}

func TestCheckMessage_Pipeline(t *testing.T) {
	m := mustModerator(t, []string{"badword", "kill yourself"})

	tests := []struct {
		name   string
		input  string
		valid  bool
		reason string
	}{
		{"clean", "hello world", true, ""},
		{"empty", "", false, ReasonInvalidText},
		{"whitespace only", "   \t\n ", false, ReasonEmpty},
		{"too long", strings.Repeat("a", 1001), false, ReasonTooLong},
		{"max length ok", strings.Repeat("a", 1000), true, ""},
		{"html tag", "hello <b>world</b>", false, ReasonHTML},
		{"html tag spaced out", "< s c r i p t >alert(1)", false, ReasonHTML},
		{"image extension", "look at cat.png", false, ReasonImage},
		{"bbcode image", "[img]http://x/y[/img]", false, ReasonImage},
		{"mailto", "write me at mailto:bob", false, ReasonMailto},
		{"http link", "see http://example.org", false, ReasonLink},
		{"www link", "see www.example.org", false, ReasonLink},
		{"bare domain known tld", "meet me at evil.com", false, ReasonLink},
		// Word joining destroys the boundary after the TLD, so a bare
		// domain followed by more text slips past the domain scan.
		{"bare domain mid-sentence", "meet me at evil.com ok", true, ""},
		{"spaced out domain", "e v i l . c o m", false, ReasonLink},
		{"email", "ping bob@example.org please", false, ReasonEmail},
		{"profanity whole word", "you badword", false, ReasonProfanity},
		{"profanity obfuscated", "you b.a.d.w.o.r.d", false, ReasonProfanity},
		{"profanity phrase", "go kill yourself now", false, ReasonProfanity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := m.CheckMessage(tt.input)
			if res.Valid != tt.valid {
				t.Fatalf("CheckMessage(%q).Valid = %v, want %v (reason=%q)",
					tt.input, res.Valid, tt.valid, res.Reason)
			}
			if res.Reason != tt.reason {
				t.Errorf("CheckMessage(%q).Reason = %q, want %q", tt.input, res.Reason, tt.reason)
			}
		})
	}
}

func TestCheckMessage_OrderLinkBeforeProfanity(t *testing.T) {
	m := mustModerator(t, []string{"badword"})

	// A message failing both the link and profanity checks reports the
	// link reason, because the link check runs earlier.
	res := m.CheckMessage("badword at http://x.org")
	if res.Valid {
		t.Fatal("message with link and profanity should be rejected")
	}
	if res.Reason != ReasonLink {
		t.Errorf("Reason = %q, want %q", res.Reason, ReasonLink)
	}
}

func TestCheckMessage_LengthAfterStripping(t *testing.T) {
	m := mustModerator(t, []string{"badword"})

	// 1500 runes of which a third are spaces: 1000 after stripping.
	input := strings.Repeat("ab ", 500)
	if res := m.CheckMessage(input); !res.Valid {
		t.Errorf("1000 non-space runes should pass, got reason %q", res.Reason)
	}

	input = strings.Repeat("ab ", 500) + "c"
	if res := m.CheckMessage(input); res.Valid || res.Reason != ReasonTooLong {
		t.Errorf("1001 non-space runes: got valid=%v reason=%q", res.Valid, res.Reason)
	}
}

func TestCheckUsername(t *testing.T) {
	m := mustModerator(t, []string{"badword"})

	tests := []struct {
		name   string
		input  string
		reason string
	}{
		{"clean", "friendly_user", ""},
		{"min length", "abcd", ""},
		{"max length", strings.Repeat("x", 24), ""},
		{"dictionary word", "badword", ReasonNameProfanity},
		{"dictionary not substring", "badwording", ""},
		{"domain", "evil.com", ReasonNameDomain},
		{"angle bracket", "user<img", ReasonNameDangerous},
		{"quote", "o'brien", ReasonNameDangerous},
		{"at sign", "user@home", ReasonNameDangerous},
		{"semicolon is dangerous", "user&lt;b", ReasonNameDangerous},
		{"numeric entity has hash", "user&#60;b", ReasonNameDangerous},
		{"bare ampersand", "rock&roll", ReasonNameEscaped},
		{"blacklisted emoji", "user💀name", ReasonNameEmoji},
		{"too short", "abc", ReasonNameLength},
		{"too long", strings.Repeat("x", 25), ReasonNameLength},
		{"length after whitespace removal", "a b c", ReasonNameLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.CheckUsername(tt.input); got != tt.reason {
				t.Errorf("CheckUsername(%q) = %q, want %q", tt.input, got, tt.reason)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	m := Default()

	if res := m.CheckMessage("hello, how is everyone today?"); !res.Valid {
		t.Errorf("greeting rejected: %q", res.Reason)
	}
	if res := m.CheckMessage("f.u.c.k you"); res.Valid || res.Reason != ReasonProfanity {
		t.Errorf("obfuscated profanity: got valid=%v reason=%q", res.Valid, res.Reason)
	}
}
