package moderation

import "testing"

func mustMatcher(t *testing.T, terms []string) *FuzzyMatcher {
	t.Helper()
	fm, err := NewFuzzyMatcher(terms)
	if err != nil {
		t.Fatalf("NewFuzzyMatcher(%v): %v", terms, err)
	}
	return fm
}

func TestFuzzyMatch_SingleWord(t *testing.T) {
	fm := mustMatcher(t, []string{"badword"})

	tests := []struct {
		name  string
		input string
		hit   bool
	}{
		{"exact", "badword", true},
		{"uppercase", "BADWORD", true},
		{"in sentence", "you are a badword here", true},
		{"substring", "badwording", true},
		{"hyphen between each letter", "b-a-d-w-o-r-d", true},
		{"period between each letter", "b.a.d.w.o.r.d", true},
		{"space between each letter", "b a d w o r d", true},
		{"two separators per gap", "b--a--d--w--o--r--d", true},
		{"mixed separators", "b-.a.-d- w.o r-d", true},
		{"three separators per gap", "b---a---d---w---o---r---d", false},
		{"clean text", "hello world", false},
		{"letters interleaved", "bxaxdxwxoxrxd", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term, hit := fm.Match(tt.input)
			if hit != tt.hit {
				t.Errorf("Match(%q) = %q, %v; want hit=%v", tt.input, term, hit, tt.hit)
			}
			if tt.hit && term != "badword" {
				t.Errorf("Match(%q) term = %q, want %q", tt.input, term, "badword")
			}
		})
	}
}

func TestFuzzyMatch_Phrase(t *testing.T) {
	fm := mustMatcher(t, []string{"kill yourself"})

	tests := []struct {
		name  string
		input string
		hit   bool
	}{
		{"literal phrase", "kill yourself", true},
		{"hyphen joined", "kill-yourself", true},
		{"double space", "kill  yourself", true},
		{"no gap at phrase space", "killyourself", false},
		{"clean", "kill the lights yourself later", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, hit := fm.Match(tt.input); hit != tt.hit {
				t.Errorf("Match(%q) hit = %v, want %v", tt.input, hit, tt.hit)
			}
		})
	}
}

func TestFuzzyMatch_HyphenatedEntry(t *testing.T) {
	// Entries that themselves contain separators still require a gap at
	// that position, with any of the three separator runes accepted.
	fm := mustMatcher(t, []string{"bad-word"})

	tests := []struct {
		input string
		hit   bool
	}{
		{"bad-word", true},
		{"bad word", true},
		{"bad.word", true},
		{"badword", false},
	}

	for _, tt := range tests {
		if _, hit := fm.Match(tt.input); hit != tt.hit {
			t.Errorf("Match(%q) hit = %v, want %v", tt.input, hit, tt.hit)
		}
	}
}

func TestFuzzyMatch_CyrillicTerms(t *testing.T) {
	fm := mustMatcher(t, []string{"сука"})

	if _, hit := fm.Match("ах ты с-у-к-а"); !hit {
		t.Error("expected spaced cyrillic term to match")
	}
	if _, hit := fm.Match("привет мир"); hit {
		t.Error("clean cyrillic text should not match")
	}
}

func TestNewFuzzyMatcher_DefaultDictionary(t *testing.T) {
	fm, err := NewFuzzyMatcher(DefaultTerms())
	if err != nil {
		t.Fatalf("NewFuzzyMatcher(DefaultTerms()): %v", err)
	}
	if _, hit := fm.Match("f.u.c.k you"); !hit {
		t.Error("expected dotted obfuscation of a dictionary term to match")
	}
	if _, hit := fm.Match("good morning everyone"); hit {
		t.Error("clean greeting should not match")
	}
}
