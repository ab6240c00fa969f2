package identity

import "testing"

func TestValidToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"canonical v4", "03a0c6a9-8773-4338-8c75-891961e9a8ee", true},
		{"upper case v4", "03A0C6A9-8773-4338-8C75-891961E9A8EE", true},
		{"empty", "", false},
		{"not a uuid", "hello-world", false},
		{"v1 uuid", "f47ac10b-58cc-1372-a567-0e02b2c3d479", false},
		{"wrong variant", "03a0c6a9-8773-4338-0c75-891961e9a8ee", false},
		{"braced form", "{03a0c6a9-8773-4338-8c75-891961e9a8ee}", false},
		{"dollar injection", "$where-4338-8c75", false},
		{"too long", "03a0c6a9-8773-4338-8c75-891961e9a8ee-03a0c6a9-8773-4338-8c75-891961e9a8ee-03a0c6a9-8773-4338", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidToken(tt.token); got != tt.want {
				t.Errorf("ValidToken(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}
