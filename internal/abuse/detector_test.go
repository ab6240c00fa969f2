package abuse

import (
	"encoding/json"
	"testing"
)

func TestScan_Signatures(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		flagged bool
	}{
		{"script tag", "<script>alert(1)</script>", true},
		{"script open only", "<script src=x>", true},
		{"event handler", `<div onload=pwn()>`, true},
		{"img tag", "<img src=x>", true},
		{"iframe", "<iframe src=evil>", true},
		{"svg", "<svg/onload=1>", true},
		{"style expression", `style="expression(alert(1))"`, true},
		{"javascript uri", "javascript:alert(1)", true},
		{"data html uri", "data:text/html;base64,xxx", true},
		{"select from", "SELECT password FROM users", true},
		{"insert into", "insert into users values", true},
		{"drop table", "DROP TABLE messages", true},
		{"boolean injection", `' or 1=1`, true},
		{"comment marker", "admin'--", true},
		{"union select", "1 UNION SELECT null", true},
		{"plain text", "hello world, how are you?", false},
		{"angle-free math", "2 < 3 and 3 > 2", false},
		{"dash without comment", "well-known", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Scan(tt.input); got != tt.flagged {
				t.Errorf("Scan(%q) = %v, want %v", tt.input, got, tt.flagged)
			}
		})
	}
}

func TestScan_NestedStructures(t *testing.T) {
	var deep any
	if err := json.Unmarshal([]byte(`{"a":{"b":["fine",{"c":"<script>x</script>"}]}}`), &deep); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !Scan(deep) {
		t.Error("signature buried in nested structure not flagged")
	}

	var clean any
	if err := json.Unmarshal([]byte(`{"a":{"b":["hello",{"c":"world"}],"n":42},"ok":true}`), &clean); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if Scan(clean) {
		t.Error("clean nested structure flagged")
	}
}

func TestScan_NonStringLeaves(t *testing.T) {
	if Scan(map[string]any{"n": 1.5, "b": false, "nil": nil}) {
		t.Error("non-string leaves flagged")
	}
	if Scan(nil) {
		t.Error("nil payload flagged")
	}
}
