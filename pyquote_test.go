package pickle

import "testing"

func TestPyquote(t *testing.T) {
	testv := []struct {
		in, out string
	}{
		{"hello", `"hello"`},
		{"he said \"hi\"", `"he said \"hi\""`},
		{"back\\slash", `"back\\slash"`},
		{"tab\ttab", `"tab\ttab"`},
		{"newline\n", `"newline\n"`},
		{"\x00\x01\x7f", `"\x00\x01\x7f"`},
	}
	for _, tt := range testv {
		got := pyquote(tt.in)
		if got != tt.out {
			t.Errorf("pyquote(%q) = %q, want %q", tt.in, got, tt.out)
		}
	}
}
