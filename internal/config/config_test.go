package config

import "testing"

func TestParseWindow(t *testing.T) {
	cases := []struct {
		input string
		want  uint32
	}{
		{"1s", 1},
		{"30m", 1800},
		{"24h", 86400},
	}

	for _, tc := range cases {
		got, err := ParseWindow(tc.input)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("parse %q: got %d, want %d", tc.input, got, tc.want)
		}
	}
}

func TestParseWindowInvalid(t *testing.T) {
	for _, input := range []string{"", "0s", "-5m", "500ms", "bogus"} {
		if _, err := ParseWindow(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}
