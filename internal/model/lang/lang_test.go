package lang

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want Code
	}{
		{"pl", PL},
		{"en", EN},
		{"", Default},
		{"xx", Default},
		{"PL", Default},
		{"de", Default},
	}

	for _, tt := range tests {
		if got := Normalize(tt.raw); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
