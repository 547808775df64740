package security

import (
	"strings"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Plain name",
			input: "Вася Пупкин",
			want:  "Вася Пупкин",
		},
		{
			name:  "HTML stripped",
			input: "<b>Вася</b>",
			want:  "Вася",
		},
		{
			name:  "Whitespace trimmed",
			input: "  Вася  ",
			want:  "Вася",
		},
		{
			name:  "Empty falls back",
			input: "<script>alert(1)</script>",
			want:  "Игрок",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeName(tt.input); got != tt.want {
				t.Errorf("SanitizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeString_LengthLimit(t *testing.T) {
	long := strings.Repeat("a", 2000)
	if got := SanitizeString(long); len(got) != 1000 {
		t.Errorf("SanitizeString length = %d, want 1000", len(got))
	}
}
