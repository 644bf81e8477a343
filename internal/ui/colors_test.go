package ui

import (
	"strings"
	"testing"
)

func TestPalette(t *testing.T) {
	tests := []struct {
		name   string
		render func(string) string
	}{
		{"Title", Title},
		{"OK", OK},
		{"Fail", Fail},
		{"Warn", Warn},
		{"Help", Help},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.render("Second Sunday in Lent"); !strings.Contains(got, "Second Sunday in Lent") {
				t.Errorf("%s dropped its text: %q", tt.name, got)
			}
		})
	}
}
