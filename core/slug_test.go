package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSlug(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Community Guidelines", "community-guidelines"},
		{"  Budget 2026  ", "budget-2026"},
		{"Annual Report (Draft)", "annual-report-draft"},
		{"---", ""},
		{"", ""},
		{"Überschrift", "berschrift"},
		{"a  b\tc", "a-b-c"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeSlug(tt.input), "input: %q", tt.input)
	}
}
