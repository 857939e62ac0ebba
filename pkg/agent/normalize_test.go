package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripMarkup(t *testing.T) {
	cases := []struct {
		name string
		in   string
		out  string
	}{
		{"bold", "**Present Perfect** is used...", "Present Perfect is used..."},
		{"italic", "use *very* sparingly", "use very sparingly"},
		{"underscore", "an __important__ rule", "an important rule"},
		{"inline code", "the word `run`", "the word run"},
		{"heading", "## Usage\nIt follows the verb.", "Usage\nIt follows the verb."},
		{"blank collapse", "a\n\n\n\nb", "a\n\nb"},
		{"trim", "  plain  ", "plain"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.out, StripMarkup(tc.in))
		})
	}
}
