package agent

import (
	"regexp"
	"strings"
)

var (
	boldRe    = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe  = regexp.MustCompile(`\*(.*?)\*`)
	underRe   = regexp.MustCompile(`__(.*?)__`)
	codeRe    = regexp.MustCompile("`([^`]*)`")
	headingRe = regexp.MustCompile(`(?m)^#{1,6}[ \t]*`)
	blanksRe  = regexp.MustCompile(`\n{3,}`)
)

// StripMarkup normalizes prose output for plain-text agents: emphasis
// markers and headings are removed, runs of blank lines collapse to
// one, and surrounding whitespace is trimmed.
func StripMarkup(s string) string {
	s = boldRe.ReplaceAllString(s, "$1")
	s = italicRe.ReplaceAllString(s, "$1")
	s = underRe.ReplaceAllString(s, "$1")
	s = codeRe.ReplaceAllString(s, "$1")
	s = headingRe.ReplaceAllString(s, "")
	s = blanksRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
