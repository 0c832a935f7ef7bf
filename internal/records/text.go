package records

import (
	"strings"

	"github.com/k3a/html2text"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// CleanText folds compatibility and full-width forms (Ａ１２３ → A123), collapses runs
// of whitespace and trims the result.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = width.Fold.String(norm.NFKC.String(s))
	return strings.Join(strings.Fields(s), " ")
}

// PlainText reduces a possibly marked-up note to plain text. Line breaks survive;
// everything else is folded like CleanText.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	if strings.ContainsRune(s, '<') && strings.ContainsRune(s, '>') {
		s = html2text.HTML2Text(s)
	}
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = CleanText(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// SameText reports whether two user-typed values name the same thing.
func SameText(a, b string) bool {
	return strings.EqualFold(CleanText(a), CleanText(b))
}
