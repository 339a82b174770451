package inventory

import (
	"strings"

	"golang.org/x/text/cases"
)

// FoldName returns the case-folded form used for case-insensitive ordering.
// Casers are stateful, so each call gets its own.
func FoldName(s string) string {
	return cases.Fold().String(s)
}

func compareFold(a, b string) int {
	return strings.Compare(FoldName(a), FoldName(b))
}
