package lists

import (
	"strings"

	"golang.org/x/text/cases"
)

// NameKey is the comparison form of a scoped name: surrounding whitespace
// trimmed, then Unicode case folded. Two names collide iff their keys match.
func NameKey(name string) string {
	// cases.Caser is stateful; a fresh one per call keeps this goroutine-safe.
	return cases.Fold().String(strings.TrimSpace(name))
}
