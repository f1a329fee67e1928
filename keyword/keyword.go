package keyword

import (
	"regexp"
	"strings"
)

var nonSlugChars = regexp.MustCompile(`[^\pL\pN]+`)

// Reduces an arbitrary string to lower-case letters and digits only. Used to
// compare a single word against word-list entries regardless of punctuation
// stuck to it.
func Slugify(orig string) string {
	return strings.ToLower(nonSlugChars.ReplaceAllString(orig, ""))
}

// Checks a single token against a set of known tokens.
func TokenInSet(tok string, set map[string]bool) bool {
	return set[tok]
}

// Builds a membership set from a word list, slugifying each entry.
func TokenSet(words []string) map[string]bool {
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[Slugify(w)] = true
	}
	return out
}
