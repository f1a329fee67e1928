package keyword

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonTokenChars = regexp.MustCompile(`[^\pL\pN\s]+`)

// Splits free-form message text in to tokens: lower-case, unicode normalized,
// with combining marks folded away. Matching against word lists happens on
// these tokens, so "Stüpid!" and "stupid" land on the same entry.
func Tokenize(text string) []string {
	// the transform chain is stateful and not safe for concurrent reuse, so
	// build it per call
	normFunc := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	bare := strings.ToLower(nonTokenChars.ReplaceAllString(text, " "))
	folded, _, err := transform.String(normFunc, bare)
	if err != nil {
		slog.Warn("unicode normalization error", "err", err)
		folded = bare
	}
	return strings.Fields(folded)
}
