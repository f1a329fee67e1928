package analyzer

import (
	"strings"
	"unicode"

	"github.com/veilchat/sentinel/keyword"
)

func wordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '\''
}

// Clean masks every word classified profane at the config's strictness with
// the replacement token, in a single left-to-right scan. Whitespace,
// punctuation, and the ordering of non-profane words are preserved exactly.
func (a *Analyzer) Clean(text, replacement string, cfg Config) string {
	tier := cfg.Strictness.tier()
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))

	i := 0
	for i < len(runes) {
		if !wordRune(runes[i]) {
			b.WriteRune(runes[i])
			i++
			continue
		}
		j := i
		for j < len(runes) && wordRune(runes[j]) {
			j++
		}
		word := string(runes[i:j])
		if a.lex.IsProfane(keyword.Slugify(word), tier) {
			b.WriteString(replacement)
		} else {
			b.WriteString(word)
		}
		i = j
	}
	return b.String()
}
