package analyzer

import (
	"fmt"
	"unicode"

	"github.com/veilchat/sentinel/lexicon"
)

const highlyNegativeThreshold = 0.7

// sentimentScore scores tokens against the sentiment word lists: +1.0 per
// negative word, -0.5 per positive word, normalized by token count.
func (a *Analyzer) sentimentScore(tokens []string) (float64, bool) {
	var score float64
	for _, tok := range tokens {
		if a.lex.IsNegative(tok) {
			score += 1.0
		} else if a.lex.IsPositive(tok) {
			score -= 0.5
		}
	}
	normalized := score / float64(len(tokens))
	return normalized, normalized > highlyNegativeThreshold
}

// matchPatterns evaluates every active pattern tier against the lower-cased
// text and returns one reason per matched entry.
func (a *Analyzer) matchPatterns(lower string, tier lexicon.Tier) []string {
	var reasons []string
	for _, p := range a.lex.ActivePatterns(tier) {
		if p.Match(lower) {
			reasons = append(reasons, fmt.Sprintf("pattern match (%s): %s", p.Label, p.Expr))
		}
	}
	return reasons
}

const (
	aggressiveRatioThreshold  = 0.20
	capsRatioThreshold        = 0.50
	capsMinLength             = 10
	punctuationRatioThreshold = 0.25
)

// suspiciousContext applies the context heuristics: aggressive wording,
// excessive capitalization, and excessive punctuation. Returns a detail
// string per heuristic that fired.
func (a *Analyzer) suspiciousContext(text string, tokens []string) []string {
	var details []string

	aggressive := 0
	for _, tok := range tokens {
		if a.lex.IsAggressive(tok) {
			aggressive++
		}
	}
	if float64(aggressive)/float64(len(tokens)) > aggressiveRatioThreshold {
		details = append(details, "aggressive wording")
	}

	runes := []rune(text)
	var upper, punct int
	for _, r := range runes {
		if unicode.IsUpper(r) {
			upper++
		}
		if unicode.IsPunct(r) {
			punct++
		}
	}
	if len(runes) > capsMinLength && float64(upper)/float64(len(runes)) > capsRatioThreshold {
		details = append(details, "excessive capitalization")
	}
	if float64(punct)/float64(len(runes)) > punctuationRatioThreshold {
		details = append(details, "excessive punctuation")
	}
	return details
}

// profanityRatio computes the share of tokens classified profane at the
// active tier.
func (a *Analyzer) profanityRatio(tokens []string, tier lexicon.Tier) float64 {
	profane := 0
	for _, tok := range tokens {
		if a.lex.IsProfane(tok, tier) {
			profane++
		}
	}
	return float64(profane) / float64(len(tokens))
}
