// Package analyzer implements lexicon-based content analysis: a sentiment
// pass, a tiered regex pattern pass, a context heuristics pass, and a
// profanity word-ratio pass, combined into a tri-state verdict. Analysis is a
// pure function of text and config; it never errors and degrades to Safe on
// empty input.
package analyzer

import (
	"fmt"
	"strings"

	"github.com/veilchat/sentinel/keyword"
	"github.com/veilchat/sentinel/lexicon"
)

type Strictness int

const (
	Permissive Strictness = iota + 1
	Moderate
	Strict
)

func (s Strictness) String() string {
	switch s {
	case Permissive:
		return "permissive"
	case Moderate:
		return "moderate"
	case Strict:
		return "strict"
	}
	return fmt.Sprintf("strictness(%d)", int(s))
}

// ProfanityThreshold is the word-ratio above which the ratio pass fires.
func (s Strictness) ProfanityThreshold() float64 {
	switch s {
	case Permissive:
		return 0.20
	case Strict:
		return 0.05
	default:
		return 0.10
	}
}

// tier reports which cumulative lexicon tiers are active at this strictness.
func (s Strictness) tier() lexicon.Tier {
	switch s {
	case Permissive:
		return lexicon.TierBasic
	case Strict:
		return lexicon.TierStrict
	default:
		return lexicon.TierModerate
	}
}

type Config struct {
	Strictness Strictness
	// pass toggles; the word-ratio pass always runs
	Sentiment bool
	Patterns  bool
	Context   bool
}

func DefaultConfig() Config {
	return Config{
		Strictness: Moderate,
		Sentiment:  true,
		Patterns:   true,
		Context:    true,
	}
}

type Verdict int

const (
	VerdictSafe Verdict = iota
	VerdictQuestionable
	VerdictUnsafe
)

func (v Verdict) String() string {
	switch v {
	case VerdictSafe:
		return "safe"
	case VerdictQuestionable:
		return "questionable"
	case VerdictUnsafe:
		return "unsafe"
	}
	return fmt.Sprintf("verdict(%d)", int(v))
}

type Result struct {
	Verdict Verdict
	Reasons []string
	// Total unsafe-signal count: one unit each for the sentiment, context, and
	// ratio passes, plus one per matched pattern entry.
	Signals int
	// Normalized sentiment score, surfaced for calibration only.
	SentimentScore float64
}

type Analyzer struct {
	lex *lexicon.Lexicon
}

func New(lex *lexicon.Lexicon) *Analyzer {
	return &Analyzer{lex: lex}
}

func (a *Analyzer) Analyze(text string, cfg Config) Result {
	res := Result{Verdict: VerdictSafe}
	tokens := keyword.Tokenize(text)
	if len(tokens) == 0 {
		return res
	}
	lower := strings.ToLower(text)

	signals := 0
	if cfg.Sentiment {
		score, negative := a.sentimentScore(tokens)
		res.SentimentScore = score
		if negative {
			signals++
			res.Reasons = append(res.Reasons, fmt.Sprintf("highly negative sentiment (score %.2f)", score))
		}
	}
	if cfg.Patterns {
		matches := a.matchPatterns(lower, cfg.Strictness.tier())
		signals += len(matches)
		res.Reasons = append(res.Reasons, matches...)
	}
	if cfg.Context {
		if details := a.suspiciousContext(text, tokens); len(details) > 0 {
			signals++
			res.Reasons = append(res.Reasons, "suspicious context: "+strings.Join(details, ", "))
		}
	}
	if ratio := a.profanityRatio(tokens, cfg.Strictness.tier()); ratio > cfg.Strictness.ProfanityThreshold() {
		signals++
		res.Reasons = append(res.Reasons, fmt.Sprintf("profanity ratio %.0f%% exceeds %s threshold", ratio*100, cfg.Strictness))
	}

	res.Signals = signals
	switch {
	case signals == 0:
		res.Verdict = VerdictSafe
	case signals == 1:
		res.Verdict = VerdictQuestionable
	default:
		res.Verdict = VerdictUnsafe
	}
	return res
}

// IsSafe reports whether text is Safe under the default config.
func (a *Analyzer) IsSafe(text string) bool {
	return a.Analyze(text, DefaultConfig()).Verdict == VerdictSafe
}
