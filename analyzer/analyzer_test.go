package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/veilchat/sentinel/lexicon"
)

func testAnalyzer() *Analyzer {
	return New(lexicon.Default())
}

func TestAnalyzeSafeText(t *testing.T) {
	assert := assert.New(t)
	a := testAnalyzer()

	for _, text := range []string{
		"Nice weather today",
		"thanks, see you at lunch",
		"can you send over the report when you get a chance?",
	} {
		res := a.Analyze(text, DefaultConfig())
		assert.Equal(VerdictSafe, res.Verdict, text)
		assert.Zero(res.Signals, text)
		assert.Empty(res.Reasons, text)
	}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	assert := assert.New(t)
	a := testAnalyzer()

	for _, text := range []string{"", "   ", "\n\t", "!!! ???"} {
		res := a.Analyze(text, DefaultConfig())
		assert.Equal(VerdictSafe, res.Verdict)
		assert.Zero(res.Signals)
	}
}

func TestAnalyzeSingleSignalIsQuestionable(t *testing.T) {
	assert := assert.New(t)
	a := testAnalyzer()

	// profanity ratio is the only trigger: 2 of 7 tokens at moderate tier
	res := a.Analyze("I hate you, you stupid idiot", DefaultConfig())
	assert.Equal(VerdictQuestionable, res.Verdict)
	assert.Equal(1, res.Signals)
	assert.Contains(res.Reasons[0], "profanity ratio")
}

func TestAnalyzeMultipleSignalsAreUnsafe(t *testing.T) {
	assert := assert.New(t)
	a := testAnalyzer()

	// two distinct scam pattern entries match
	res := a.Analyze("Congratulations you won, click here to claim, wire transfer now", DefaultConfig())
	assert.Equal(VerdictUnsafe, res.Verdict)
	assert.GreaterOrEqual(res.Signals, 2)
	for _, r := range res.Reasons {
		assert.Contains(r, "scam")
	}
}

func TestPatternTiersFollowStrictness(t *testing.T) {
	assert := assert.New(t)
	a := testAnalyzer()

	text := "you will regret this, watch your back"
	permissive := DefaultConfig()
	permissive.Strictness = Permissive
	strict := DefaultConfig()
	strict.Strictness = Strict

	// threat phrases live in the strict tier only
	assert.Equal(VerdictSafe, a.Analyze(text, permissive).Verdict)
	res := a.Analyze(text, strict)
	assert.Equal(VerdictUnsafe, res.Verdict)
	assert.GreaterOrEqual(res.Signals, 2)
}

func TestContextPass(t *testing.T) {
	assert := assert.New(t)
	a := testAnalyzer()

	res := a.Analyze("WHY WOULD YOU EVER DO THAT TO ME", DefaultConfig())
	assert.Equal(VerdictQuestionable, res.Verdict)
	assert.Contains(res.Reasons[0], "excessive capitalization")

	res = a.Analyze("kill smash destroy attack", DefaultConfig())
	assert.GreaterOrEqual(res.Signals, 1)
	assert.Contains(strings.Join(res.Reasons, "; "), "aggressive wording")
}

func TestPassToggles(t *testing.T) {
	assert := assert.New(t)
	a := testAnalyzer()

	cfg := DefaultConfig()
	cfg.Patterns = false
	res := a.Analyze("click here to claim your wire transfer", cfg)
	assert.Equal(VerdictSafe, res.Verdict)

	cfg = DefaultConfig()
	cfg.Context = false
	res = a.Analyze("WHY WOULD YOU EVER DO THAT TO ME", cfg)
	assert.Equal(VerdictSafe, res.Verdict)
}

func TestProfanityRatioMonotonicInStrictness(t *testing.T) {
	assert := assert.New(t)
	a := testAnalyzer()

	texts := []string{
		"you stupid idiot",
		"what the hell is this",
		"fuck this",
		"have a lovely day",
	}
	for _, text := range texts {
		tokens := []string{}
		for _, tok := range strings.Fields(strings.ToLower(text)) {
			tokens = append(tokens, strings.Trim(tok, ".,!?"))
		}
		permissive := a.profanityRatio(tokens, lexicon.TierBasic)
		moderate := a.profanityRatio(tokens, lexicon.TierModerate)
		strict := a.profanityRatio(tokens, lexicon.TierStrict)
		assert.LessOrEqual(permissive, moderate, text)
		assert.LessOrEqual(moderate, strict, text)
	}
}

func TestIsSafe(t *testing.T) {
	assert := assert.New(t)
	a := testAnalyzer()

	assert.True(a.IsSafe("Nice weather today"))
	assert.False(a.IsSafe("congratulations you won, click here to claim, wire transfer now"))
}

func TestClean(t *testing.T) {
	assert := assert.New(t)
	a := testAnalyzer()
	cfg := DefaultConfig()

	assert.Equal("you *** ***!", a.Clean("you stupid idiot!", "***", cfg))
	assert.Equal("what a *** day", a.Clean("what a shit day", "***", cfg))

	// strictness controls which words are masked
	permissive := cfg
	permissive.Strictness = Permissive
	assert.Equal("you stupid idiot!", a.Clean("you stupid idiot!", "***", permissive))

	// idempotent on already-clean text, token count preserved
	clean := "the quick brown fox, jumped! over the lazy dog"
	assert.Equal(clean, a.Clean(clean, "***", cfg))
	masked := a.Clean("you stupid idiot", "***", cfg)
	assert.Equal(masked, a.Clean(masked, "***", cfg))
	assert.Len(strings.Fields(masked), 3)
}
