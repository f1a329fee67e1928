package lexicon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCompiles(t *testing.T) {
	assert := assert.New(t)

	lex := Default()
	assert.NotEmpty(lex.NegativeWords)
	assert.NotEmpty(lex.PositiveWords)
	assert.NotEmpty(lex.AggressiveWords)
	for _, name := range []string{
		PhrasesScam, PhrasesPrivacy, PhrasesSelfHarm,
		PhrasesChildExploitation, PhrasesChildGrooming,
		PhrasesTerrorism, PhrasesViolenceIncitement,
		PhrasesWeaponTrafficking, PhrasesExtremism,
	} {
		assert.NotEmpty(lex.PhraseSet(name), name)
	}
}

func TestWordSets(t *testing.T) {
	assert := assert.New(t)
	lex := Default()

	assert.True(lex.IsNegative("hate"))
	assert.True(lex.IsNegative("stupid"))
	assert.False(lex.IsNegative("weather"))
	assert.True(lex.IsPositive("love"))
	assert.True(lex.IsAggressive("kill"))
}

func TestProfanityTiersCumulative(t *testing.T) {
	assert := assert.New(t)
	lex := Default()

	// basic entries hit at every tier
	for _, tier := range []Tier{TierBasic, TierModerate, TierStrict} {
		assert.True(lex.IsProfane("fuck", tier), tier.String())
	}
	// moderate entries miss at basic
	assert.False(lex.IsProfane("stupid", TierBasic))
	assert.True(lex.IsProfane("stupid", TierModerate))
	assert.True(lex.IsProfane("stupid", TierStrict))
	// strict entries miss below strict
	assert.False(lex.IsProfane("jerk", TierModerate))
	assert.True(lex.IsProfane("jerk", TierStrict))
}

func TestActivePatterns(t *testing.T) {
	assert := assert.New(t)
	lex := Default()

	basic := lex.ActivePatterns(TierBasic)
	moderate := lex.ActivePatterns(TierModerate)
	strict := lex.ActivePatterns(TierStrict)
	assert.NotEmpty(basic)
	assert.Greater(len(moderate), len(basic))
	assert.Greater(len(strict), len(moderate))

	var matched *PatternEntry
	for _, p := range basic {
		if p.Match("congratulations you won, click here to claim") {
			matched = p
			break
		}
	}
	require.NotNil(t, matched)
	assert.Equal("scam", matched.Label)
}
