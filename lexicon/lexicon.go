// Package lexicon holds the word lists, regex pattern tiers, and phrase sets
// which drive detection. The engine is pure logic over this data: a default
// table is embedded in the binary, and deployments can load a replacement from
// a JSON file without rebuilding.
package lexicon

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/veilchat/sentinel/keyword"
)

// Pattern and profanity tiers are cumulative: a tier includes everything from
// the tiers below it.
type Tier int

const (
	TierBasic Tier = iota + 1
	TierModerate
	TierStrict
)

func (t Tier) String() string {
	switch t {
	case TierBasic:
		return "basic"
	case TierModerate:
		return "moderate"
	case TierStrict:
		return "strict"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// Named phrase sets consumed by the phrase detectors.
const (
	PhrasesScam               = "scam"
	PhrasesPrivacy            = "privacy"
	PhrasesSelfHarm           = "self_harm"
	PhrasesChildExploitation  = "child_exploitation"
	PhrasesChildGrooming      = "child_grooming"
	PhrasesUnderageContent    = "underage_content"
	PhrasesChildEndangerment  = "child_endangerment"
	PhrasesTerrorism          = "terrorism"
	PhrasesViolenceIncitement = "violence_incitement"
	PhrasesWeaponTrafficking  = "weapon_trafficking"
	PhrasesCoordinatedHarm    = "coordinated_harm"
	PhrasesExtremism          = "extremism"
)

// A single regex entry within a pattern tier. The label is free text which
// flows into detection reasons (and from there to category mapping).
type PatternEntry struct {
	Label string `json:"label"`
	Expr  string `json:"expr"`

	re *regexp.Regexp
}

// Match reports whether the pattern matches the (already lower-cased) text.
func (p *PatternEntry) Match(lower string) bool {
	return p.re != nil && p.re.MatchString(lower)
}

type tieredWords struct {
	Basic    []string `json:"basic"`
	Moderate []string `json:"moderate"`
	Strict   []string `json:"strict"`
}

type Lexicon struct {
	NegativeWords   []string                  `json:"negative_words"`
	PositiveWords   []string                  `json:"positive_words"`
	AggressiveWords []string                  `json:"aggressive_words"`
	Profanity       tieredWords               `json:"profanity"`
	Patterns        map[string][]PatternEntry `json:"patterns"`
	Phrases         map[string][]string       `json:"phrases"`

	negative   map[string]bool
	positive   map[string]bool
	aggressive map[string]bool
	profane    map[Tier]map[string]bool
}

//go:embed data/default.json
var defaultJSON []byte

// Default returns the embedded lexicon, compiled. Panics only if the embedded
// asset is malformed, which is a build defect.
func Default() *Lexicon {
	lex, err := parse(defaultJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded lexicon is invalid: %v", err))
	}
	return lex
}

// LoadFromFileJSON loads and compiles a replacement lexicon from a JSON file.
func LoadFromFileJSON(p string) (*Lexicon, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return parse(raw)
}

func parse(raw []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := json.Unmarshal(raw, &lex); err != nil {
		return nil, fmt.Errorf("parsing lexicon JSON: %w", err)
	}
	if err := lex.compile(); err != nil {
		return nil, err
	}
	return &lex, nil
}

func (l *Lexicon) compile() error {
	l.negative = keyword.TokenSet(l.NegativeWords)
	l.positive = keyword.TokenSet(l.PositiveWords)
	l.aggressive = keyword.TokenSet(l.AggressiveWords)

	l.profane = map[Tier]map[string]bool{
		TierBasic:    keyword.TokenSet(l.Profanity.Basic),
		TierModerate: keyword.TokenSet(l.Profanity.Moderate),
		TierStrict:   keyword.TokenSet(l.Profanity.Strict),
	}

	for tier, entries := range l.Patterns {
		for i := range entries {
			re, err := regexp.Compile(entries[i].Expr)
			if err != nil {
				return fmt.Errorf("compiling %s pattern %q: %w", tier, entries[i].Expr, err)
			}
			l.Patterns[tier][i].re = re
		}
	}
	return nil
}

func (l *Lexicon) IsNegative(tok string) bool   { return l.negative[tok] }
func (l *Lexicon) IsPositive(tok string) bool   { return l.positive[tok] }
func (l *Lexicon) IsAggressive(tok string) bool { return l.aggressive[tok] }

// IsProfane reports whether a token is in any profanity tier up to and
// including max. Higher tiers classify strictly more words.
func (l *Lexicon) IsProfane(tok string, max Tier) bool {
	for t := TierBasic; t <= max; t++ {
		if l.profane[t][tok] {
			return true
		}
	}
	return false
}

// ActivePatterns returns the compiled pattern entries for all tiers up to and
// including max, in tier order.
func (l *Lexicon) ActivePatterns(max Tier) []*PatternEntry {
	var out []*PatternEntry
	for t := TierBasic; t <= max; t++ {
		entries := l.Patterns[t.String()]
		for i := range entries {
			out = append(out, &entries[i])
		}
	}
	return out
}

// PhraseSet returns the named phrase list, or nil if absent.
func (l *Lexicon) PhraseSet(name string) []string {
	return l.Phrases[name]
}
