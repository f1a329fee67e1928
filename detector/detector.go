// Package detector implements the always-on phrase detectors. Unlike the
// analyzer passes these are not gated by strictness: the child-safety and
// terrorism/security families run at maximum sensitivity regardless of
// configuration, reflecting their high-severity status. Matching is plain
// substring containment against lower-cased text.
package detector

import (
	"fmt"
	"strings"

	"github.com/veilchat/sentinel/category"
	"github.com/veilchat/sentinel/lexicon"
)

// phrase-set name → category, one row per detector family
var phraseFamilies = []struct {
	set string
	cat category.Category
}{
	// child safety
	{lexicon.PhrasesChildExploitation, category.ChildExploitation},
	{lexicon.PhrasesChildGrooming, category.ChildGrooming},
	{lexicon.PhrasesUnderageContent, category.UnderageContent},
	{lexicon.PhrasesChildEndangerment, category.ChildEndangerment},
	// terrorism / security
	{lexicon.PhrasesTerrorism, category.TerrorismContent},
	{lexicon.PhrasesViolenceIncitement, category.ViolenceIncitement},
	{lexicon.PhrasesWeaponTrafficking, category.WeaponTrafficking},
	{lexicon.PhrasesCoordinatedHarm, category.CoordinatedHarmfulActivity},
	// extremism
	{lexicon.PhrasesExtremism, category.Extremism},
	// standard-severity phrase families
	{lexicon.PhrasesScam, category.Scam},
	{lexicon.PhrasesPrivacy, category.PrivacyViolation},
	{lexicon.PhrasesSelfHarm, category.SelfHarm},
}

type Detection struct {
	Categories []category.Category
	Reasons    []string
}

type Detector struct {
	lex *lexicon.Lexicon
}

func New(lex *lexicon.Lexicon) *Detector {
	return &Detector{lex: lex}
}

// DetectAll runs every phrase family against the text and returns the
// deduplicated categories with one reason per matched family.
func (d *Detector) DetectAll(text string) Detection {
	lower := strings.ToLower(text)
	var det Detection
	for _, fam := range phraseFamilies {
		if phrase, ok := d.matchSet(lower, fam.set); ok {
			det.Categories = append(det.Categories, fam.cat)
			det.Reasons = append(det.Reasons, fmt.Sprintf("phrase match (%s): %s", fam.set, phrase))
		}
	}
	det.Categories = category.Dedupe(det.Categories)
	return det
}

// DetectChildSafety runs only the child-safety phrase families.
func (d *Detector) DetectChildSafety(text string) []category.Category {
	return d.detectFamily(text, category.FamilyChild)
}

// DetectSecurityThreats runs only the terrorism/security phrase families.
func (d *Detector) DetectSecurityThreats(text string) []category.Category {
	return d.detectFamily(text, category.FamilySecurity)
}

// DetectExtremism reports whether the text matches the extremist phrase list.
func (d *Detector) DetectExtremism(text string) bool {
	_, ok := d.matchSet(strings.ToLower(text), lexicon.PhrasesExtremism)
	return ok
}

func (d *Detector) detectFamily(text string, fam category.Family) []category.Category {
	lower := strings.ToLower(text)
	var out []category.Category
	for _, row := range phraseFamilies {
		if row.cat.Family() != fam {
			continue
		}
		if _, ok := d.matchSet(lower, row.set); ok {
			out = append(out, row.cat)
		}
	}
	return category.Dedupe(out)
}

func (d *Detector) matchSet(lower, set string) (string, bool) {
	for _, phrase := range d.lex.PhraseSet(set) {
		if strings.Contains(lower, phrase) {
			return phrase, true
		}
	}
	return "", false
}
