// Package category defines the canonical safety taxonomy. Category identity,
// display metadata, and severity are all static data: severity in particular
// is a pure function of the category, never computed at runtime.
package category

import "sort"

// Category is a stable string identifier, used directly as the counter-store
// field prefix (eg "toxicity_hits_30d").
type Category string

const (
	// adult content
	AdultContent Category = "adultContent"
	Nudity       Category = "nudity"
	// toxicity / harassment
	Toxicity   Category = "toxicity"
	Harassment Category = "harassment"
	Bullying   Category = "bullying"
	// hate / violence
	HateSpeech      Category = "hateSpeech"
	ViolentThreat   Category = "violentThreat"
	GraphicViolence Category = "graphicViolence"
	// scam / spam
	Scam Category = "scam"
	Spam Category = "spam"
	// privacy violation
	PrivacyViolation Category = "privacyViolation"
	Impersonation    Category = "impersonation"
	// self harm
	SelfHarm Category = "selfHarm"
	// extremism
	Extremism Category = "extremism"
	// child safety (high severity)
	ChildGrooming     Category = "childGrooming"
	ChildExploitation Category = "childExploitation"
	UnderageContent   Category = "underageContent"
	ChildEndangerment Category = "childEndangerment"
	// terrorism / security (high severity)
	TerrorismContent           Category = "terrorismContent"
	ViolenceIncitement         Category = "violenceIncitement"
	WeaponTrafficking          Category = "weaponTrafficking"
	CoordinatedHarmfulActivity Category = "coordinatedHarmfulActivity"
)

type Family string

const (
	FamilyAdult     Family = "adult"
	FamilyToxicity  Family = "toxicity"
	FamilyHate      Family = "hate-violence"
	FamilyScamSpam  Family = "scam-spam"
	FamilyPrivacy   Family = "privacy"
	FamilySelfHarm  Family = "self-harm"
	FamilyExtremism Family = "extremism"
	FamilyChild     Family = "child-safety"
	FamilySecurity  Family = "terrorism-security"
)

type Meta struct {
	DisplayName  string
	Family       Family
	HighSeverity bool
}

// One owned table instead of scattered switch statements. Exactly the
// child-safety and terrorism/security families are high severity.
var registry = map[Category]Meta{
	AdultContent:               {"Adult Content", FamilyAdult, false},
	Nudity:                     {"Nudity", FamilyAdult, false},
	Toxicity:                   {"Toxicity", FamilyToxicity, false},
	Harassment:                 {"Harassment", FamilyToxicity, false},
	Bullying:                   {"Bullying", FamilyToxicity, false},
	HateSpeech:                 {"Hate Speech", FamilyHate, false},
	ViolentThreat:              {"Violent Threat", FamilyHate, false},
	GraphicViolence:            {"Graphic Violence", FamilyHate, false},
	Scam:                       {"Scam", FamilyScamSpam, false},
	Spam:                       {"Spam", FamilyScamSpam, false},
	PrivacyViolation:           {"Privacy Violation", FamilyPrivacy, false},
	Impersonation:              {"Impersonation", FamilyPrivacy, false},
	SelfHarm:                   {"Self Harm", FamilySelfHarm, false},
	Extremism:                  {"Extremism", FamilyExtremism, false},
	ChildGrooming:              {"Child Grooming", FamilyChild, true},
	ChildExploitation:          {"Child Exploitation", FamilyChild, true},
	UnderageContent:            {"Underage Content", FamilyChild, true},
	ChildEndangerment:          {"Child Endangerment", FamilyChild, true},
	TerrorismContent:           {"Terrorism Content", FamilySecurity, true},
	ViolenceIncitement:         {"Violence Incitement", FamilySecurity, true},
	WeaponTrafficking:          {"Weapon Trafficking", FamilySecurity, true},
	CoordinatedHarmfulActivity: {"Coordinated Harmful Activity", FamilySecurity, true},
}

func (c Category) String() string { return string(c) }

// Lookup returns the metadata for a category, and whether it is a known
// taxonomy member.
func Lookup(c Category) (Meta, bool) {
	m, ok := registry[c]
	return m, ok
}

func (c Category) DisplayName() string {
	return registry[c].DisplayName
}

func (c Category) Family() Family {
	return registry[c].Family
}

func (c Category) HighSeverity() bool {
	return registry[c].HighSeverity
}

// All returns every taxonomy category in stable (sorted) order.
func All() []Category {
	out := make([]Category, 0, len(registry))
	for c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Dedupe removes duplicates while preserving first-seen order.
func Dedupe(in []Category) []Category {
	var out []Category
	seen := make(map[Category]bool, len(in))
	for _, c := range in {
		if !seen[c] {
			out = append(out, c)
			seen[c] = true
		}
	}
	return out
}

// AnyHighSeverity reports whether the set contains at least one high-severity
// category.
func AnyHighSeverity(cats []Category) bool {
	for _, c := range cats {
		if c.HighSeverity() {
			return true
		}
	}
	return false
}
