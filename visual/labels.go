package visual

import (
	"github.com/veilchat/sentinel/category"
)

// Fixed label→category table. Thresholds vary by class: high-severity classes
// map at lower confidence, since a miss there costs more than a false flag.
var labelTable = []struct {
	class     string
	threshold float64
	cat       category.Category
}{
	{"nsfw", 0.90, category.AdultContent},
	{"porn", 0.90, category.AdultContent},
	{"sexual", 0.90, category.AdultContent},
	{"nudity", 0.90, category.Nudity},
	{"gore", 0.90, category.GraphicViolence},
	{"graphic_violence", 0.90, category.GraphicViolence},
	{"self_harm", 0.96, category.SelfHarm},
	{"hate_symbol", 0.90, category.HateSpeech},
	{"terror_symbol", 0.70, category.TerrorismContent},
	{"weapon_sale", 0.70, category.WeaponTrafficking},
	{"minor_unsafe", 0.40, category.UnderageContent},
	{"csam", 0.40, category.ChildExploitation},
}

// MapLabels translates classifier output into taxonomy categories, applying
// per-class confidence thresholds. Unknown classes are ignored.
func MapLabels(labels []Label) []category.Category {
	var out []category.Category
	for _, l := range labels {
		for _, row := range labelTable {
			if l.Class == row.class && l.Score >= row.threshold {
				out = append(out, row.cat)
			}
		}
	}
	return category.Dedupe(out)
}
