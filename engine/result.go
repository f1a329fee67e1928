package engine

import "github.com/veilchat/sentinel/category"

// DetectionResult is the merged outcome of one evaluation: the deduplicated
// category set, an aggregate confidence (surfaced for calibration, never used
// for branching), and freeform reasons. It never contains message content.
type DetectionResult struct {
	Categories []category.Category
	Confidence float64
	Reasons    []string
}

// RequiresEscalation reports whether any detected category is high severity.
func (r *DetectionResult) RequiresEscalation() bool {
	return category.AnyHighSeverity(r.Categories)
}

// HighSeverity returns the high-severity subset of the detected categories.
func (r *DetectionResult) HighSeverity() []category.Category {
	var out []category.Category
	for _, c := range r.Categories {
		if c.HighSeverity() {
			out = append(out, c)
		}
	}
	return out
}
