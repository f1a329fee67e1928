package category

import "strings"

// Keyword containment rules for translating analyzer reasons into categories.
// Intentionally many-to-many and best-effort; callers dedupe the result before
// persisting anything.
var reasonRules = []struct {
	keywords []string
	cat      Category
}{
	{[]string{"threat", "violence"}, ViolentThreat},
	{[]string{"hate speech", "slur"}, HateSpeech},
	{[]string{"harass", "aggressive", "capitalization", "punctuation", "hostile"}, Harassment},
	{[]string{"bully"}, Bullying},
	{[]string{"negative sentiment", "profanity", "toxic"}, Toxicity},
	{[]string{"scam", "phishing"}, Scam},
	{[]string{"spam"}, Spam},
	{[]string{"pii", "personal information", "privacy"}, PrivacyViolation},
	{[]string{"impersonat"}, Impersonation},
	{[]string{"self-harm", "suicide"}, SelfHarm},
	{[]string{"sexual", "explicit", "nsfw"}, AdultContent},
	{[]string{"nudity"}, Nudity},
	{[]string{"extremis"}, Extremism},
}

// MapReasons assigns zero or more categories to each free-text reason by
// case-insensitive keyword containment, returning the deduplicated union.
func MapReasons(reasons []string) []Category {
	var out []Category
	for _, reason := range reasons {
		lower := strings.ToLower(reason)
		for _, rule := range reasonRules {
			for _, kw := range rule.keywords {
				if strings.Contains(lower, kw) {
					out = append(out, rule.cat)
					break
				}
			}
		}
	}
	return Dedupe(out)
}
