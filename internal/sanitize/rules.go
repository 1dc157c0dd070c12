package sanitize

import "regexp"

// Redaction tokens. These count toward the 400-rune text limit.
const (
	PIIToken      = "[contato removido]"
	ClinicalToken = "[termo clínico]"
)

// rule is one (pattern, replacement) pair. Rule sets are ordered lists applied
// by a single fold, so adding or reordering a redaction is a data change.
type rule struct {
	re    *regexp.Regexp
	token string
}

// piiRules run first, in order: Brazilian phone shapes, then e-mail addresses.
// Later rules see already-redacted text.
var piiRules = []rule{
	// +55 (33) 99999-9999, (33) 3331-1234, 33 99999 9999, 3331-1234 etc.
	{regexp.MustCompile(`(\+?55[\s.-]?)?\(?\d{2}\)?[\s.-]?\d{4,5}[\s.-]\d{4}`), PIIToken},
	// bare 8-11 digit runs (whatsapp numbers pasted without separators)
	{regexp.MustCompile(`\b\d{8,11}\b`), PIIToken},
	{regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`), PIIToken},
}

// clinicalRules run after PII redaction. Case-insensitive; multi-word
// conditions are listed before their single-word prefixes so the longest
// match wins ("retinopatia diabética" before "retinopatia").
var clinicalRules = []rule{
	{regexp.MustCompile(`(?i)retinopatia diabética`), ClinicalToken},
	{regexp.MustCompile(`(?i)retinopatia`), ClinicalToken},
	{regexp.MustCompile(`(?i)degeneração macular`), ClinicalToken},
	{regexp.MustCompile(`(?i)descolamento de retina`), ClinicalToken},
	{regexp.MustCompile(`(?i)glaucoma`), ClinicalToken},
	{regexp.MustCompile(`(?i)catarata`), ClinicalToken},
	{regexp.MustCompile(`(?i)ceratocone`), ClinicalToken},
	{regexp.MustCompile(`(?i)estrabismo`), ClinicalToken},
	{regexp.MustCompile(`(?i)pterígio`), ClinicalToken},
	{regexp.MustCompile(`(?i)conjuntivite`), ClinicalToken},
	{regexp.MustCompile(`(?i)diabetes`), ClinicalToken},
}

// applyRules folds an ordered rule list over text.
func applyRules(text string, rules []rule) string {
	for _, r := range rules {
		text = r.re.ReplaceAllString(text, r.token)
	}
	return text
}
