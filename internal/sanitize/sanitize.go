// Package sanitize turns raw provider reviews into publishable ones: PII and
// clinical-condition redaction, truncation, and author anonymization. Every
// function here is pure and idempotent — running a review through the pipeline
// twice yields byte-identical output.
package sanitize

import (
	"strings"

	"github.com/Sudo-psc/saraivavision-site-v2-sub001/internal/domain"
)

const (
	// AnonymousAuthor replaces an empty or missing display name.
	AnonymousAuthor = "Paciente"

	// MaxTextRunes caps review text, counted after redaction so tokens
	// count toward the limit and truncation never splits a pending match.
	MaxTextRunes = 400

	// MaxReviews is the hard cap on reviews per payload. Later provider
	// entries are dropped before sanitization runs.
	MaxReviews = 6
)

// Text applies both redaction chains then truncates. Stage order is fixed:
// PII first, clinical terms second, length cap last.
func Text(s string) string {
	s = applyRules(s, piiRules)
	s = applyRules(s, clinicalRules)
	if r := []rune(s); len(r) > MaxTextRunes {
		s = string(r[:MaxTextRunes])
	}
	return s
}

// Author anonymizes a display name. Empty → AnonymousAuthor; single token →
// unchanged; two or more tokens → "First X." where X is the first letter of
// the second token.
func Author(name string) string {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return AnonymousAuthor
	case 1:
		return fields[0]
	default:
		return fields[0] + " " + string([]rune(fields[1])[:1]) + "."
	}
}

// Review sanitizes one raw review at the given zero-based position within the
// truncated list. Rating passes through unclamped: an out-of-range provider
// rating propagates as-is.
func Review(raw domain.RawReview, position int) domain.SanitizedReview {
	return domain.SanitizedReview{
		ID:           position,
		Author:       Author(raw.AuthorName),
		Rating:       raw.Rating,
		Text:         Text(raw.Text),
		RelativeTime: raw.RelativeTimeDescription,
	}
}

// Reviews caps the raw list at MaxReviews and sanitizes each entry in provider
// order. Always returns a non-nil slice so the payload serializes as [] rather
// than null.
func Reviews(raws []domain.RawReview) []domain.SanitizedReview {
	if len(raws) > MaxReviews {
		raws = raws[:MaxReviews]
	}
	out := make([]domain.SanitizedReview, 0, len(raws))
	for i, raw := range raws {
		out = append(out, Review(raw, i))
	}
	return out
}
