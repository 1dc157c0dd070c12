package app

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/Sudo-psc/saraivavision-site-v2-sub001/internal/domain"
	"github.com/Sudo-psc/saraivavision-site-v2-sub001/internal/sanitize"
)

// Assemble turns a provider envelope into a publishable payload. A non-"OK"
// status is a ProviderError carrying the provider's own message when present.
// Missing total/rating fall back (list length / null) instead of erroring.
func Assemble(resp domain.ProviderResponse, now time.Time) (domain.ReviewPayload, error) {
	if resp.Status != domain.StatusOK {
		return domain.ReviewPayload{}, domain.NewProviderError(resp.Status, resp.ErrorMessage)
	}
	reviews := sanitize.Reviews(resp.Result.Reviews)
	total := len(reviews)
	if resp.Result.UserRatingsTotal != nil {
		total = *resp.Result.UserRatingsTotal
	}
	return domain.ReviewPayload{
		Source:     domain.SourceGoogle,
		Total:      total,
		Rating:     resp.Result.Rating,
		Reviews:    reviews,
		Disclaimer: domain.Disclaimer,
		// assembly time, not request time: a streamed or revalidated payload
		// reports when its data was fetched
		Timestamp: now.UTC().Format(time.RFC3339),
	}, nil
}

// Fingerprint computes the weak validator for a payload: sha1 over its
// canonical JSON with the timestamp blanked. The timestamp moves every fetch
// cycle; folding it in would make every cycle look like a change and defeat
// both 304 revalidation and stream dedup.
func Fingerprint(p domain.ReviewPayload) string {
	p.Timestamp = ""
	body, err := json.Marshal(p)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal payload for fingerprint")
		return ""
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`
}

// Service runs the fetch → sanitize → assemble → hash cycle against the
// provider port.
type Service struct {
	source domain.ReviewSource
	sf     singleflight.Group
}

func NewService(src domain.ReviewSource) *Service {
	return &Service{source: src}
}

type snapshot struct {
	payload domain.ReviewPayload
	tag     string
}

// Snapshot performs one full cycle and returns the payload with its
// fingerprint. Concurrent callers are collapsed into a single upstream fetch.
func (s *Service) Snapshot(ctx context.Context) (domain.ReviewPayload, string, error) {
	v, err, _ := s.sf.Do("reviews", func() (any, error) {
		resp, err := s.source.PlaceDetails(ctx)
		if err != nil {
			return nil, err
		}
		p, err := Assemble(resp, time.Now())
		if err != nil {
			return nil, err
		}
		return snapshot{payload: p, tag: Fingerprint(p)}, nil
	})
	if err != nil {
		return domain.ReviewPayload{}, "", err
	}
	snap := v.(snapshot)
	return snap.payload, snap.tag, nil
}
