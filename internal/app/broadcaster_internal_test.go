package app

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Sudo-psc/saraivavision-site-v2-sub001/internal/domain"
)

// seqSource returns a payload whose text changes on every fetch, so every
// completed cycle carries a new fingerprint.
type seqSource struct {
	mu sync.Mutex
	n  int
}

func (s *seqSource) PlaceDetails(ctx context.Context) (domain.ProviderResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return domain.ProviderResponse{
		Status: domain.StatusOK,
		Result: domain.ProviderResult{
			Reviews: []domain.RawReview{{
				AuthorName: "A",
				Rating:     5,
				Text:       fmt.Sprintf("v%d", s.n),
			}},
		},
	}, nil
}

// A connection's unconditional first update must never be followed by an
// identical update: tick advances the fingerprint and fans out under one
// lock, and Subscribe reads-and-registers under that same lock, so a
// subscriber cannot see a payload as its first event and then receive the
// in-flight broadcast of that same payload.
func TestSubscribeDuringTick_NoConsecutiveDuplicateUpdates(t *testing.T) {
	b := NewBroadcaster(NewService(&seqSource{}), time.Hour)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20000; i++ {
			b.tick(ctx)
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
		}
		sub, first := b.Subscribe(ctx)
		if first.Name == "update" {
			select {
			case ev, ok := <-sub.C:
				if ok && ev.Name == "update" && bytes.Equal(ev.Data, first.Data) {
					t.Fatalf("duplicate consecutive updates: first=%s then=%s", first.Data, ev.Data)
				}
			default:
			}
		}
		b.Unsubscribe(sub)
	}
}
