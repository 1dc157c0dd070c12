package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Sudo-psc/saraivavision-site-v2-sub001/internal/adapters/observability"
	"github.com/Sudo-psc/saraivavision-site-v2-sub001/internal/domain"
)

// Event is one framed stream message, ready to put on the wire.
type Event struct {
	Name string // "update" or "error"
	Data []byte // JSON
}

func updateEvent(p domain.ReviewPayload) Event {
	b, _ := json.Marshal(p)
	return Event{Name: "update", Data: b}
}

func errorEvent(err error) Event {
	b, _ := json.Marshal(map[string]string{"message": err.Error()})
	return Event{Name: "error", Data: b}
}

// Subscriber is one registered connection's inbox. The channel is closed by
// Unsubscribe and never by the subscriber.
type Subscriber struct {
	C chan Event
}

// Broadcaster owns the single process-wide fetch cycle and fans results out
// to every subscriber. N connected clients cost one upstream fetch per tick,
// not N. The last pushed fingerprint lives here, so "update" events form a
// deduplicated sequence: a tick whose fingerprint matches the previous one
// puts nothing on the wire.
type Broadcaster struct {
	svc      *Service
	interval time.Duration

	mu      sync.Mutex
	subs    map[*Subscriber]struct{}
	last    *domain.ReviewPayload
	lastTag string
}

func NewBroadcaster(svc *Service, interval time.Duration) *Broadcaster {
	return &Broadcaster{
		svc:      svc,
		interval: interval,
		subs:     make(map[*Subscriber]struct{}),
	}
}

// Run drives the fetch ticker until ctx is cancelled. Fetch failures are
// non-terminal: subscribers get an "error" event and the next tick tries again.
func (b *Broadcaster) Run(ctx context.Context) error {
	t := time.NewTicker(b.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			b.tick(ctx)
		}
	}
}

func (b *Broadcaster) tick(ctx context.Context) {
	b.mu.Lock()
	idle := len(b.subs) == 0
	b.mu.Unlock()
	if idle {
		// nobody listening, don't poll upstream
		return
	}

	payload, tag, err := b.svc.Snapshot(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("stream fetch cycle failed")
		b.broadcast(errorEvent(err))
		return
	}

	// Advancing the fingerprint and fanning out happen under one lock.
	// Subscribe also registers under mu, so a new connection either reads the
	// previous payload and receives this broadcast, or reads this payload and
	// misses it — never both, which is what keeps consecutive updates on one
	// connection distinct.
	b.mu.Lock()
	defer b.mu.Unlock()
	if tag == b.lastTag {
		return
	}
	p := payload
	b.last = &p
	b.lastTag = tag
	b.send(updateEvent(payload))
}

// Subscribe registers a connection and returns its inbox together with the
// first event to push: always an "update" when data is available (fetched
// synchronously if no cycle has run yet), an "error" if that initial fetch
// fails. The first push is unconditional regardless of fingerprint state.
//
// The first event is read and the subscriber registered in one critical
// section: every later inbox update is sent by tick under the same lock and
// only after the fingerprint moved past the one behind the first event.
func (b *Broadcaster) Subscribe(ctx context.Context) (*Subscriber, Event) {
	b.mu.Lock()
	primed := b.last != nil
	b.mu.Unlock()

	var (
		payload  domain.ReviewPayload
		tag      string
		fetchErr error
	)
	if !primed {
		// fetch outside the lock; a concurrent tick may prime b.last first
		payload, tag, fetchErr = b.svc.Snapshot(ctx)
	}

	sub := &Subscriber{C: make(chan Event, 8)}

	b.mu.Lock()
	var first Event
	switch {
	case b.last != nil:
		first = updateEvent(*b.last)
	case fetchErr != nil:
		first = errorEvent(fetchErr)
	default:
		p := payload
		b.last = &p
		b.lastTag = tag
		first = updateEvent(p)
	}
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	observability.StreamSubscribers.Inc()
	return sub, first
}

// Unsubscribe removes the connection and closes its inbox. Safe to call once
// per subscriber; the single deterministic cleanup transition for a stream
// connection.
func (b *Broadcaster) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub.C)
		observability.StreamSubscribers.Dec()
	}
	b.mu.Unlock()
}

func (b *Broadcaster) broadcast(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.send(ev)
}

// send fans ev out to every registered inbox. Callers must hold mu.
func (b *Broadcaster) send(ev Event) {
	for sub := range b.subs {
		select {
		case sub.C <- ev:
		default:
			// slow consumer: drop rather than stall the fan-out loop
		}
	}
}
