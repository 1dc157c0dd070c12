// internal/adapters/http_server/stream.go
package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Sudo-psc/saraivavision-site-v2-sub001/internal/adapters/observability"
	"github.com/Sudo-psc/saraivavision-site-v2-sub001/internal/app"
)

// A stream connection moves through exactly three states; cleanup is the
// single connecting/streaming → closed transition in streamReviews' defers.
type connState int

const (
	stateConnecting connState = iota
	stateStreaming
	stateClosed
)

type streamConn struct {
	w     http.ResponseWriter
	fl    http.Flusher
	state connState
}

func newStreamConn(w http.ResponseWriter) (*streamConn, error) {
	fl, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support streaming")
	}
	return &streamConn{w: w, fl: fl, state: stateConnecting}, nil
}

// open emits the streaming preamble: no caching, no proxy buffering, a
// long-lived connection.
func (c *streamConn) open() {
	h := c.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache, no-transform")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.w.WriteHeader(http.StatusOK)
	c.fl.Flush()
	c.state = stateStreaming
}

func (c *streamConn) writeEvent(ev app.Event) error {
	if c.state != stateStreaming {
		return nil
	}
	if _, err := fmt.Fprintf(c.w, "event: %s\ndata: %s\n\n", ev.Name, ev.Data); err != nil {
		return err
	}
	c.fl.Flush()
	observability.ObserveStreamEvent(ev.Name)
	return nil
}

// heartbeat writes a comment-only frame; payload-free, it exists solely to
// defeat idle-connection timeouts on intermediaries.
func (c *streamConn) heartbeat() error {
	if c.state != stateStreaming {
		return nil
	}
	if _, err := fmt.Fprint(c.w, ": ping\n\n"); err != nil {
		return err
	}
	c.fl.Flush()
	observability.ObserveStreamEvent("heartbeat")
	return nil
}

func (c *streamConn) close() { c.state = stateClosed }

// streamReviews serves one SSE subscriber. The first event is always an
// unconditional "update" (or an "error" if the initial fetch fails); after
// that the connection relays hub events and its own heartbeats until the
// client disconnects. Fetch errors never tear the connection down.
func (h *Handlers) streamReviews(w http.ResponseWriter, r *http.Request) {
	conn, err := newStreamConn(w)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorEnvelope{
			Error:     "Internal server error",
			Message:   err.Error(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	conn.open()
	defer conn.close()

	sub, first := h.Hub.Subscribe(r.Context())
	defer h.Hub.Unsubscribe(sub)
	log.Debug().Str("remote", remoteIP(r)).Msg("stream subscriber connected")

	if err := conn.writeEvent(first); err != nil {
		return
	}

	hb := time.NewTicker(h.Cfg.HeartbeatInterval)
	defer hb.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Str("remote", remoteIP(r)).Msg("stream subscriber disconnected")
			return
		case <-hb.C:
			if err := conn.heartbeat(); err != nil {
				return
			}
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if err := conn.writeEvent(ev); err != nil {
				return
			}
		}
	}
}
