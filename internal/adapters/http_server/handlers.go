// internal/adapters/http_server/handlers.go
package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Sudo-psc/saraivavision-site-v2-sub001/internal/app"
	"github.com/Sudo-psc/saraivavision-site-v2-sub001/internal/shared"
)

type Handlers struct {
	Cfg shared.Config
	Svc *app.Service
	Hub *app.Broadcaster
}

// credentialsProblem is the 500 body when the process started without
// provider credentials; the details say which one is absent.
type credentialsProblem struct {
	Error   string             `json:"error"`
	Details credentialsDetails `json:"details"`
}

type credentialsDetails struct {
	HasAPIKey  bool `json:"hasApiKey"`
	HasPlaceID bool `json:"hasPlaceId"`
}

// errorEnvelope is the 500 body for fetch/assembly failures.
type errorEnvelope struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.MethodNotAllowed(methodNotAllowed)
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/reviews", h.getReviews)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodGet)
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// wantsStream classifies a request as streaming: an Accept header naming the
// event-stream media type, or the stream=1 query flag.
func wantsStream(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		return true
	}
	return r.URL.Query().Get("stream") == "1"
}

func (h *Handlers) getReviews(w http.ResponseWriter, r *http.Request) {
	if !h.Cfg.HasCredentials() {
		writeJSON(w, http.StatusInternalServerError, credentialsProblem{
			Error: "Missing server credentials",
			Details: credentialsDetails{
				HasAPIKey:  h.Cfg.PlacesKey != "",
				HasPlaceID: h.Cfg.PlaceID != "",
			},
		})
		return
	}
	if wantsStream(r) {
		h.streamReviews(w, r)
		return
	}
	h.snapshotReviews(w, r)
}

func (h *Handlers) snapshotReviews(w http.ResponseWriter, r *http.Request) {
	payload, etag, err := h.Svc.Snapshot(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("snapshot fetch failed")
		writeJSON(w, http.StatusInternalServerError, errorEnvelope{
			Error:     "Internal server error",
			Message:   err.Error(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	// If client already has this version, short-circuit. The 304 reuses the
	// client's cached representation, so no ETag/Cache-Control is re-emitted.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("marshal payload failed")
		writeJSON(w, http.StatusInternalServerError, errorEnvelope{
			Error:     "Internal server error",
			Message:   err.Error(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Header().Set("X-Data-Policy", "anonymized")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write snapshot body")
	}
}
