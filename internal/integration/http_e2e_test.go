//go:build integration || !unit

package integration

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	httpserver "github.com/Sudo-psc/saraivavision-site-v2-sub001/internal/adapters/http_server"
	"github.com/Sudo-psc/saraivavision-site-v2-sub001/internal/adapters/places"
	"github.com/Sudo-psc/saraivavision-site-v2-sub001/internal/app"
	"github.com/Sudo-psc/saraivavision-site-v2-sub001/internal/domain"
	"github.com/Sudo-psc/saraivavision-site-v2-sub001/internal/shared"
)

// fakeProvider is a scriptable stand-in for the Places Details endpoint.
type fakeProvider struct {
	mu   sync.Mutex
	body map[string]any
}

func (f *fakeProvider) set(body map[string]any) {
	f.mu.Lock()
	f.body = body
	f.mu.Unlock()
}

func (f *fakeProvider) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/details/json") {
			http.NotFound(w, r)
			return
		}
		f.mu.Lock()
		body := f.body
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	})
}

func providerOK(text string) map[string]any {
	return map[string]any{
		"status": "OK",
		"result": map[string]any{
			"rating":             4.0,
			"user_ratings_total": 50,
			"reviews": []map[string]any{
				{
					"author_name":               "",
					"rating":                    3,
					"text":                      text,
					"relative_time_description": "1 week ago",
				},
			},
		},
	}
}

// wires the whole service against the fake provider over real HTTP
func startStack(t *testing.T, prov *fakeProvider) *httptest.Server {
	t.Helper()
	upstream := httptest.NewServer(prov.handler())
	t.Cleanup(upstream.Close)

	cfg := shared.Config{
		AppEnv:            "test",
		PlacesKey:         "test-key",
		PlaceID:           "test-place",
		PlacesBase:        upstream.URL,
		FetchInterval:     25 * time.Millisecond,
		HeartbeatInterval: 10 * time.Second,
	}
	client, err := places.New(cfg.PlacesBase, cfg.PlacesKey, cfg.PlaceID, 100)
	if err != nil {
		t.Fatalf("places.New: %v", err)
	}
	svc := app.NewService(client)
	hub := app.NewBroadcaster(svc, cfg.FetchInterval)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { _ = hub.Run(ctx); close(done) }()

	srv := httpserver.New()
	srv.MountHandlers(&httpserver.Handlers{Cfg: cfg, Svc: svc, Hub: hub})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(func() {
		ts.Close()
		cancel()
		<-done
	})
	return ts
}

func TestEndToEnd_SnapshotRedactionAndRevalidation(t *testing.T) {
	prov := &fakeProvider{}
	prov.set(providerOK("Tratou minha retinopatia diabética."))
	ts := startStack(t, prov)

	resp, err := http.Get(ts.URL + "/reviews")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var payload domain.ReviewPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := domain.SanitizedReview{
		ID:           0,
		Author:       "Paciente",
		Rating:       3,
		Text:         "Tratou minha [termo clínico].",
		RelativeTime: "1 week ago",
	}
	if len(payload.Reviews) != 1 || payload.Reviews[0] != want {
		t.Fatalf("Reviews[0] = %+v, want %+v", payload.Reviews[0], want)
	}
	if payload.Total != 50 || payload.Rating == nil || *payload.Rating != 4.0 {
		t.Fatalf("aggregates: %+v", payload)
	}

	// revalidation round-trip against the same provider data
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/reviews", nil)
	req.Header.Set("If-None-Match", resp.Header.Get("ETag"))
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("conditional GET: %v", err)
	}
	body, _ := io.ReadAll(resp2.Body)
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotModified || len(body) != 0 {
		t.Fatalf("want empty 304, got %d with %q", resp2.StatusCode, body)
	}
}

func TestEndToEnd_ProviderDenialSurfacesMessage(t *testing.T) {
	prov := &fakeProvider{}
	prov.set(map[string]any{"status": "REQUEST_DENIED", "error_message": "API key not valid"})
	ts := startStack(t, prov)

	resp, err := http.Get(ts.URL + "/reviews")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message != "API key not valid" {
		t.Fatalf("message = %q", body.Message)
	}
}

func TestEndToEnd_StreamFollowsProviderChanges(t *testing.T) {
	prov := &fakeProvider{}
	prov.set(providerOK("Consulta tranquila."))
	ts := startStack(t, prov)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/reviews", nil)
	req.Header.Set("Accept", "text/event-stream")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()

	br := bufio.NewReader(resp.Body)
	readFrame := func() (string, string) {
		var name, data string
		for {
			line, err := br.ReadString('\n')
			if err != nil {
				t.Fatalf("read frame: %v", err)
			}
			line = strings.TrimRight(line, "\r\n")
			switch {
			case line == "":
				if name != "" || data != "" {
					return name, data
				}
			case strings.HasPrefix(line, "event: "):
				name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			}
		}
	}

	name, data := readFrame()
	if name != "update" || !strings.Contains(data, "Consulta tranquila.") {
		t.Fatalf("first frame = (%q, %s)", name, data)
	}

	prov.set(providerOK("Retorno em seis meses."))
	name, data = readFrame()
	if name != "update" || !strings.Contains(data, "Retorno em seis meses.") {
		t.Fatalf("second frame = (%q, %s)", name, data)
	}
}
