package observability_test

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Sudo-psc/saraivavision-site-v2-sub001/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record one sample so counters are non-zero
	observability.ObserveHTTP("/reviews", "GET", 200, 12*time.Millisecond)
	observability.ObserveStreamEvent("update")

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	if !strings.Contains(out, "saraiva_http_requests_total") {
		t.Fatalf("expected saraiva_http_requests_total in output")
	}
	if !strings.Contains(out, "saraiva_stream_events_total") {
		t.Fatalf("expected saraiva_stream_events_total in output")
	}
}

func TestServe_ExposesConfiguredRegistryOnConfiguredAddr(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	reg := observability.InitRegistry()
	observability.ObserveHTTP("/reviews", "GET", 200, time.Millisecond)
	observability.Serve(addr, reg)

	// the listener comes up asynchronously
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + addr + "/metrics")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("metrics server never came up on %s: %v", addr, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status: %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "saraiva_http_requests_total") {
		t.Fatalf("standalone metrics server missing saraiva_http_requests_total")
	}
}
