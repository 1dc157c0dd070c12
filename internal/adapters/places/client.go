// internal/adapters/places/client.go
package places

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Sudo-psc/saraivavision-site-v2-sub001/internal/adapters/observability"
	"github.com/Sudo-psc/saraivavision-site-v2-sub001/internal/domain"
)

const defaultBase = "https://maps.googleapis.com/maps/api/place"

// Fields requested from the Details endpoint; everything the payload
// assembler consumes and nothing more.
const detailFields = "reviews,rating,user_ratings_total"

type Client struct {
	base    string
	hc      *http.Client
	key     string
	placeID string
	rl      *rate.Limiter
}

func New(base, key, placeID string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if placeID == "" {
		return nil, fmt.Errorf("place ID is required")
	}
	if base == "" {
		base = defaultBase
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:    strings.TrimRight(base, "/"),
		hc:      &http.Client{Timeout: 20 * time.Second},
		key:     key,
		placeID: placeID,
		rl:      rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// PlaceDetails fetches the reviews/rating block for the configured place.
// A non-"OK" status field decodes fine here; classifying it is the payload
// assembler's job. Only transport-level failures surface as errors.
func (c *Client) PlaceDetails(ctx context.Context) (domain.ProviderResponse, error) {
	q := url.Values{}
	q.Set("place_id", c.placeID)
	q.Set("fields", detailFields)
	q.Set("reviews_sort", "newest")
	q.Set("language", "pt-BR")
	q.Set("key", c.key)

	var out domain.ProviderResponse
	if err := c.get(ctx, c.base+"/details/json?"+q.Encode(), &out); err != nil {
		return domain.ProviderResponse{}, &domain.NetworkError{Err: err}
	}
	return out, nil
}

// get performs a GET with client-side rate limiting, retries, and JSON decode
// into out. Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, u string, out any) error {
	// client-side rate limiting
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "saraivavision-reviews/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			// network error or context canceled
			if ctx.Err() != nil {
				return ctx.Err()
			}
			observability.ObserveExternal("places", "details", 0, time.Since(start))
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("places", "details", resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			// decode then close
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			// read a small error body for diagnostics
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	// seconds form
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	// HTTP-date form
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential backoff delay with concurrency-safe jitter.
// i = retry attempt (0,1,2,...). Base doubles each attempt (200ms, 400ms, 800ms...),
// with up to +50% random jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	// concurrency-safe jitter using crypto/rand
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0                  // 0..1
	j := time.Duration(0.5 * f * float64(base)) // up to +50%
	return base + j
}
