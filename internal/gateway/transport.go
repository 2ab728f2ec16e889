package gateway

import (
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
	"github.com/rs/zerolog/log"
)

// RetryTransport retries transport-level failures for idempotent requests
// with exponential backoff. Responses, including 5xx, pass through without
// retry: the session core never retries interpreted failures, only the
// transport may re-dial.
type RetryTransport struct {
	// Base is the wrapped transport. Defaults to http.DefaultTransport.
	Base http.RoundTripper

	// MaxTries caps attempts per request. Defaults to 3.
	MaxTries uint

	// InitialInterval is the first retry delay. Defaults to 500ms.
	InitialInterval time.Duration
}

var _ http.RoundTripper = (*RetryTransport)(nil)

func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	// Only bodyless idempotent requests are safe to re-dispatch; the body
	// reader of anything else has already been consumed by the first attempt.
	if req.Body != nil || !idempotent(req.Method) {
		return base.RoundTrip(req)
	}

	maxTries := t.MaxTries
	if maxTries == 0 {
		maxTries = 3
	}

	expo := backoff.NewExponentialBackOff()
	if t.InitialInterval > 0 {
		expo.InitialInterval = t.InitialInterval
	}

	attempt := 0
	return backoff.Retry(req.Context(), func() (*http.Response, error) {
		attempt++
		resp, err := base.RoundTrip(req)
		if err != nil {
			log.Debug().
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Int("attempt", attempt).
				Err(err).
				Msg("transport failure, will retry")
			return nil, err
		}
		return resp, nil
	}, backoff.WithBackOff(expo), backoff.WithMaxTries(maxTries))
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		return true
	default:
		return false
	}
}

// NewCachingHTTPClient creates an HTTP client with disk-based response
// caching, used for endpoints that serve Cache-Control headers
// (e.g. contacts autocomplete). An empty cacheDir falls back to memory.
func NewCachingHTTPClient(cacheDir string, timeout time.Duration) *http.Client {
	if cacheDir == "" {
		return &http.Client{
			Transport: httpcache.NewTransport(httpcache.NewMemoryCache()),
			Timeout:   timeout,
		}
	}

	cache := diskcache.New(cacheDir)
	return &http.Client{
		Transport: httpcache.NewTransport(cache),
		Timeout:   timeout,
	}
}
