// Package gateway is the single chokepoint for calls to the remote calendar
// API. It signs outgoing requests with the current access token and reacts
// to authentication failure; individual call sites never see tokens.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Sentinel errors
var (
	// ErrUnauthorized is returned when the remote service rejects a
	// dispatched request with a 401.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNetwork is returned for transport-level failures with no
	// interpretable response.
	ErrNetwork = errors.New("network error")
)

// APIError is a non-2xx response from the remote service. The gateway
// decodes the server's message envelope but does not interpret statuses
// other than 401.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error: status %d", e.StatusCode)
}

// Unwrap maps 401 responses onto ErrUnauthorized so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// TokenSource provides the access token attached to outbound requests.
// Implemented by session.State.
type TokenSource interface {
	AccessToken() (string, bool)
}

// SessionInvalidator is the single capability the gateway holds over the
// session: tearing it down after a 401. Implemented by session.Controller.
type SessionInvalidator interface {
	Logout()
}

// Config holds gateway configuration.
type Config struct {
	BaseURL        string
	UserAgent      string
	AcceptLanguage string

	// HTTPClient is the underlying transport. Timeout and retry policy
	// belong to it, not to the gateway. Defaults to a client with a
	// 30 second timeout.
	HTTPClient *http.Client
}

// Gateway routes every outbound request to the remote service.
type Gateway struct {
	httpClient     *http.Client
	baseURL        *url.URL
	userAgent      string
	acceptLanguage string
	tokens         TokenSource

	mu          sync.RWMutex
	invalidator SessionInvalidator
}

// New creates a gateway. The invalidator is bound separately with
// BindInvalidator because the session controller is constructed on top of
// clients that already need the gateway.
func New(cfg Config, tokens TokenSource) (*Gateway, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "calcli/1.0.0"
	}

	acceptLanguage := cfg.AcceptLanguage
	if acceptLanguage == "" {
		acceptLanguage = "en"
	}

	return &Gateway{
		httpClient:     httpClient,
		baseURL:        base,
		userAgent:      userAgent,
		acceptLanguage: acceptLanguage,
		tokens:         tokens,
	}, nil
}

// BindInvalidator installs the logout capability invoked on 401 responses.
func (g *Gateway) BindInvalidator(inv SessionInvalidator) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.invalidator = inv
}

func (g *Gateway) Get(ctx context.Context, path string, query url.Values, out any) error {
	return g.Do(ctx, http.MethodGet, path, query, nil, out)
}

func (g *Gateway) Post(ctx context.Context, path string, body, out any) error {
	return g.Do(ctx, http.MethodPost, path, nil, body, out)
}

func (g *Gateway) Put(ctx context.Context, path string, body, out any) error {
	return g.Do(ctx, http.MethodPut, path, nil, body, out)
}

func (g *Gateway) Delete(ctx context.Context, path string) error {
	return g.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// Do dispatches one request. body and out are JSON-encoded/decoded when
// non-nil. The access token is read once, at dispatch time; a refresh or
// logout completing later does not re-sign a request already sent.
func (g *Gateway) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := g.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", g.acceptLanguage)
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("X-Request-Id", requestID)

	// An absent token is not an error here; the request goes out
	// unauthenticated and the server decides.
	if token, ok := g.tokens.AccessToken(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		log.Debug().
			Str("method", method).
			Str("path", path).
			Str("requestId", requestID).
			Err(err).
			Msg("request transport failure")
		return fmt.Errorf("%w: %s %s: %v", ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s %s: reading response: %v", ErrNetwork, method, path, err)
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Str("requestId", requestID).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(started)).
		Msg("request")

	if resp.StatusCode == http.StatusUnauthorized {
		// Any 401 from an API that carried our token means the token is
		// no longer valid for any purpose. Tear the session down before
		// the caller sees the error. One shot; the request is not retried.
		g.invalidate(method, path)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    decodeMessage(data),
			RequestID:  requestID,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    decodeMessage(data),
			RequestID:  requestID,
		}
	}

	if out != nil && len(data) > 0 && resp.StatusCode != http.StatusNoContent {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response for %s %s: %w", method, path, err)
		}
	}

	return nil
}

func (g *Gateway) invalidate(method, path string) {
	g.mu.RLock()
	inv := g.invalidator
	g.mu.RUnlock()

	if inv == nil {
		return
	}

	log.Info().
		Str("method", method).
		Str("path", path).
		Msg("request rejected with 401, clearing session")

	inv.Logout()
}

func decodeMessage(data []byte) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return ""
	}
	return envelope.Message
}
