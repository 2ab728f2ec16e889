package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	mu    sync.Mutex
	token string
}

func (s *staticTokens) AccessToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

func (s *staticTokens) set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

type recordingInvalidator struct {
	mu     sync.Mutex
	calls  int
	onCall func()
}

func (r *recordingInvalidator) Logout() {
	r.mu.Lock()
	r.calls++
	fn := r.onCall
	r.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (r *recordingInvalidator) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func newGateway(t *testing.T, baseURL string, tokens TokenSource) *Gateway {
	t.Helper()
	gw, err := New(Config{BaseURL: baseURL}, tokens)
	require.NoError(t, err)
	return gw
}

func TestGateway_Signing(t *testing.T) {
	t.Run("attaches bearer token when present", func(t *testing.T) {
		var gotAuth, gotRequestID, gotUA string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotRequestID = r.Header.Get("X-Request-Id")
			gotUA = r.Header.Get("User-Agent")
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		gw := newGateway(t, srv.URL, &staticTokens{token: "T1"})
		require.NoError(t, gw.Get(context.Background(), "/anything", nil, nil))

		assert.Equal(t, "Bearer T1", gotAuth)
		assert.NotEmpty(t, gotRequestID)
		assert.Equal(t, "calcli/1.0.0", gotUA)
	})

	t.Run("sends request unauthenticated when no token is held", func(t *testing.T) {
		var gotAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		gw := newGateway(t, srv.URL, &staticTokens{})
		require.NoError(t, gw.Get(context.Background(), "/anything", nil, nil))

		assert.Empty(t, gotAuth)
	})

	t.Run("reads the token at dispatch time", func(t *testing.T) {
		var seen []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = append(seen, r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		tokens := &staticTokens{token: "T1"}
		gw := newGateway(t, srv.URL, tokens)

		require.NoError(t, gw.Get(context.Background(), "/a", nil, nil))
		tokens.set("T2")
		require.NoError(t, gw.Get(context.Background(), "/b", nil, nil))

		assert.Equal(t, []string{"Bearer T1", "Bearer T2"}, seen)
	})
}

func TestGateway_Unauthorized(t *testing.T) {
	t.Run("401 invalidates the session before the error is returned", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"token expired"}`))
		}))
		defer srv.Close()

		tokens := &staticTokens{token: "stale"}
		inv := &recordingInvalidator{}
		loggedOutBeforeReturn := false
		inv.onCall = func() {
			tokens.set("")
			loggedOutBeforeReturn = true
		}

		gw := newGateway(t, srv.URL, tokens)
		gw.BindInvalidator(inv)

		err := gw.Get(context.Background(), "/calendar/events", nil, nil)
		require.Error(t, err)

		assert.True(t, errors.Is(err, ErrUnauthorized))
		assert.True(t, loggedOutBeforeReturn)
		assert.Equal(t, 1, inv.count())

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.Equal(t, "token expired", apiErr.Message)
	})

	t.Run("the original request is not retried", func(t *testing.T) {
		hits := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		gw := newGateway(t, srv.URL, &staticTokens{token: "stale"})
		gw.BindInvalidator(&recordingInvalidator{})

		err := gw.Get(context.Background(), "/x", nil, nil)
		require.Error(t, err)
		assert.Equal(t, 1, hits)
	})

	t.Run("unbound invalidator is tolerated", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		gw := newGateway(t, srv.URL, &staticTokens{token: "stale"})

		err := gw.Get(context.Background(), "/x", nil, nil)
		assert.True(t, errors.Is(err, ErrUnauthorized))
	})
}

func TestGateway_OtherStatuses(t *testing.T) {
	t.Run("non-401 errors pass through uninterpreted", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"message":"boom"}`))
		}))
		defer srv.Close()

		inv := &recordingInvalidator{}
		gw := newGateway(t, srv.URL, &staticTokens{token: "T1"})
		gw.BindInvalidator(inv)

		err := gw.Get(context.Background(), "/x", nil, nil)
		require.Error(t, err)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
		assert.Equal(t, "boom", apiErr.Message)
		assert.False(t, errors.Is(err, ErrUnauthorized))
		assert.Equal(t, 0, inv.count())
	})

	t.Run("transport failure wraps ErrNetwork", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		gw := newGateway(t, srv.URL, &staticTokens{})
		err := gw.Get(context.Background(), "/x", nil, nil)
		assert.True(t, errors.Is(err, ErrNetwork))
	})
}

func TestGateway_Payloads(t *testing.T) {
	t.Run("encodes body and decodes response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var in map[string]string
			require.NoError(t, jsonDecode(r, &in))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"echo":"` + in["hello"] + `"}`))
		}))
		defer srv.Close()

		gw := newGateway(t, srv.URL, &staticTokens{})

		var out struct {
			Echo string `json:"echo"`
		}
		err := gw.Post(context.Background(), "/echo", map[string]string{"hello": "world"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "world", out.Echo)
	})

	t.Run("encodes query parameters", func(t *testing.T) {
		var gotQuery url.Values
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query()
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		gw := newGateway(t, srv.URL, &staticTokens{})
		query := url.Values{}
		query.Set("start", "2026-01-01T00:00:00Z")
		require.NoError(t, gw.Get(context.Background(), "/calendar/events", query, nil))

		assert.Equal(t, "2026-01-01T00:00:00Z", gotQuery.Get("start"))
	})

	t.Run("tolerates empty response bodies", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		gw := newGateway(t, srv.URL, &staticTokens{})
		assert.NoError(t, gw.Delete(context.Background(), "/calendar/events/123"))
	})
}

func jsonDecode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
