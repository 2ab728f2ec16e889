// Package apitest runs an in-process fake of the remote calendar service
// for tests: it mints real (signed, expiring) access tokens, rotates
// opaque refresh tokens, and serves the calendar endpoints with fixtures.
package apitest

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

const issuer = "h2s-api"

// Server is a fake remote calendar/CRM API.
type Server struct {
	httpSrv *httptest.Server

	// URL is the base URL clients should point at.
	URL string

	mu             sync.Mutex
	signingKey     []byte
	email          string
	password       string
	orgID          string
	accessTTL      time.Duration
	identityStatus int
	refreshTokens  map[string]struct{}
	events         map[string]map[string]any
	contacts       []map[string]any
	lastBearer     string
	loginCalls     int
	refreshCalls   int
	identityCalls  int
}

// Option configures the fake server.
type Option func(*Server)

// WithCredentials sets the accepted login. Default a@b.com / pw.
func WithCredentials(email, password string) Option {
	return func(s *Server) {
		s.email = email
		s.password = password
	}
}

// WithOrgID sets the organization id returned by /identity.
func WithOrgID(id string) Option {
	return func(s *Server) { s.orgID = id }
}

// WithAccessTTL controls access token lifetime. Default one hour.
func WithAccessTTL(ttl time.Duration) Option {
	return func(s *Server) { s.accessTTL = ttl }
}

// FailIdentity makes /identity answer with the given status.
func FailIdentity(status int) Option {
	return func(s *Server) { s.identityStatus = status }
}

// NewServer starts the fake service. Callers must Close it.
func NewServer(opts ...Option) *Server {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic(fmt.Sprintf("apitest: failed to generate signing key: %v", err))
	}

	s := &Server{
		signingKey:    key,
		email:         "a@b.com",
		password:      "pw",
		orgID:         "org-" + uuid.NewString(),
		accessTTL:     time.Hour,
		refreshTokens: make(map[string]struct{}),
		events:        make(map[string]map[string]any),
		contacts: []map[string]any{
			{"id": uuid.NewString(), "name": "Ada Estate", "email": "ada@example.com", "phone": "123"},
			{"id": uuid.NewString(), "name": "Bob Broker", "email": "bob@example.com"},
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login/brokers/email", s.handleLogin)
	mux.HandleFunc("POST /auth/refresh", s.handleRefresh)
	mux.HandleFunc("GET /identity", s.authenticated(s.handleIdentity))
	mux.HandleFunc("GET /calendar/events", s.authenticated(s.handleListEvents))
	mux.HandleFunc("POST /calendar/events", s.authenticated(s.handleCreateEvent))
	mux.HandleFunc("GET /calendar/events/{id}", s.authenticated(s.handleGetEvent))
	mux.HandleFunc("PUT /calendar/events/{id}", s.authenticated(s.handleUpdateEvent))
	mux.HandleFunc("DELETE /calendar/events/{id}", s.authenticated(s.handleDeleteEvent))
	mux.HandleFunc("GET /calendar/contacts/autocomplete", s.authenticated(s.handleContacts))

	s.httpSrv = httptest.NewServer(mux)
	s.URL = s.httpSrv.URL

	return s
}

func (s *Server) Close() {
	s.httpSrv.Close()
}

// IssuePair mints a valid token pair without a login call, for tests that
// preload a persisted session.
func (s *Server) IssuePair() (accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issuePairLocked()
}

// LastBearer returns the bearer token seen on the most recent
// authenticated endpoint hit.
func (s *Server) LastBearer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBearer
}

func (s *Server) LoginCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loginCalls
}

func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

func (s *Server) IdentityCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identityCalls
}

// SetIdentityStatus changes the /identity response status. Zero restores
// normal behavior.
func (s *Server) SetIdentityStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identityStatus = status
}

// RevokeRefreshTokens invalidates every outstanding refresh token, so the
// next refresh attempt is rejected.
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshTokens = make(map[string]struct{})
}

func (s *Server) issuePairLocked() (string, string) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   s.email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		ID:        uuid.NewString(),
	}

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		panic(fmt.Sprintf("apitest: failed to sign token: %v", err))
	}

	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		panic(fmt.Sprintf("apitest: failed to generate refresh token: %v", err))
	}
	refresh := base58.Encode(raw)
	s.refreshTokens[refresh] = struct{}{}

	return access, refresh
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginCalls++

	if body.Email != s.email || body.Password != s.password {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	access, refresh := s.issuePairLocked()
	writeJSON(w, http.StatusOK, map[string]string{
		"accessToken":  access,
		"refreshToken": refresh,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshCalls++

	if _, ok := s.refreshTokens[body.RefreshToken]; !ok {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	// Rotation: the presented token is spent.
	delete(s.refreshTokens, body.RefreshToken)

	access, refresh := s.issuePairLocked()
	writeJSON(w, http.StatusOK, map[string]string{
		"accessToken":  access,
		"refreshToken": refresh,
	})
}

// authenticated verifies the bearer token before invoking next.
func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		s.mu.Lock()
		s.lastBearer = token
		key := s.signingKey
		s.mu.Unlock()

		parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("unexpected signing method %v", t.Method)
			}
			return key, nil
		})
		if err != nil || !parsed.Valid {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next(w, r)
	}
}

func (s *Server) handleIdentity(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.identityCalls++
	status := s.identityStatus
	orgID := s.orgID
	s.mu.Unlock()

	if status != 0 {
		writeError(w, status, "identity unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"organizationId": orgID})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	events := make([]map[string]any, 0, len(s.events))
	for _, ev := range s.events {
		events = append(events, ev)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
		"range": map[string]string{
			"start": r.URL.Query().Get("start"),
			"end":   r.URL.Query().Get("end"),
		},
	})
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var event map[string]any
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	now := time.Now().UTC().Format(time.RFC3339)
	event["id"] = uuid.NewString()
	event["createdAt"] = now
	event["updatedAt"] = now
	event["isException"] = false

	s.mu.Lock()
	s.events[event["id"].(string)] = event
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, event)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	event, ok := s.events[r.PathValue("id")]
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	s.mu.Lock()
	event, ok := s.events[r.PathValue("id")]
	if ok {
		for k, v := range patch {
			event[k] = v
		}
		event["updatedAt"] = time.Now().UTC().Format(time.RFC3339)
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	_, ok := s.events[r.PathValue("id")]
	delete(s.events, r.PathValue("id"))
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleContacts(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(r.URL.Query().Get("query"))

	s.mu.Lock()
	matches := make([]map[string]any, 0, len(s.contacts))
	for _, c := range s.contacts {
		name, _ := c["name"].(string)
		if query == "" || strings.Contains(strings.ToLower(name), query) {
			matches = append(matches, c)
		}
	}
	s.mu.Unlock()

	w.Header().Set("Cache-Control", "max-age=60")
	writeJSON(w, http.StatusOK, matches)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
