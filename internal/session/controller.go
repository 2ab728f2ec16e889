package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/rodortega/calcli/internal/api"
	"github.com/rodortega/calcli/internal/credentials"
	"github.com/rodortega/calcli/internal/gateway"
)

// AuthClient is the slice of the remote API the controller needs.
// Satisfied by api.Client.
type AuthClient interface {
	Login(ctx context.Context, email, password string) (api.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (api.TokenPair, error)
	Identity(ctx context.Context) (api.Identity, error)
}

// Controller orchestrates login, logout, refresh, and the post-login
// identity fetch. It is the only writer of State and the credential store.
type Controller struct {
	state *State
	store credentials.Store
	auth  AuthClient
}

func NewController(state *State, store credentials.Store, auth AuthClient) *Controller {
	return &Controller{state: state, store: store, auth: auth}
}

// Login authenticates with the remote service and, on success, resolves the
// organization id with a best-effort identity fetch. Identity failure is
// logged and swallowed: the primary authentication already succeeded.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	c.state.update(func(s *Snapshot) {
		s.Status = StatusAuthenticating
		s.LastError = ""
	})

	pair, err := c.auth.Login(ctx, email, password)
	if err != nil {
		authErr, msg := classifyAuthError(err, "Login failed")
		c.Logout()
		c.state.update(func(s *Snapshot) { s.LastError = msg })
		log.Warn().Str("email", email).Err(err).Msg("login rejected")
		return authErr
	}

	c.state.set(Snapshot{
		Status:       StatusAuthenticated,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
	c.persist()

	log.Info().Str("email", email).Msg("login succeeded")

	if ident, err := c.auth.Identity(ctx); err != nil {
		log.Warn().Err(err).Msg("identity fetch failed after login, continuing without organization id")
	} else {
		c.state.update(func(s *Snapshot) { s.OrganizationID = ident.OrganizationID })
		c.persist()
	}

	return nil
}

// Logout unconditionally resets the session to anonymous and erases the
// persisted credentials. Idempotent; never fails.
func (c *Controller) Logout() {
	c.state.set(Snapshot{Status: StatusAnonymous})

	if err := c.store.Erase(); err != nil {
		log.Warn().Err(err).Msg("failed to erase persisted credentials")
	}
}

// Refresh exchanges the held refresh token for a new pair. Refresh failure
// is unrecoverable for the current session: the state is cleared before the
// error is surfaced, so callers never observe a half-valid session.
func (c *Controller) Refresh(ctx context.Context) error {
	snap := c.state.Snapshot()
	if snap.RefreshToken == "" {
		c.Logout()
		return ErrNoSession
	}

	c.state.update(func(s *Snapshot) { s.Status = StatusRefreshing })

	pair, err := c.auth.Refresh(ctx, snap.RefreshToken)
	if err != nil {
		authErr, _ := classifyAuthError(err, "Session expired")
		c.Logout()
		log.Warn().Err(err).Msg("token refresh failed, session cleared")
		return authErr
	}

	c.state.update(func(s *Snapshot) {
		s.Status = StatusAuthenticated
		s.AccessToken = pair.AccessToken
		s.RefreshToken = pair.RefreshToken
	})
	c.persist()

	log.Debug().Msg("token pair refreshed")

	return nil
}

// ClearError clears only the user-facing error message.
func (c *Controller) ClearError() {
	c.state.update(func(s *Snapshot) { s.LastError = "" })
}

// SyncIdentity re-fetches the identity record on demand, for callers that
// want to fill in an organization id the post-login fetch failed to
// resolve. Does not change the session status.
func (c *Controller) SyncIdentity(ctx context.Context) error {
	ident, err := c.auth.Identity(ctx)
	if err != nil {
		return err
	}

	c.state.update(func(s *Snapshot) { s.OrganizationID = ident.OrganizationID })
	c.persist()

	return nil
}

// persist mirrors the current snapshot into the credential store. Store
// failures are logged, not surfaced: losing persistence degrades restart
// behavior, not the live session.
func (c *Controller) persist() {
	snap := c.state.Snapshot()
	rec := credentials.Record{
		AccessToken:    snap.AccessToken,
		RefreshToken:   snap.RefreshToken,
		OrganizationID: snap.OrganizationID,
	}
	if err := c.store.Write(rec); err != nil {
		log.Warn().Err(err).Msg("failed to persist credentials")
	}
}

// classifyAuthError maps a gateway failure onto the session error kinds.
// A 4xx rejection means the credentials were refused; anything without an
// interpretable response stays a network error.
func classifyAuthError(err error, fallback string) (error, string) {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = fallback
		}
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return fmt.Errorf("%w: %s", ErrInvalidCredentials, msg), msg
		}
		return err, msg
	}
	if errors.Is(err, gateway.ErrNetwork) {
		return err, fallback
	}
	return err, fallback
}

var _ gateway.SessionInvalidator = (*Controller)(nil)
var _ gateway.TokenSource = (*State)(nil)
