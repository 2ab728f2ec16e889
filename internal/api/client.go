// Package api wraps the remote calendar/CRM endpoints in typed calls.
// Every request is routed through the gateway; nothing here touches
// tokens or session state.
package api

import (
	"context"
	"net/url"
	"time"
)

// Doer is the slice of the gateway this client needs.
type Doer interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
}

// Client calls the remote calendar service.
type Client struct {
	gw Doer
}

func NewClient(gw Doer) *Client {
	return &Client{gw: gw}
}

// Login exchanges broker credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (TokenPair, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var pair TokenPair
	if err := c.gw.Post(ctx, "/login/brokers/email", body, &pair); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	body := struct {
		RefreshToken string `json:"refreshToken"`
	}{RefreshToken: refreshToken}

	var pair TokenPair
	if err := c.gw.Post(ctx, "/auth/refresh", body, &pair); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

// Identity fetches the authenticated identity record.
func (c *Client) Identity(ctx context.Context) (Identity, error) {
	var ident Identity
	if err := c.gw.Get(ctx, "/identity", nil, &ident); err != nil {
		return Identity{}, err
	}
	return ident, nil
}

// ListEvents returns events within [start, end].
func (c *Client) ListEvents(ctx context.Context, start, end time.Time) (EventsResponse, error) {
	query := url.Values{}
	query.Set("start", start.Format(time.RFC3339))
	query.Set("end", end.Format(time.RFC3339))

	var resp EventsResponse
	if err := c.gw.Get(ctx, "/calendar/events", query, &resp); err != nil {
		return EventsResponse{}, err
	}
	return resp, nil
}

func (c *Client) GetEvent(ctx context.Context, id string) (CalendarEvent, error) {
	var event CalendarEvent
	if err := c.gw.Get(ctx, "/calendar/events/"+id, nil, &event); err != nil {
		return CalendarEvent{}, err
	}
	return event, nil
}

func (c *Client) CreateEvent(ctx context.Context, input CreateEventInput) (CalendarEvent, error) {
	var event CalendarEvent
	if err := c.gw.Post(ctx, "/calendar/events", input, &event); err != nil {
		return CalendarEvent{}, err
	}
	return event, nil
}

func (c *Client) UpdateEvent(ctx context.Context, id string, input UpdateEventInput) (CalendarEvent, error) {
	var event CalendarEvent
	if err := c.gw.Put(ctx, "/calendar/events/"+id, input, &event); err != nil {
		return CalendarEvent{}, err
	}
	return event, nil
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.gw.Delete(ctx, "/calendar/events/"+id)
}

// AutocompleteContacts searches contacts for participant pickers.
func (c *Client) AutocompleteContacts(ctx context.Context, search string) ([]Contact, error) {
	query := url.Values{}
	if search != "" {
		query.Set("query", search)
	}

	var contacts []Contact
	if err := c.gw.Get(ctx, "/calendar/contacts/autocomplete", query, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}
