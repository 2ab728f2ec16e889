package api

import (
	"encoding/json"
	"time"
)

// TokenPair is returned by the login and refresh endpoints.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Identity is the post-login identity record. The server may return more;
// only the organization id matters to this client.
type Identity struct {
	OrganizationID string `json:"organizationId"`
}

// EventsResponse is the paginated event listing.
type EventsResponse struct {
	Events []CalendarEvent `json:"events"`
	Count  int             `json:"count"`
	Range  EventRange      `json:"range"`
}

type EventRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// CalendarEvent mirrors the server's event shape. The recurrence rule is
// carried as opaque data; the client never expands occurrences.
type CalendarEvent struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	StartDate      time.Time       `json:"startDate"`
	EndDate        time.Time       `json:"endDate"`
	AllDay         bool            `json:"allDay,omitempty"`
	Visibility     string          `json:"visibility"`
	IsRecurring    bool            `json:"isRecurring"`
	RecurrenceRule json.RawMessage `json:"recurrenceRule,omitempty"`
	Description    string          `json:"description,omitempty"`
	Location       string          `json:"location,omitempty"`
	Participants   []Participant   `json:"participants"`
	Reminders      []Reminder      `json:"reminders"`
	LinkedContacts []LinkedContact `json:"linkedContacts"`
	LinkedEstates  []LinkedEstate  `json:"linkedEstates"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	IsException    bool            `json:"isException"`
	ExceptionType  string          `json:"exceptionType,omitempty"`
}

type Participant struct {
	ID      string  `json:"id"`
	Role    string  `json:"role"`   // creator, guest, organizer
	Status  string  `json:"status"` // pending, accepted, declined
	Contact Contact `json:"contact"`
}

type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type Reminder struct {
	MinutesBefore int    `json:"minutesBefore"`
	Type          string `json:"type"` // email, push, both
	Sent          bool   `json:"sent"`
}

type LinkedContact struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type LinkedEstate struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// CreateEventInput is the payload for creating an event.
type CreateEventInput struct {
	Title          string          `json:"title"`
	StartDate      time.Time       `json:"startDate"`
	EndDate        time.Time       `json:"endDate"`
	AllDay         bool            `json:"allDay,omitempty"`
	Visibility     string          `json:"visibility"`
	IsRecurring    bool            `json:"isRecurring"`
	RecurrenceRule json.RawMessage `json:"recurrenceRule,omitempty"`
	Description    string          `json:"description,omitempty"`
	Location       string          `json:"location,omitempty"`
	ParticipantIDs []string        `json:"participantIds,omitempty"`
	Reminders      []Reminder      `json:"reminders,omitempty"`
	ContactIDs     []string        `json:"contactIds,omitempty"`
	EstateIDs      []string        `json:"estateIds,omitempty"`
}

// UpdateEventInput is a partial update; nil fields are left untouched by
// the server.
type UpdateEventInput struct {
	Title          *string         `json:"title,omitempty"`
	StartDate      *time.Time      `json:"startDate,omitempty"`
	EndDate        *time.Time      `json:"endDate,omitempty"`
	AllDay         *bool           `json:"allDay,omitempty"`
	Visibility     *string         `json:"visibility,omitempty"`
	IsRecurring    *bool           `json:"isRecurring,omitempty"`
	RecurrenceRule json.RawMessage `json:"recurrenceRule,omitempty"`
	Description    *string         `json:"description,omitempty"`
	Location       *string         `json:"location,omitempty"`
}
