package domain

import "time"

// Event is a client-side flow event (registration step change, login, SOS, ...).
// It never carries credentials, PINs or email addresses.
type Event struct {
	EventType string
	Source    string
	SessionID string // registration session or empty
	UserID    string // token subject once logged in; empty before
	Step      string
	Attrs     map[string]string
	CreatedAt time.Time
}
