// Package domain holds the registration flow's step, field and session types.
package domain

import "time"

// Step is the registration step. Steps only move forward.
type Step int

const (
	StepCollectEmail Step = iota
	StepAwaitingPin
	StepCreatingPassword
	StepSubmitted
)

func (s Step) String() string {
	switch s {
	case StepCollectEmail:
		return "collect_email"
	case StepAwaitingPin:
		return "awaiting_pin"
	case StepCreatingPassword:
		return "creating_password"
	case StepSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// Field names an inline error slot.
type Field string

const (
	FieldEmail       Field = "email"
	FieldPin         Field = "pin"
	FieldUsername    Field = "username"
	FieldPassword    Field = "password"
	FieldDateOfBirth Field = "dateOfBirth"
	FieldGeneral     Field = "general"
)

// MaxResends is the per-session resend cap.
const MaxResends = 3

// PinLifetime is how long an issued PIN is shown as valid.
const PinLifetime = 600 * time.Second

// Session is a read-only snapshot of a registration session.
type Session struct {
	ID          string
	Email       string
	Step        Step
	ResendCount int
	// PinDeadline is zero when no PIN is outstanding.
	PinDeadline time.Time
}

// ResendsLeft returns how many resends the session still allows.
func (s Session) ResendsLeft() int {
	if s.ResendCount >= MaxResends {
		return 0
	}
	return MaxResends - s.ResendCount
}
