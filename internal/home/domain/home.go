package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Profile is the signed-in user's profile as returned by GET /api/user/profile.
// The server has used both "email"/"mail" and "emailVerified"/"isEmailVerified" spellings.
type Profile struct {
	ID              int64  `json:"id"`
	Username        string `json:"username"`
	EmailField      string `json:"email,omitempty"`
	MailField       string `json:"mail,omitempty"`
	DateOfBirth     string `json:"dateOfBirth,omitempty"`
	Enabled         bool   `json:"enabled"`
	EmailVerified   *bool  `json:"emailVerified,omitempty"`
	IsEmailVerified *bool  `json:"isEmailVerified,omitempty"`
	CreatedAt       string `json:"createdAt,omitempty"`
}

// createdLayouts covers RFC 3339 and the zone-less timestamps the server emits.
var createdLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02"}

// Created parses CreatedAt. ok is false when it is empty or unrecognised.
func (p *Profile) Created() (time.Time, bool) {
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, p.CreatedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Email returns whichever email spelling the server sent.
func (p *Profile) Email() string {
	if p.EmailField != "" {
		return p.EmailField
	}
	return p.MailField
}

// Verified reports email verification, preferring emailVerified over isEmailVerified.
func (p *Profile) Verified() bool {
	if p.EmailVerified != nil {
		return *p.EmailVerified
	}
	if p.IsEmailVerified != nil {
		return *p.IsEmailVerified
	}
	return false
}

// ContactType is the relationship of a trusted contact.
type ContactType string

const (
	ContactTypeFamily           ContactType = "FAMILY"
	ContactTypeFriend           ContactType = "FRIEND"
	ContactTypeEmergencyContact ContactType = "EMERGENCY_CONTACT"
	ContactTypeNeighbor         ContactType = "NEIGHBOR"
	ContactTypeColleague        ContactType = "COLLEAGUE"
	ContactTypeOther            ContactType = "OTHER"
)

var contactTypeNames = map[ContactType]string{
	ContactTypeFamily:           "Family",
	ContactTypeFriend:           "Friend",
	ContactTypeEmergencyContact: "Emergency Contact",
	ContactTypeNeighbor:         "Neighbor",
	ContactTypeColleague:        "Colleague",
	ContactTypeOther:            "Other",
}

// DisplayName returns the human label. Unknown types are title-cased ("BEST_FRIEND" -> "Best Friend").
func (t ContactType) DisplayName() string {
	if name, ok := contactTypeNames[t]; ok {
		return name
	}
	words := strings.ToLower(strings.ReplaceAll(string(t), "_", " "))
	return cases.Title(language.English).String(words)
}

// Contact is a trusted contact who receives SOS alerts.
type Contact struct {
	ID            int64       `json:"id"`
	FullName      string      `json:"fullName"`
	Email         string      `json:"email"`
	Phone         string      `json:"phone,omitempty"`
	ContactType   ContactType `json:"contactType"`
	PriorityOrder int         `json:"priorityOrder,omitempty"`
}

// Location is the device position attached to an SOS alert.
type Location struct {
	Latitude  float64
	Longitude float64
	Address   string
	// Known is false until coordinates have been acquired.
	Known bool
}
