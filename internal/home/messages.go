package home

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const (
	msgDescriptionRequired = "Please provide an emergency description"
	msgNoLocation          = "Please wait for location to be acquired"
	msgConfirmSOS          = "Are you sure you want to send an SOS alert? This will notify all your trusted contacts immediately."
	msgAlertSent           = "SOS alert sent successfully! Help is on the way!"
	msgAlertUnavailable    = "Alert system is temporarily unavailable. Please try again in a moment."
	msgAlertFailed         = "Failed to send SOS alert"
	msgAlertNetwork        = "Network error: Failed to send SOS alert. Please check your connection."
	noAddress              = "Address not available"

	msgAddressUnavailable = "Address service unavailable"
	msgAddressFailed      = "Unable to get address"

	msgProfileNetwork  = "Network error loading profile. Please check your connection."
	msgContactsNetwork = "Network error loading contacts. Please check your connection."
	msgUnknownError    = "Unknown error"
	msgNoUser          = "User information not available. Please refresh the page."

	msgContactRequired = "Full name, email, and contact type are required"
	msgContactEmail    = "Please enter a valid email address"
	msgContactPhone    = "Please enter a valid phone number (minimum 10 digits) or leave it empty"
	msgContactPriority = "Priority must be between 1 and 10"
	msgContactAdded    = "Contact added successfully!"
	msgContactExists   = "You already have a contact with this email address in your trusted contacts."
	msgContactNoUser   = "User account not found. Please try logging in again."
	msgContactSystem   = "A system error occurred. Please try again in a moment."
	msgContactFailed   = "Failed to add contact. Please try again."
	msgContactNetwork  = "Network error: Failed to add contact. Please check your connection."

	msgConfirmDelete  = "Are you sure you want to delete this contact?"
	msgContactDeleted = "Contact deleted successfully!"
	msgDeleteNoPerm   = "You do not have permission to delete this contact."
	msgDeleteNotFound = "Contact not found. It may have been already deleted."
	msgDeleteFailed   = "Failed to delete contact"
	msgDeleteNetwork  = "Network error: Failed to delete contact"
	msgConfirmLogout  = "Are you sure you want to logout?"
)

var rateLimitSeconds = regexp.MustCompile(`(\d+) seconds`)

func orDefault(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}

// alertFailure maps a rejected SOS reply to what the user sees.
func alertFailure(msg string) string {
	switch {
	case strings.Contains(msg, "Rate limit exceeded"):
		seconds := "a few"
		if m := rateLimitSeconds.FindStringSubmatch(msg); m != nil {
			seconds = m[1]
		}
		return fmt.Sprintf("Please wait %s seconds before sending another alert.", seconds)
	case strings.Contains(msg, "Redis"):
		return msgAlertUnavailable
	default:
		return orDefault(msg, msgAlertFailed)
	}
}

// addContactFailure maps a rejected add-contact reply. A field error object in data wins.
func addContactFailure(msg string, data json.RawMessage) string {
	if fields := fieldErrors(data); fields != "" {
		return "Please check your input: " + fields
	}
	switch {
	case strings.Contains(msg, "already exists"):
		return msgContactExists
	case strings.Contains(msg, "User not found"):
		return msgContactNoUser
	case strings.Contains(msg, "system error"):
		return msgContactSystem
	default:
		return orDefault(msg, msgContactFailed)
	}
}

func deleteContactFailure(msg string) string {
	switch {
	case strings.Contains(msg, "permission"):
		return msgDeleteNoPerm
	case strings.Contains(msg, "not found"):
		return msgDeleteNotFound
	default:
		return orDefault(msg, msgDeleteFailed)
	}
}

// fieldErrors joins the values of a JSON object, ordered by key. Anything else yields "".
func fieldErrors(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil || len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	vals := make([]string, 0, len(keys))
	for _, k := range keys {
		vals = append(vals, fmt.Sprint(m[k]))
	}
	return strings.Join(vals, ", ")
}
