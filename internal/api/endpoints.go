package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	homedomain "silentsignals/client/internal/home/domain"
)

const (
	pathSendPin              = "/api/register/send-pin"
	pathVerifyPin            = "/api/register/verify-pin"
	pathResendPin            = "/api/register/resend-pin"
	pathCompleteRegistration = "/api/register/complete-registration"
	pathLogin                = "/api/auth/login"
	pathProfile              = "/api/user/profile"
	pathSendAlert            = "/api/alert/send"
	pathContacts             = "/trusted/api/getAllContacts"
	pathAddContact           = "/trusted/api/addContact"
	pathDeleteContact        = "/trusted/api/deleteContact/%d"
)

type mailRequest struct {
	Mail string `json:"mail"`
}

type verifyPinRequest struct {
	Mail string `json:"mail"`
	Pin  string `json:"pin"`
}

// CompleteRegistrationRequest is the body of complete-registration. DateOfBirth is YYYY-MM-DD.
type CompleteRegistrationRequest struct {
	Mail            string `json:"mail"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	DateOfBirth     string `json:"dateOfBirth"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AlertRequest is the body of POST /api/alert/send. LocationCoordinates is "lat,lng".
type AlertRequest struct {
	Description         string `json:"description"`
	LocationCoordinates string `json:"locationCoordinates"`
	LocationAddress     string `json:"locationAddress"`
}

// ContactRequest is the body of POST /trusted/api/addContact. Phone is null when empty.
type ContactRequest struct {
	FullName      string                 `json:"fullName"`
	Email         string                 `json:"email"`
	Phone         *string                `json:"phone"`
	ContactType   homedomain.ContactType `json:"contactType"`
	PriorityOrder int                    `json:"priorityOrder"`
}

// SendPin asks the server to email a registration PIN to mail.
func (c *Client) SendPin(ctx context.Context, mail string) (*Reply, error) {
	return doJSON[json.RawMessage](ctx, c, http.MethodPost, pathSendPin, mailRequest{Mail: mail}, false)
}

// VerifyPin checks pin for mail.
func (c *Client) VerifyPin(ctx context.Context, mail, pin string) (*Reply, error) {
	return doJSON[json.RawMessage](ctx, c, http.MethodPost, pathVerifyPin, verifyPinRequest{Mail: mail, Pin: pin}, false)
}

// ResendPin asks for a fresh PIN for mail.
func (c *Client) ResendPin(ctx context.Context, mail string) (*Reply, error) {
	return doJSON[json.RawMessage](ctx, c, http.MethodPost, pathResendPin, mailRequest{Mail: mail}, false)
}

// CompleteRegistration creates the account once the PIN has been verified.
func (c *Client) CompleteRegistration(ctx context.Context, req CompleteRegistrationRequest) (*Reply, error) {
	return doJSON[json.RawMessage](ctx, c, http.MethodPost, pathCompleteRegistration, req, false)
}

// Login exchanges a username or email and password for a bearer token (Reply.Token).
func (c *Client) Login(ctx context.Context, usernameOrMail, password string) (*Reply, error) {
	return doJSON[json.RawMessage](ctx, c, http.MethodPost, pathLogin, loginRequest{Username: usernameOrMail, Password: password}, false)
}

// Profile fetches the signed-in user's profile.
func (c *Client) Profile(ctx context.Context) (*Envelope[homedomain.Profile], error) {
	return doJSON[homedomain.Profile](ctx, c, http.MethodGet, pathProfile, nil, true)
}

// SendAlert raises an SOS alert to every trusted contact.
func (c *Client) SendAlert(ctx context.Context, req AlertRequest) (*Reply, error) {
	return doJSON[json.RawMessage](ctx, c, http.MethodPost, pathSendAlert, req, true)
}

// Contacts lists the signed-in user's trusted contacts.
func (c *Client) Contacts(ctx context.Context) (*Envelope[[]homedomain.Contact], error) {
	return doJSON[[]homedomain.Contact](ctx, c, http.MethodGet, pathContacts, nil, true)
}

// AddContact creates a trusted contact. On validation failure the server puts a field->message map in data.
func (c *Client) AddContact(ctx context.Context, req ContactRequest) (*Reply, error) {
	return doJSON[json.RawMessage](ctx, c, http.MethodPost, pathAddContact, req, true)
}

// DeleteContact removes a trusted contact by id.
func (c *Client) DeleteContact(ctx context.Context, id int64) (*Reply, error) {
	return doJSON[json.RawMessage](ctx, c, http.MethodDelete, fmt.Sprintf(pathDeleteContact, id), nil, true)
}
