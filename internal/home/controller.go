// Package home runs the signed-in dashboard: profile, SOS alerts, trusted contacts and logout.
package home

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"silentsignals/client/internal/api"
	"silentsignals/client/internal/geo"
	"silentsignals/client/internal/home/domain"
	"silentsignals/client/internal/session"
	"silentsignals/client/internal/telemetry"
	telemetrydomain "silentsignals/client/internal/telemetry/domain"
)

// LoginPath is where the dashboard sends a signed-out user.
const LoginPath = "/my-login"

var (
	// ErrSignedOut is returned when there is no usable token; the view has been sent to LoginPath.
	ErrSignedOut = errors.New("home: signed out")
	// ErrCancelled is returned when the user declines a confirmation.
	ErrCancelled = errors.New("home: cancelled")
	// ErrNoProfile is returned by contact changes before the profile has loaded.
	ErrNoProfile = errors.New("home: profile not loaded")
)

// ValidationError is a local input error. No request was sent.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return "home: " + e.Message }

// ServerError carries the message shown for a rejected request.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string { return "home: server: " + e.Message }

// API is the subset of the server API the dashboard calls.
type API interface {
	Profile(ctx context.Context) (*api.Envelope[domain.Profile], error)
	SendAlert(ctx context.Context, req api.AlertRequest) (*api.Reply, error)
	Contacts(ctx context.Context) (*api.Envelope[[]domain.Contact], error)
	AddContact(ctx context.Context, req api.ContactRequest) (*api.Reply, error)
	DeleteContact(ctx context.Context, id int64) (*api.Reply, error)
}

// Geocoder resolves coordinates to an address.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

// Presenter renders the dashboard.
type Presenter interface {
	ShowLoading(text string)
	HideLoading()
	ShowSuccess(message string)
	ShowError(message string)
	ShowProfile(p *domain.Profile)
	ShowContacts(contacts []domain.Contact)
	ShowLocation(loc domain.Location, addressLabel string)
	Confirm(prompt string) bool
	Navigate(path string)
}

// ContactInput is the add-contact form as typed. Priority 0 means the default of 1.
type ContactInput struct {
	FullName    string
	Email       string
	Phone       string
	ContactType string
	Priority    int
}

// Controller owns the dashboard state.
type Controller struct {
	api    API
	store  session.Store
	geo    Geocoder
	view   Presenter
	events telemetry.EventEmitter
	v      *validator.Validate

	mu       sync.Mutex
	profile  *domain.Profile
	location domain.Location
}

// NewController returns a dashboard controller. geocoder and events may be nil.
func NewController(client API, store session.Store, geocoder Geocoder, view Presenter, events telemetry.EventEmitter) *Controller {
	if events == nil {
		events = telemetry.Noop{}
	}
	return &Controller{api: client, store: store, geo: geocoder, view: view, events: events, v: newValidator()}
}

// Init sends a signed-out user to login, otherwise loads the profile and contacts.
func (c *Controller) Init(ctx context.Context) error {
	if _, ok := c.store.Token(ctx); !ok {
		c.view.Navigate(LoginPath)
		return ErrSignedOut
	}
	if _, err := c.LoadProfile(ctx); err != nil {
		return err
	}
	_, err := c.LoadContacts(ctx)
	return err
}

// Profile returns the last loaded profile, or nil.
func (c *Controller) Profile() *domain.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

// LoadProfile fetches and shows the profile. A 401 clears the stored token.
func (c *Controller) LoadProfile(ctx context.Context) (*domain.Profile, error) {
	env, err := c.api.Profile(ctx)
	if err != nil {
		if c.signedOut(ctx, err) {
			return nil, ErrSignedOut
		}
		if code := api.StatusCode(err); code != 0 {
			msg := "Failed to load profile: HTTP " + strconv.Itoa(code)
			c.view.ShowError(msg)
			return nil, &ServerError{Message: msg}
		}
		log.Printf("home: load profile: %v", err)
		c.view.ShowError(msgProfileNetwork)
		return nil, fmt.Errorf("home: load profile: %w", err)
	}
	if !env.Success {
		msg := "Failed to load profile: " + orDefault(env.Message, msgUnknownError)
		c.view.ShowError(msg)
		return nil, &ServerError{Message: msg}
	}
	p := env.Data
	c.mu.Lock()
	c.profile = &p
	c.mu.Unlock()
	c.view.ShowProfile(&p)
	return &p, nil
}

// LoadContacts fetches and shows the trusted contacts.
func (c *Controller) LoadContacts(ctx context.Context) ([]domain.Contact, error) {
	env, err := c.api.Contacts(ctx)
	if c.signedOut(ctx, err) {
		return nil, ErrSignedOut
	}
	if env == nil {
		log.Printf("home: load contacts: %v", err)
		c.view.ShowError(msgContactsNetwork)
		return nil, fmt.Errorf("home: load contacts: %w", err)
	}
	if !env.Success {
		msg := "Failed to load contacts: " + orDefault(env.Message, msgUnknownError)
		c.view.ShowError(msg)
		return nil, &ServerError{Message: msg}
	}
	contacts := env.Data
	if contacts == nil {
		contacts = []domain.Contact{}
	}
	c.view.ShowContacts(contacts)
	return contacts, nil
}

// Locate records the device position and resolves its address. The position is kept even
// when the lookup fails; the alert then carries a placeholder address.
func (c *Controller) Locate(ctx context.Context, lat, lng float64) domain.Location {
	loc := domain.Location{Latitude: lat, Longitude: lng, Known: true}
	label := msgAddressFailed
	if c.geo != nil {
		addr, err := c.geo.Reverse(ctx, lat, lng)
		if err == nil {
			loc.Address = addr
			label = addr
		} else {
			log.Printf("home: reverse geocode: %v", err)
			switch {
			case errors.Is(err, geo.ErrNoAddress):
				label = noAddress
			case errors.Is(err, geo.ErrUnavailable):
				label = msgAddressUnavailable
			}
		}
	}
	c.mu.Lock()
	c.location = loc
	c.mu.Unlock()
	c.view.ShowLocation(loc, label)
	return loc
}

// SendSOS alerts every trusted contact after the user confirms.
func (c *Controller) SendSOS(ctx context.Context, description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		c.view.ShowError(msgDescriptionRequired)
		return &ValidationError{Message: msgDescriptionRequired}
	}
	c.mu.Lock()
	loc := c.location
	c.mu.Unlock()
	if !loc.Known {
		c.view.ShowError(msgNoLocation)
		return &ValidationError{Message: msgNoLocation}
	}
	if !c.view.Confirm(msgConfirmSOS) {
		return ErrCancelled
	}

	address := loc.Address
	if address == "" {
		address = noAddress
	}
	c.view.ShowLoading("Sending SOS alert...")
	reply, err := c.api.SendAlert(ctx, api.AlertRequest{
		Description:         description,
		LocationCoordinates: formatCoordinates(loc),
		LocationAddress:     address,
	})
	c.view.HideLoading()
	if c.signedOut(ctx, err) {
		return ErrSignedOut
	}
	// A JSON body is honoured even on a non-2xx status; the rate limiter answers 429.
	if reply == nil {
		log.Printf("home: send alert: %v", err)
		c.view.ShowError(msgAlertNetwork)
		return fmt.Errorf("home: send alert: %w", err)
	}
	if !reply.Success {
		msg := alertFailure(reply.Message)
		c.view.ShowError(msg)
		return &ServerError{Message: msg}
	}
	c.view.ShowSuccess(msgAlertSent)
	c.emit(ctx, "alert.sent", map[string]string{"coordinates": formatCoordinates(loc)})
	return nil
}

// AddContact validates and creates a trusted contact, then reloads the list.
func (c *Controller) AddContact(ctx context.Context, in ContactInput) error {
	if c.Profile() == nil {
		c.view.ShowError(msgNoUser)
		return ErrNoProfile
	}
	form := contactForm{
		FullName:      strings.TrimSpace(in.FullName),
		Email:         strings.ToLower(strings.TrimSpace(in.Email)),
		ContactType:   strings.TrimSpace(in.ContactType),
		Phone:         strings.TrimSpace(in.Phone),
		PriorityOrder: in.Priority,
	}
	if form.PriorityOrder == 0 {
		form.PriorityOrder = 1
	}
	if msg := contactFormMessage(c.v, form); msg != "" {
		c.view.ShowError(msg)
		return &ValidationError{Message: msg}
	}

	req := api.ContactRequest{
		FullName:      form.FullName,
		Email:         form.Email,
		ContactType:   domain.ContactType(form.ContactType),
		PriorityOrder: form.PriorityOrder,
	}
	if form.Phone != "" {
		req.Phone = &form.Phone
	}

	c.view.ShowLoading("Adding contact...")
	reply, err := c.api.AddContact(ctx, req)
	c.view.HideLoading()
	if c.signedOut(ctx, err) {
		return ErrSignedOut
	}
	if reply == nil {
		log.Printf("home: add contact: %v", err)
		c.view.ShowError(msgContactNetwork)
		return fmt.Errorf("home: add contact: %w", err)
	}
	if !reply.Success {
		msg := addContactFailure(reply.Message, reply.Data)
		c.view.ShowError(msg)
		return &ServerError{Message: msg}
	}
	c.view.ShowSuccess(msgContactAdded)
	c.emit(ctx, "contact.added", map[string]string{"contact_type": form.ContactType})
	_, err = c.LoadContacts(ctx)
	return err
}

// DeleteContact removes a trusted contact after the user confirms, then reloads the list.
func (c *Controller) DeleteContact(ctx context.Context, id int64) error {
	if !c.view.Confirm(msgConfirmDelete) {
		return ErrCancelled
	}
	if c.Profile() == nil {
		c.view.ShowError(msgNoUser)
		return ErrNoProfile
	}

	c.view.ShowLoading("Deleting contact...")
	reply, err := c.api.DeleteContact(ctx, id)
	c.view.HideLoading()
	if c.signedOut(ctx, err) {
		return ErrSignedOut
	}
	if reply == nil {
		log.Printf("home: delete contact %d: %v", id, err)
		c.view.ShowError(msgDeleteNetwork)
		return fmt.Errorf("home: delete contact: %w", err)
	}
	if !reply.Success {
		msg := deleteContactFailure(reply.Message)
		c.view.ShowError(msg)
		return &ServerError{Message: msg}
	}
	c.view.ShowSuccess(msgContactDeleted)
	c.emit(ctx, "contact.deleted", map[string]string{"contact_id": strconv.FormatInt(id, 10)})
	_, err = c.LoadContacts(ctx)
	return err
}

// Logout clears the token after the user confirms.
func (c *Controller) Logout(ctx context.Context) error {
	if !c.view.Confirm(msgConfirmLogout) {
		return ErrCancelled
	}
	if err := c.store.Clear(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.profile = nil
	c.mu.Unlock()
	c.emit(ctx, "session.logout", nil)
	c.view.Navigate(LoginPath)
	return nil
}

// signedOut handles a missing or rejected token by clearing it and navigating to login.
func (c *Controller) signedOut(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if !errors.Is(err, api.ErrNoToken) && api.StatusCode(err) != http.StatusUnauthorized {
		return false
	}
	if clearErr := c.store.Clear(ctx); clearErr != nil {
		log.Printf("home: clear token: %v", clearErr)
	}
	c.view.Navigate(LoginPath)
	return true
}

func (c *Controller) emit(ctx context.Context, eventType string, attrs map[string]string) {
	event := &telemetrydomain.Event{EventType: eventType, Source: "home", Attrs: attrs}
	if p := c.Profile(); p != nil {
		event.UserID = strconv.FormatInt(p.ID, 10)
	}
	telemetry.EmitAsync(c.events, ctx, event)
}

func formatCoordinates(loc domain.Location) string {
	return strconv.FormatFloat(loc.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(loc.Longitude, 'f', -1, 64)
}
