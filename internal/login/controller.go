// Package login exchanges credentials for a bearer token.
package login

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"silentsignals/client/internal/api"
	"silentsignals/client/internal/platform/clock"
	"silentsignals/client/internal/session"
	"silentsignals/client/internal/telemetry"
	telemetrydomain "silentsignals/client/internal/telemetry/domain"
)

// HomePath is where a successful login navigates.
const HomePath = "/home"

// RedirectDelay is the pause between the success modal and navigation home.
const RedirectDelay = 2 * time.Second

const (
	msgMissing  = "Please enter both username/email and password."
	msgFailed   = "Login failed"
	msgSuccess  = "Login successful"
	msgTryAgain = "An error occurred. Please try again."
)

var (
	// ErrMissingCredentials is returned when either field is empty. No request is sent.
	ErrMissingCredentials = errors.New("login: username/email and password required")
	// ErrRejected is returned when the server answers success:false.
	ErrRejected = errors.New("login: rejected")
)

// API is the login endpoint.
type API interface {
	Login(ctx context.Context, usernameOrMail, password string) (*api.Reply, error)
}

// Presenter renders the login form.
type Presenter interface {
	ShowError(message string)
	ClearError()
	ShowLoading(text string)
	HideLoading()
	ShowInfo(title, message string, success bool)
	Navigate(path string)
}

// Controller runs the login form.
type Controller struct {
	api    API
	store  session.Store
	view   Presenter
	sched  clock.Scheduler
	events telemetry.EventEmitter
}

// NewController returns a login controller. sched and events may be nil.
func NewController(client API, store session.Store, view Presenter, sched clock.Scheduler, events telemetry.EventEmitter) *Controller {
	if sched == nil {
		sched = clock.Real{}
	}
	if events == nil {
		events = telemetry.Noop{}
	}
	return &Controller{api: client, store: store, view: view, sched: sched, events: events}
}

// Login validates, calls the server and stores the returned token.
// On success it navigates to HomePath after RedirectDelay.
func (c *Controller) Login(ctx context.Context, usernameOrMail, password string) error {
	usernameOrMail = strings.TrimSpace(usernameOrMail)
	c.view.ClearError()
	if usernameOrMail == "" || password == "" {
		c.view.ShowError(msgMissing)
		return ErrMissingCredentials
	}

	c.view.ShowLoading("Signing in...")
	reply, err := c.api.Login(ctx, usernameOrMail, password)
	c.view.HideLoading()
	if err != nil {
		log.Printf("login: %v", err)
		c.view.ShowError(msgTryAgain)
		return fmt.Errorf("login: %w", err)
	}
	if !reply.Success {
		msg := reply.Message
		if msg == "" {
			msg = msgFailed
		}
		c.view.ShowError(msg)
		return fmt.Errorf("%w: %s", ErrRejected, msg)
	}
	if err := c.store.Put(ctx, reply.Token); err != nil {
		log.Printf("login: store token: %v", err)
		c.view.ShowError(msgTryAgain)
		return err
	}

	event := &telemetrydomain.Event{EventType: "login.succeeded", Source: "login"}
	if claims, err := session.ParseClaims(reply.Token); err == nil {
		event.UserID = claims.Subject
	}
	telemetry.EmitAsync(c.events, ctx, event)

	c.view.ShowInfo("Success", msgSuccess, true)
	c.sched.After(RedirectDelay, func() { c.view.Navigate(HomePath) })
	return nil
}
