// Package registration runs the email, PIN and password steps of account creation.
package registration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"silentsignals/client/internal/api"
	"silentsignals/client/internal/platform/clock"
	"silentsignals/client/internal/registration/domain"
	"silentsignals/client/internal/telemetry"
	telemetrydomain "silentsignals/client/internal/telemetry/domain"
)

// LoginPath is where a finished registration navigates.
const LoginPath = "/my-login"

// RedirectDelay is the pause between the success modal and navigation to login.
const RedirectDelay = 3 * time.Second

// DefaultSupportURL is shown when the resend cap is reached and no other URL is configured.
const DefaultSupportURL = "https://vahabvahabov.site/#contact"

const (
	msgTryAgain      = "An error occurred. Please try again."
	msgPinExpired    = "PIN has expired. Please request a new one."
	msgNewPinSent    = "A new PIN has been sent to your email address."
	msgResendNoEmail = "Please go back and enter your email address."
	alreadyMarker    = "already registered"
)

var (
	// ErrInvalidStep is returned when an operation is called outside its step.
	ErrInvalidStep = errors.New("registration: operation not allowed in current step")
	// ErrAlreadyRegistered is returned when send-pin reports an existing account.
	ErrAlreadyRegistered = errors.New("registration: email already registered")
	// ErrResendLimit is returned once the session has used all its resends.
	ErrResendLimit = errors.New("registration: resend limit reached")
	// ErrResendInFlight is returned while a previous resend has not completed.
	ErrResendInFlight = errors.New("registration: resend already in progress")
)

// ServerError carries a success:false message from the server.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return "registration: server: " + e.Message
}

// API is the subset of the server API the flow calls.
type API interface {
	SendPin(ctx context.Context, mail string) (*api.Reply, error)
	VerifyPin(ctx context.Context, mail, pin string) (*api.Reply, error)
	ResendPin(ctx context.Context, mail string) (*api.Reply, error)
	CompleteRegistration(ctx context.Context, req api.CompleteRegistrationRequest) (*api.Reply, error)
}

// Presenter renders the flow. Calls may arrive from the scheduler goroutine.
type Presenter interface {
	ShowStep(step domain.Step)
	ShowFieldError(field domain.Field, message string)
	ClearFieldError(field domain.Field)
	ShowTimer(remaining string)
	HideTimer()
	ShowLoading(text string)
	HideLoading()
	ShowInfo(title, message string, success bool)
	ShowExistingAccount()
	SetResendEnabled(enabled bool)
	Navigate(path string)
}

// RequestPinInput is the email step form.
type RequestPinInput struct {
	Email string
}

// VerifyPinInput is the PIN step form.
type VerifyPinInput struct {
	Email string
	Pin   string
}

// ResendPinInput is the resend action.
type ResendPinInput struct {
	Email string
}

// CompleteInput is the password/profile step form. DateOfBirth is YYYY-MM-DD.
type CompleteInput struct {
	Email           string
	Username        string
	Password        string
	ConfirmPassword string
	DateOfBirth     string
}

// Options configures a Controller. Zero values use the real clock, no events and the global meter.
type Options struct {
	Scheduler  clock.Scheduler
	Events     telemetry.EventEmitter
	Meter      metric.Meter
	SupportURL string
}

// Controller owns one registration session. Its mutex is never held across a request.
type Controller struct {
	api        API
	view       Presenter
	sched      clock.Scheduler
	events     telemetry.EventEmitter
	metrics    *flowMetrics
	check      *checker
	timer      *countdown
	supportURL string

	mu        sync.Mutex
	sess      domain.Session
	resending bool
	redirect  clock.Stop
}

// NewController starts a session in the email step.
func NewController(client API, view Presenter, opts Options) *Controller {
	if opts.Scheduler == nil {
		opts.Scheduler = clock.Real{}
	}
	if opts.Events == nil {
		opts.Events = telemetry.Noop{}
	}
	if opts.Meter == nil {
		opts.Meter = otel.Meter("silentsignals/client/registration")
	}
	if opts.SupportURL == "" {
		opts.SupportURL = DefaultSupportURL
	}
	c := &Controller{
		api:        client,
		view:       view,
		sched:      opts.Scheduler,
		events:     opts.Events,
		metrics:    newFlowMetrics(opts.Meter),
		check:      newChecker(),
		supportURL: opts.SupportURL,
		sess:       domain.Session{ID: uuid.New().String(), Step: domain.StepCollectEmail},
	}
	c.timer = newCountdown(c.sched, domain.PinLifetime, c.showRemaining, c.expire)
	return c
}

// Snapshot returns a copy of the session state.
func (c *Controller) Snapshot() domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

// Close stops the countdown and any pending redirect.
func (c *Controller) Close() {
	c.timer.cancel()
	c.mu.Lock()
	redirect := c.redirect
	c.redirect = nil
	c.mu.Unlock()
	if redirect != nil {
		redirect()
	}
}

// RequestPin validates the email and asks the server to send a PIN.
func (c *Controller) RequestPin(ctx context.Context, in RequestPinInput) error {
	email := strings.TrimSpace(in.Email)
	if err := c.requireStep(domain.StepCollectEmail); err != nil {
		return err
	}
	c.view.ClearFieldError(domain.FieldEmail)
	if err := c.check.email(email); err != nil {
		return c.invalid(ctx, err)
	}

	c.view.ShowLoading("Sending PIN code...")
	reply, err := c.api.SendPin(ctx, email)
	c.view.HideLoading()
	if err != nil {
		return c.transportFailure(domain.FieldEmail, "send pin", err)
	}
	if !reply.Success {
		if strings.Contains(reply.Message, alreadyMarker) {
			c.view.ShowExistingAccount()
			c.emit(ctx, "registration.already_registered", nil)
			return ErrAlreadyRegistered
		}
		c.view.ShowFieldError(domain.FieldEmail, reply.Message)
		return &ServerError{Message: reply.Message}
	}

	c.mu.Lock()
	if c.sess.Step != domain.StepCollectEmail {
		c.mu.Unlock()
		return ErrInvalidStep
	}
	c.sess.Email = email
	c.sess.Step = domain.StepAwaitingPin
	c.sess.ResendCount = 0
	c.mu.Unlock()

	c.view.ShowStep(domain.StepAwaitingPin)
	c.startPinTimer()
	c.view.ShowInfo("Success", reply.Message, true)
	c.transitioned(ctx, domain.StepAwaitingPin)
	return nil
}

// VerifyPin checks the PIN with the server. A rejected PIN leaves the countdown running.
func (c *Controller) VerifyPin(ctx context.Context, in VerifyPinInput) error {
	email := strings.TrimSpace(in.Email)
	pin := strings.TrimSpace(in.Pin)
	if err := c.requireStep(domain.StepAwaitingPin); err != nil {
		return err
	}
	c.view.ClearFieldError(domain.FieldPin)
	if err := c.check.pin(pin); err != nil {
		return c.invalid(ctx, err)
	}

	c.view.ShowLoading("Verifying PIN...")
	reply, err := c.api.VerifyPin(ctx, email, pin)
	c.view.HideLoading()
	if err != nil {
		return c.transportFailure(domain.FieldPin, "verify pin", err)
	}
	if !reply.Success {
		c.view.ShowFieldError(domain.FieldPin, reply.Message)
		return &ServerError{Message: reply.Message}
	}

	c.mu.Lock()
	if c.sess.Step != domain.StepAwaitingPin {
		c.mu.Unlock()
		return ErrInvalidStep
	}
	c.sess.Step = domain.StepCreatingPassword
	c.sess.PinDeadline = time.Time{}
	c.mu.Unlock()

	c.timer.cancel()
	c.view.HideTimer()
	c.view.ClearFieldError(domain.FieldPin)
	c.view.ShowStep(domain.StepCreatingPassword)
	c.view.ShowInfo("Success", reply.Message, true)
	c.transitioned(ctx, domain.StepCreatingPassword)
	return nil
}

// ResendPin requests a new PIN. At most domain.MaxResends succeed per session.
func (c *Controller) ResendPin(ctx context.Context, in ResendPinInput) error {
	email := strings.TrimSpace(in.Email)
	if err := c.requireStep(domain.StepAwaitingPin); err != nil {
		return err
	}
	if email == "" {
		return c.invalid(ctx, &ValidationError{Field: domain.FieldPin, Message: msgResendNoEmail})
	}

	c.mu.Lock()
	if c.sess.ResendCount >= domain.MaxResends {
		c.mu.Unlock()
		c.view.ShowFieldError(domain.FieldPin, c.resendLimitMessage())
		c.emit(ctx, "registration.resend_blocked", nil)
		log.Printf("registration: resend blocked for session %s: limit reached", c.sess.ID)
		return ErrResendLimit
	}
	if c.resending {
		c.mu.Unlock()
		return ErrResendInFlight
	}
	c.resending = true
	c.mu.Unlock()

	c.view.SetResendEnabled(false)
	defer func() {
		c.mu.Lock()
		c.resending = false
		c.mu.Unlock()
		c.view.SetResendEnabled(true)
	}()

	c.view.ShowLoading("Resending PIN...")
	reply, err := c.api.ResendPin(ctx, email)
	c.view.HideLoading()
	if err != nil {
		return c.transportFailure(domain.FieldPin, "resend pin", err)
	}
	if !reply.Success {
		c.view.ShowFieldError(domain.FieldPin, reply.Message)
		return &ServerError{Message: reply.Message}
	}

	c.mu.Lock()
	c.sess.ResendCount++
	count := c.sess.ResendCount
	stillWaiting := c.sess.Step == domain.StepAwaitingPin
	c.mu.Unlock()

	c.metrics.resends.Add(ctx, 1)
	if stillWaiting {
		c.startPinTimer()
	}
	c.view.ShowInfo("Success", msgNewPinSent, true)
	c.emit(ctx, "registration.pin_resent", map[string]string{"resend_count": strconv.Itoa(count)})
	return nil
}

// CompleteRegistration runs the ordered local checks, then submits the account.
// On success it navigates to LoginPath after RedirectDelay.
func (c *Controller) CompleteRegistration(ctx context.Context, in CompleteInput) error {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if err := c.requireStep(domain.StepCreatingPassword); err != nil {
		return err
	}
	for _, f := range []domain.Field{domain.FieldUsername, domain.FieldPassword, domain.FieldDateOfBirth, domain.FieldGeneral} {
		c.view.ClearFieldError(f)
	}
	if err := c.check.completion(in, c.sched.Now()); err != nil {
		return c.invalid(ctx, err)
	}

	c.view.ShowLoading("Completing registration...")
	reply, err := c.api.CompleteRegistration(ctx, api.CompleteRegistrationRequest{
		Mail:            in.Email,
		Username:        in.Username,
		Password:        in.Password,
		ConfirmPassword: in.ConfirmPassword,
		DateOfBirth:     in.DateOfBirth,
	})
	c.view.HideLoading()
	if err != nil {
		return c.transportFailure(domain.FieldGeneral, "complete registration", err)
	}
	if !reply.Success {
		c.view.ShowFieldError(domain.FieldGeneral, reply.Message)
		return &ServerError{Message: reply.Message}
	}

	c.mu.Lock()
	if c.sess.Step != domain.StepCreatingPassword {
		c.mu.Unlock()
		return ErrInvalidStep
	}
	c.sess.Step = domain.StepSubmitted
	c.mu.Unlock()

	c.view.ShowStep(domain.StepSubmitted)
	c.view.ShowInfo("Success", reply.Message, true)
	redirect := c.sched.After(RedirectDelay, func() { c.view.Navigate(LoginPath) })
	c.mu.Lock()
	c.redirect = redirect
	c.mu.Unlock()
	c.transitioned(ctx, domain.StepSubmitted)
	return nil
}

func (c *Controller) requireStep(want domain.Step) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess.Step != want {
		return ErrInvalidStep
	}
	return nil
}

func (c *Controller) startPinTimer() {
	c.mu.Lock()
	c.sess.PinDeadline = c.sched.Now().Add(domain.PinLifetime)
	c.mu.Unlock()
	c.view.ClearFieldError(domain.FieldPin)
	c.timer.start()
}

func (c *Controller) showRemaining(seconds int) {
	c.view.ShowTimer(formatRemaining(seconds))
}

func (c *Controller) expire() {
	c.view.HideTimer()
	c.view.ShowFieldError(domain.FieldPin, msgPinExpired)
	c.emit(context.Background(), "registration.pin_expired", nil)
}

func (c *Controller) resendLimitMessage() string {
	return "You have exceeded the maximum number of resend attempts. Please contact support for assistance: " + c.supportURL
}

func (c *Controller) invalid(ctx context.Context, err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		c.view.ShowFieldError(ve.Field, ve.Message)
		c.metrics.validationFailed(ctx, ve.Field)
	}
	return err
}

// transportFailure logs the detail and shows only the generic message.
func (c *Controller) transportFailure(field domain.Field, op string, err error) error {
	log.Printf("registration: %s: %v", op, err)
	c.view.ShowFieldError(field, msgTryAgain)
	return fmt.Errorf("registration: %s: %w", op, err)
}

func (c *Controller) transitioned(ctx context.Context, step domain.Step) {
	c.metrics.transitioned(ctx, step)
	c.emit(ctx, "registration.step_changed", nil)
}

func (c *Controller) emit(ctx context.Context, eventType string, attrs map[string]string) {
	s := c.Snapshot()
	telemetry.EmitAsync(c.events, ctx, &telemetrydomain.Event{
		EventType: eventType,
		Source:    "registration",
		SessionID: s.ID,
		Step:      s.Step.String(),
		Attrs:     attrs,
	})
}
