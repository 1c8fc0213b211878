// Package ui renders the client flows on a terminal.
package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	homedomain "silentsignals/client/internal/home/domain"
	regdomain "silentsignals/client/internal/registration/domain"
)

const displayDate = "January 2, 2006"

// CommandName is the binary name used in hints.
const CommandName = "client"

// Terminal writes flow output to out and reads answers from in. Safe for concurrent use;
// countdown updates arrive from the scheduler goroutine.
type Terminal struct {
	mu   sync.Mutex
	out  io.Writer
	in   *bufio.Reader
	nav  chan string
	errs map[regdomain.Field]string

	timer         string
	timerVisible  bool
	resendEnabled bool
}

// NewTerminal returns a Terminal over out and in.
func NewTerminal(out io.Writer, in io.Reader) *Terminal {
	return &Terminal{
		out:           out,
		in:            bufio.NewReader(in),
		nav:           make(chan string, 4),
		errs:          make(map[regdomain.Field]string),
		resendEnabled: true,
	}
}

// Navigations receives every path passed to Navigate.
func (t *Terminal) Navigations() <-chan string { return t.nav }

// Prompt prints label and reads one trimmed line. io.EOF is returned when input ends.
func (t *Terminal) Prompt(label string) (string, error) {
	t.printf("%s: ", label)
	line, err := t.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a yes/no question; anything but y or yes is a no.
func (t *Terminal) Confirm(prompt string) bool {
	answer, err := t.Prompt(prompt + " [y/N]")
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}

// Navigate reports the destination. Extra destinations are dropped once the buffer is full.
func (t *Terminal) Navigate(path string) {
	t.printf("-> %s\n", path)
	select {
	case t.nav <- path:
	default:
	}
}

func (t *Terminal) ShowStep(step regdomain.Step) {
	switch step {
	case regdomain.StepCollectEmail:
		t.printf("\nStep 1 of 3: enter your email address.\n")
	case regdomain.StepAwaitingPin:
		t.printf("\nStep 2 of 3: enter the 6-digit PIN sent to your email. Type \"resend\" for a new PIN.\n")
	case regdomain.StepCreatingPassword:
		t.printf("\nStep 3 of 3: choose a username, password and date of birth (YYYY-MM-DD).\n")
	case regdomain.StepSubmitted:
		t.printf("\nRegistration complete.\n")
	}
}

func (t *Terminal) ShowFieldError(field regdomain.Field, message string) {
	t.mu.Lock()
	t.errs[field] = message
	t.mu.Unlock()
	if field == regdomain.FieldGeneral {
		t.printf("error: %s\n", message)
		return
	}
	t.printf("error (%s): %s\n", field, message)
}

func (t *Terminal) ClearFieldError(field regdomain.Field) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.errs, field)
}

// FieldError returns the message currently shown for field.
func (t *Terminal) FieldError(field regdomain.Field) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.errs[field]
}

// ShowTimer records the remaining time and prints it on whole minutes.
func (t *Terminal) ShowTimer(remaining string) {
	t.mu.Lock()
	t.timer = remaining
	t.timerVisible = true
	t.mu.Unlock()
	if strings.HasSuffix(remaining, ":00") {
		t.printf("PIN expires in %s\n", remaining)
	}
}

func (t *Terminal) HideTimer() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timerVisible = false
}

// Timer returns the last remaining time and whether the countdown is shown.
func (t *Terminal) Timer() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer, t.timerVisible
}

func (t *Terminal) ShowLoading(text string) { t.printf("%s\n", text) }

func (t *Terminal) HideLoading() {}

func (t *Terminal) ShowInfo(title, message string, success bool) {
	mark := "[ok]"
	if !success {
		mark = "[!!]"
	}
	if message == "" {
		t.printf("%s %s\n", mark, title)
		return
	}
	t.printf("%s %s: %s\n", mark, title, message)
}

func (t *Terminal) ShowExistingAccount() {
	t.printf("An account with this email already exists. Sign in with: %s login\n", CommandName)
}

func (t *Terminal) SetResendEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resendEnabled = enabled
}

// ResendEnabled reports whether a resend may be offered.
func (t *Terminal) ResendEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resendEnabled
}

func (t *Terminal) ShowError(message string) { t.printf("error: %s\n", message) }

func (t *Terminal) ClearError() {}

func (t *Terminal) ShowSuccess(message string) { t.printf("[ok] %s\n", message) }

func (t *Terminal) ShowProfile(p *homedomain.Profile) {
	status := "Inactive"
	if p.Enabled {
		status = "Active"
	}
	verified := "Unverified"
	if p.Verified() {
		verified = "Verified"
	}
	id := "--"
	if p.ID != 0 {
		id = fmt.Sprint(p.ID)
	}
	dob := "Not set"
	if p.DateOfBirth != "" {
		dob = p.DateOfBirth
		if d, err := time.Parse("2006-01-02", p.DateOfBirth); err == nil {
			dob = d.Format(displayDate)
		}
	}
	created := "Unknown"
	if at, ok := p.Created(); ok {
		created = at.Format(displayDate)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	w := tabwriter.NewWriter(t.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Username\t%s\n", p.Username)
	fmt.Fprintf(w, "Email\t%s\n", p.Email())
	fmt.Fprintf(w, "ID\t%s\n", id)
	fmt.Fprintf(w, "Date of birth\t%s\n", dob)
	fmt.Fprintf(w, "Status\t%s\n", status)
	fmt.Fprintf(w, "Email status\t%s\n", verified)
	fmt.Fprintf(w, "Member since\t%s\n", created)
	w.Flush()
}

func (t *Terminal) ShowContacts(contacts []homedomain.Contact) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(contacts) == 0 {
		fmt.Fprintf(t.out, "No trusted contacts yet. Add one with: %s add-contact\n", CommandName)
		return
	}
	w := tabwriter.NewWriter(t.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE\tTYPE\tPRIORITY")
	for _, c := range contacts {
		phone := c.Phone
		if phone == "" {
			phone = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\n", c.ID, c.FullName, c.Email, phone, c.ContactType.DisplayName(), c.PriorityOrder)
	}
	w.Flush()
}

func (t *Terminal) ShowLocation(loc homedomain.Location, addressLabel string) {
	t.printf("Location: %.6f, %.6f\nAddress: %s\n", loc.Latitude, loc.Longitude, addressLabel)
}

func (t *Terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}
