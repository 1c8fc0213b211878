package registration

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"

	"silentsignals/client/internal/registration/domain"
)

// DateLayout is the wire and input format for date of birth.
const DateLayout = "2006-01-02"

const (
	minAgeYears = 18
	maxAgeYears = 125
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const (
	msgEmailRequired    = "Please enter your email address."
	msgEmailInvalid     = "Please enter a valid email address."
	msgPinRequired      = "Please enter the PIN code."
	msgPinLength        = "PIN must be 6 digits."
	msgFieldsRequired   = "All fields are required."
	msgUsernameLength   = "Username must be between 3 and 40 characters long."
	msgPasswordLength   = "Password must be at least 8 characters long."
	msgPasswordDigit    = "Password must contain at least one number."
	msgPasswordMismatch = "Passwords do not match."
	msgDateInvalid      = "Please enter a valid date of birth."
	msgTooYoung         = "You must be at least 18 years old to register."
)

// ValidationError is a local input error shown in an inline slot. No request is sent.
type ValidationError struct {
	Field   domain.Field
	Message string
}

func (e *ValidationError) Error() string {
	return string(e.Field) + ": " + e.Message
}

type check struct {
	field domain.Field
	msg   string
	ok    func() bool
}

// checker runs ordered field checks; the first failure wins.
type checker struct {
	v *validator.Validate
}

func newChecker() *checker {
	v := validator.New()
	_ = v.RegisterValidation("regmail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return &checker{v: v}
}

func (c *checker) is(value, tag string) func() bool {
	return func() bool { return c.v.Var(value, tag) == nil }
}

func firstFailure(checks ...check) error {
	for _, ch := range checks {
		if !ch.ok() {
			return &ValidationError{Field: ch.field, Message: ch.msg}
		}
	}
	return nil
}

// email validates a trimmed address.
func (c *checker) email(email string) error {
	return firstFailure(
		check{domain.FieldEmail, msgEmailRequired, c.is(email, "required")},
		check{domain.FieldEmail, msgEmailInvalid, c.is(email, "regmail")},
	)
}

// pin validates a trimmed PIN: six ASCII digits.
func (c *checker) pin(pin string) error {
	return firstFailure(
		check{domain.FieldPin, msgPinRequired, c.is(pin, "required")},
		check{domain.FieldPin, msgPinLength, c.is(pin, "len=6,number")},
	)
}

// completion validates the password/profile step against today.
// Username must already be trimmed; passwords are taken as typed.
func (c *checker) completion(in CompleteInput, today time.Time) error {
	var birth time.Time
	parsed := func() bool {
		t, err := time.Parse(DateLayout, in.DateOfBirth)
		if err != nil {
			return false
		}
		birth = t
		return true
	}
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	minDate := day.AddDate(-minAgeYears, 0, 0)
	maxDate := day.AddDate(-maxAgeYears, 0, 0)

	return firstFailure(
		check{domain.FieldGeneral, msgFieldsRequired, func() bool {
			return in.Username != "" && in.Password != "" && in.ConfirmPassword != "" && in.DateOfBirth != ""
		}},
		check{domain.FieldUsername, msgUsernameLength, c.is(in.Username, "min=3,max=40")},
		check{domain.FieldPassword, msgPasswordLength, c.is(in.Password, "min=8")},
		check{domain.FieldPassword, msgPasswordDigit, c.is(in.Password, "containsany=0123456789")},
		check{domain.FieldPassword, msgPasswordMismatch, func() bool { return in.Password == in.ConfirmPassword }},
		check{domain.FieldDateOfBirth, msgDateInvalid, parsed},
		check{domain.FieldDateOfBirth, msgTooYoung, func() bool { return !birth.After(minDate) }},
		check{domain.FieldDateOfBirth, msgDateInvalid, func() bool { return !birth.Before(maxDate) }},
	)
}
