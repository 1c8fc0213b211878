package home

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	contactEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern        = regexp.MustCompile(`^\+?[0-9\-\s()]{10,}$`)
)

// contactForm is the normalized add-contact input.
type contactForm struct {
	FullName      string `validate:"required"`
	Email         string `validate:"required,contactemail"`
	ContactType   string `validate:"required"`
	Phone         string `validate:"omitempty,phone"`
	PriorityOrder int    `validate:"min=1,max=10"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("contactemail", func(fl validator.FieldLevel) bool {
		return contactEmailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// contactFormMessage returns the message for the first failing rule, or "" when the form is valid.
// Missing required fields are reported before any format rule.
func contactFormMessage(v *validator.Validate, f contactForm) string {
	err := v.Struct(f)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	failed := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		failed[fe.Field()] = fe.Tag()
	}
	for _, field := range []string{"FullName", "Email", "ContactType"} {
		if failed[field] == "required" {
			return msgContactRequired
		}
	}
	switch {
	case failed["Email"] != "":
		return msgContactEmail
	case failed["Phone"] != "":
		return msgContactPhone
	case failed["PriorityOrder"] != "":
		return msgContactPriority
	}
	return msgContactRequired
}
