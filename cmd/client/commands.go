package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"silentsignals/client/internal/home"
	"silentsignals/client/internal/login"
	"silentsignals/client/internal/registration"
	regdomain "silentsignals/client/internal/registration/domain"
	"silentsignals/client/internal/ui"
)

var errUsage = errors.New("usage")

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"register":       runRegister,
	"login":          runLogin,
	"profile":        runProfile,
	"contacts":       runContacts,
	"add-contact":    runAddContact,
	"delete-contact": runDeleteContact,
	"sos":            runSOS,
	"logout":         runLogout,
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		fmt.Printf("%s: %v\n", fs.Name(), err)
		return errUsage
	}
	return nil
}

// awaitNavigation blocks until a controller navigates or ctx ends.
func (a *app) awaitNavigation(ctx context.Context) {
	select {
	case <-a.term.Navigations():
	case <-ctx.Done():
	}
}

func runRegister(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	email := fs.String("email", "", "email address (prompted when empty)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	ctrl := registration.NewController(a.client, a.term, registration.Options{
		Events:     a.events,
		SupportURL: a.cfg.SupportURL,
	})
	defer ctrl.Close()

	a.term.ShowStep(regdomain.StepCollectEmail)
	for {
		addr := *email
		*email = ""
		if addr == "" {
			var err error
			if addr, err = a.term.Prompt("Email"); err != nil {
				return err
			}
		}
		err := ctrl.RequestPin(ctx, registration.RequestPinInput{Email: addr})
		if err == nil {
			break
		}
		if errors.Is(err, registration.ErrAlreadyRegistered) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	mail := ctrl.Snapshot().Email
	for {
		in, err := a.term.Prompt("PIN")
		if err != nil {
			return err
		}
		if strings.EqualFold(in, "resend") {
			// limit and in-flight refusals have already been shown
			_ = ctrl.ResendPin(ctx, registration.ResendPinInput{Email: mail})
			continue
		}
		if err := ctrl.VerifyPin(ctx, registration.VerifyPinInput{Email: mail, Pin: in}); err == nil {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	for {
		form, err := promptCompletion(a, mail)
		if err != nil {
			return err
		}
		if err := ctrl.CompleteRegistration(ctx, form); err == nil {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	a.awaitNavigation(ctx)
	fmt.Printf("Sign in with: %s login\n", ui.CommandName)
	return nil
}

func promptCompletion(a *app, mail string) (registration.CompleteInput, error) {
	in := registration.CompleteInput{Email: mail}
	fields := []struct {
		label string
		dst   *string
	}{
		{"Username", &in.Username},
		{"Password", &in.Password},
		{"Confirm password", &in.ConfirmPassword},
		{"Date of birth (YYYY-MM-DD)", &in.DateOfBirth},
	}
	for _, f := range fields {
		v, err := a.term.Prompt(f.label)
		if err != nil {
			return in, err
		}
		*f.dst = v
	}
	return in, nil
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	user := fs.String("u", "", "username or email (prompted when empty)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *user == "" {
		v, err := a.term.Prompt("Username or email")
		if err != nil {
			return err
		}
		*user = v
	}
	password, err := a.term.Prompt("Password")
	if err != nil {
		return err
	}

	ctrl := login.NewController(a.client, a.store, a.term, nil, a.events)
	if err := ctrl.Login(ctx, *user, password); err != nil {
		return err
	}
	a.awaitNavigation(ctx)
	return nil
}

func (a *app) home() *home.Controller {
	return home.NewController(a.client, a.store, a.geo, a.term, a.events)
}

// signedIn reports whether a token is stored, telling the user how to sign in when it is not.
func (a *app) signedIn(ctx context.Context) bool {
	if _, ok := a.store.Token(ctx); ok {
		return true
	}
	fmt.Printf("Not signed in. Run: %s login\n", ui.CommandName)
	return false
}

func runProfile(ctx context.Context, a *app, args []string) error {
	if err := parseFlags(flag.NewFlagSet("profile", flag.ContinueOnError), args); err != nil {
		return err
	}
	if !a.signedIn(ctx) {
		return home.ErrSignedOut
	}
	_, err := a.home().LoadProfile(ctx)
	return err
}

func runContacts(ctx context.Context, a *app, args []string) error {
	if err := parseFlags(flag.NewFlagSet("contacts", flag.ContinueOnError), args); err != nil {
		return err
	}
	if !a.signedIn(ctx) {
		return home.ErrSignedOut
	}
	_, err := a.home().LoadContacts(ctx)
	return err
}

func runAddContact(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("add-contact", flag.ContinueOnError)
	var in home.ContactInput
	fs.StringVar(&in.FullName, "name", "", "full name")
	fs.StringVar(&in.Email, "email", "", "email address")
	fs.StringVar(&in.Phone, "phone", "", "phone number (optional)")
	fs.StringVar(&in.ContactType, "type", "", "FAMILY, FRIEND, EMERGENCY_CONTACT, NEIGHBOR, COLLEAGUE or OTHER")
	fs.IntVar(&in.Priority, "priority", 1, "priority order, 1 to 10")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if !a.signedIn(ctx) {
		return home.ErrSignedOut
	}
	in.ContactType = strings.ToUpper(in.ContactType)
	h := a.home()
	if _, err := h.LoadProfile(ctx); err != nil {
		return err
	}
	return h.AddContact(ctx, in)
}

func runDeleteContact(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("delete-contact", flag.ContinueOnError)
	id := fs.Int64("id", 0, "contact id (see: client contacts)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		fmt.Println("delete-contact: -id is required")
		return errUsage
	}
	if !a.signedIn(ctx) {
		return home.ErrSignedOut
	}
	h := a.home()
	if _, err := h.LoadProfile(ctx); err != nil {
		return err
	}
	return h.DeleteContact(ctx, *id)
}

func runSOS(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("sos", flag.ContinueOnError)
	lat := fs.String("lat", "", "latitude")
	lng := fs.String("lng", "", "longitude")
	description := fs.String("m", "", "emergency description")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if !a.signedIn(ctx) {
		return home.ErrSignedOut
	}
	h := a.home()
	if *lat != "" || *lng != "" {
		la, errLat := strconv.ParseFloat(*lat, 64)
		ln, errLng := strconv.ParseFloat(*lng, 64)
		if errLat != nil || errLng != nil {
			fmt.Println("sos: -lat and -lng must both be numbers")
			return errUsage
		}
		h.Locate(ctx, la, ln)
	}
	return h.SendSOS(ctx, *description)
}

func runLogout(ctx context.Context, a *app, args []string) error {
	if err := parseFlags(flag.NewFlagSet("logout", flag.ContinueOnError), args); err != nil {
		return err
	}
	return a.home().Logout(ctx)
}
