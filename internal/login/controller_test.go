package login

import (
	"context"
	"errors"
	"testing"
	"time"

	"silentsignals/client/internal/api"
	"silentsignals/client/internal/platform/clock"
	"silentsignals/client/internal/session"
)

type fakeAPI struct {
	calls int
	reply *api.Reply
	err   error
}

func (f *fakeAPI) Login(ctx context.Context, usernameOrMail, password string) (*api.Reply, error) {
	f.calls++
	return f.reply, f.err
}

type recordingPresenter struct {
	errMsg    string
	infos     []string
	navigated []string
}

func (p *recordingPresenter) ShowError(message string)                { p.errMsg = message }
func (p *recordingPresenter) ClearError()                             { p.errMsg = "" }
func (p *recordingPresenter) ShowLoading(string)                      {}
func (p *recordingPresenter) HideLoading()                            {}
func (p *recordingPresenter) ShowInfo(title, message string, ok bool) { p.infos = append(p.infos, message) }
func (p *recordingPresenter) Navigate(path string)                    { p.navigated = append(p.navigated, path) }

func setup(reply *api.Reply, err error) (*Controller, *fakeAPI, *session.MemoryStore, *recordingPresenter, *clock.Fake) {
	fa := &fakeAPI{reply: reply, err: err}
	store := session.NewMemoryStore()
	view := &recordingPresenter{}
	fake := clock.NewFake(time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC))
	return NewController(fa, store, view, fake, nil), fa, store, view, fake
}

func TestLogin_MissingFieldsNoRequest(t *testing.T) {
	for _, tc := range []struct{ user, pass string }{{"", "secret"}, {"  ", "secret"}, {"vahab", ""}} {
		c, fa, _, view, _ := setup(nil, nil)
		err := c.Login(context.Background(), tc.user, tc.pass)
		if !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("Login(%q, %q) err = %v, want ErrMissingCredentials", tc.user, tc.pass, err)
		}
		if fa.calls != 0 {
			t.Errorf("calls = %d, want 0", fa.calls)
		}
		if view.errMsg != msgMissing {
			t.Errorf("error = %q, want %q", view.errMsg, msgMissing)
		}
	}
}

func TestLogin_SuccessStoresTokenAndRedirects(t *testing.T) {
	c, _, store, view, fake := setup(&api.Reply{Success: true, Token: "tok-1"}, nil)
	if err := c.Login(context.Background(), "vahab", "secret123"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if tok, ok := store.Token(context.Background()); !ok || tok != "tok-1" {
		t.Errorf("stored token = %q, %v, want tok-1", tok, ok)
	}
	if len(view.infos) != 1 || view.infos[0] != msgSuccess {
		t.Errorf("infos = %v, want [%s]", view.infos, msgSuccess)
	}
	pending := fake.Pending()
	if len(pending) != 1 || pending[0] != 2*time.Second {
		t.Fatalf("pending = %v, want one 2s redirect", pending)
	}
	fake.Fire()
	if len(view.navigated) != 1 || view.navigated[0] != HomePath {
		t.Errorf("navigated = %v, want [%s]", view.navigated, HomePath)
	}
}

func TestLogin_RejectedUsesServerMessage(t *testing.T) {
	c, _, store, view, _ := setup(&api.Reply{Success: false, Message: "Invalid credentials"}, nil)
	err := c.Login(context.Background(), "vahab", "wrong")
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("err = %v, want ErrRejected", err)
	}
	if view.errMsg != "Invalid credentials" {
		t.Errorf("error = %q", view.errMsg)
	}
	if _, ok := store.Token(context.Background()); ok {
		t.Error("no token should be stored")
	}
}

func TestLogin_RejectedFallbackMessage(t *testing.T) {
	c, _, _, view, _ := setup(&api.Reply{Success: false}, nil)
	c.Login(context.Background(), "vahab", "wrong")
	if view.errMsg != msgFailed {
		t.Errorf("error = %q, want %q", view.errMsg, msgFailed)
	}
}

func TestLogin_TransportFailureGeneric(t *testing.T) {
	c, _, _, view, fake := setup(nil, &api.StatusError{Code: 500, Status: "500 Internal Server Error"})
	err := c.Login(context.Background(), "vahab", "secret123")
	if !errors.Is(err, api.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	if view.errMsg != msgTryAgain {
		t.Errorf("error = %q, want generic message", view.errMsg)
	}
	if len(fake.Pending()) != 0 {
		t.Error("no redirect expected")
	}
}
