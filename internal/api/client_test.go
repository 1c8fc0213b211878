package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	homedomain "silentsignals/client/internal/home/domain"
)

type staticTokens string

func (s staticTokens) Token(context.Context) (string, bool) {
	return string(s), s != ""
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("http://localhost:8080/", 0, nil)
	if c.BaseURL != "http://localhost:8080" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", c.BaseURL)
	}
	if c.HTTPClient == nil {
		t.Fatal("HTTPClient should be set")
	}
	if c.HTTPClient.Timeout != defaultTimeout {
		t.Errorf("HTTPClient.Timeout = %v, want %v", c.HTTPClient.Timeout, defaultTimeout)
	}
}

func TestSendPin_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if r.URL.Path != "/api/register/send-pin" {
			t.Errorf("path = %q, want /api/register/send-pin", r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("X-Request-ID should be set")
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("registration calls must not send Authorization")
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("Decode body: %v", err)
		}
		if body["mail"] != "user@example.com" {
			t.Errorf("mail = %v, want user@example.com", body["mail"])
		}
		w.Write([]byte(`{"success":true,"message":"PIN sent"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second, nil)
	reply, err := c.SendPin(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("SendPin: %v", err)
	}
	if !reply.Success || reply.Message != "PIN sent" {
		t.Errorf("reply = %+v, want success with message", reply)
	}
}

func TestVerifyPin_ApplicationFailureIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["pin"] != "123456" || body["mail"] != "user@example.com" {
			t.Errorf("body = %v", body)
		}
		w.Write([]byte(`{"success":false,"message":"Invalid PIN"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second, nil)
	reply, err := c.VerifyPin(context.Background(), "user@example.com", "123456")
	if err != nil {
		t.Fatalf("VerifyPin: %v", err)
	}
	if reply.Success {
		t.Error("Success should be false")
	}
	if reply.Message != "Invalid PIN" {
		t.Errorf("Message = %q, want Invalid PIN", reply.Message)
	}
}

func TestDo_Non2xxIsTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`<html>oops</html>`))
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second, nil)
	reply, err := c.ResendPin(context.Background(), "user@example.com")
	if err == nil {
		t.Fatal("expected error for 500")
	}
	if !errors.Is(err, ErrTransport) {
		t.Errorf("err = %v, want ErrTransport", err)
	}
	if StatusCode(err) != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", StatusCode(err))
	}
	if reply != nil {
		t.Errorf("reply = %+v, want nil for non-JSON body", reply)
	}
}

func TestDo_Non2xxKeepsJSONEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"success":false,"message":"Rate limit exceeded. Try again in 42 seconds"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second, staticTokens("tok"))
	reply, err := c.SendAlert(context.Background(), AlertRequest{Description: "help"})
	if StatusCode(err) != http.StatusTooManyRequests {
		t.Fatalf("StatusCode = %d, want 429", StatusCode(err))
	}
	if reply == nil || !strings.Contains(reply.Message, "42 seconds") {
		t.Errorf("reply = %+v, want decoded rate limit message", reply)
	}
}

func TestDo_MalformedBodyIsTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second, nil)
	_, err := c.SendPin(context.Background(), "user@example.com")
	if !errors.Is(err, ErrTransport) {
		t.Errorf("err = %v, want ErrTransport", err)
	}
	if StatusCode(err) != 0 {
		t.Errorf("StatusCode = %d, want 0", StatusCode(err))
	}
}

func TestDo_ConnectionErrorIsTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if ok {
			conn, _, _ := hj.Hijack()
			conn.Close()
		}
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second, nil)
	_, err := c.SendPin(context.Background(), "user@example.com")
	if !errors.Is(err, ErrTransport) {
		t.Errorf("err = %v, want ErrTransport", err)
	}
}

func TestAuthenticatedCall_SendsBearer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			t.Errorf("Authorization = %q, want Bearer tok-1", r.Header.Get("Authorization"))
		}
		if r.URL.Path != "/api/user/profile" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"success":true,"data":{"id":3,"username":"vahab","email":"v@example.com","enabled":true}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second, staticTokens("tok-1"))
	env, err := c.Profile(context.Background())
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if env.Data.ID != 3 || env.Data.Username != "vahab" || !env.Data.Enabled {
		t.Errorf("profile = %+v", env.Data)
	}
}

func TestAuthenticatedCall_NoToken(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second, staticTokens(""))
	_, err := c.Contacts(context.Background())
	if !errors.Is(err, ErrNoToken) {
		t.Errorf("err = %v, want ErrNoToken", err)
	}
}

func TestContacts_DecodesList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":[{"id":1,"fullName":"Ana","email":"ana@example.com","contactType":"FAMILY","priorityOrder":1}]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second, staticTokens("tok"))
	env, err := c.Contacts(context.Background())
	if err != nil {
		t.Fatalf("Contacts: %v", err)
	}
	if len(env.Data) != 1 || env.Data[0].ContactType != homedomain.ContactTypeFamily {
		t.Errorf("contacts = %+v", env.Data)
	}
}

func TestAddContact_FieldErrorMapOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if v, ok := body["phone"]; !ok || v != nil {
			t.Errorf("phone = %v, want explicit null", v)
		}
		w.Write([]byte(`{"success":false,"message":"Validation failed","data":{"fullName":"must not be blank"}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second, staticTokens("tok"))
	reply, err := c.AddContact(context.Background(), ContactRequest{Email: "a@b.co", ContactType: homedomain.ContactTypeFriend, PriorityOrder: 1})
	if err != nil {
		t.Fatalf("AddContact: %v", err)
	}
	var fields map[string]string
	if err := json.Unmarshal(reply.Data, &fields); err != nil {
		t.Fatalf("data should be a field map: %v", err)
	}
	if fields["fullName"] != "must not be blank" {
		t.Errorf("fields = %v", fields)
	}
}

func TestDeleteContact_Path(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %q, want DELETE", r.Method)
		}
		if r.URL.Path != "/trusted/api/deleteContact/42" {
			t.Errorf("path = %q, want /trusted/api/deleteContact/42", r.URL.Path)
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second, staticTokens("tok"))
	if _, err := c.DeleteContact(context.Background(), 42); err != nil {
		t.Fatalf("DeleteContact: %v", err)
	}
}

func TestLogin_ReturnsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["username"] != "vahab" || body["password"] != "secret123" {
			t.Errorf("body = %v", body)
		}
		w.Write([]byte(`{"success":true,"token":"jwt-abc"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second, nil)
	reply, err := c.Login(context.Background(), "vahab", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if reply.Token != "jwt-abc" {
		t.Errorf("Token = %q, want jwt-abc", reply.Token)
	}
}
