package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewNominatimClient_Defaults(t *testing.T) {
	c := NewNominatimClient("")
	if c.BaseURL != defaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", c.BaseURL, defaultBaseURL)
	}
	if c.HTTPClient.Timeout != defaultTimeout {
		t.Errorf("Timeout = %v, want %v", c.HTTPClient.Timeout, defaultTimeout)
	}
}

func TestReverse_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Errorf("path = %q, want /reverse", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("format") != "json" || q.Get("lat") != "40.4093" || q.Get("lon") != "49.8671" || q.Get("zoom") != "18" || q.Get("addressdetails") != "1" {
			t.Errorf("query = %v", q)
		}
		if r.Header.Get("User-Agent") != defaultUserAgent {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.Write([]byte(`{"display_name":"Fountains Square, Baku, Azerbaijan"}`))
	}))
	defer server.Close()

	addr, err := NewNominatimClient(server.URL).Reverse(context.Background(), 40.4093, 49.8671)
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if addr != "Fountains Square, Baku, Azerbaijan" {
		t.Errorf("addr = %q", addr)
	}
}

func TestReverse_NoAddress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer server.Close()

	_, err := NewNominatimClient(server.URL).Reverse(context.Background(), 0, 0)
	if !errors.Is(err, ErrNoAddress) {
		t.Errorf("err = %v, want ErrNoAddress", err)
	}
}

func TestReverse_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewNominatimClient(server.URL).Reverse(context.Background(), 1, 2)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestReverse_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	c := NewNominatimClient(server.URL)
	c.HTTPClient.Timeout = 20 * time.Millisecond
	_, err := c.Reverse(context.Background(), 1, 2)
	if err == nil || errors.Is(err, ErrUnavailable) || errors.Is(err, ErrNoAddress) {
		t.Errorf("err = %v, want request failure", err)
	}
}
