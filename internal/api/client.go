// Package api is the HTTP JSON client for the SilentSignals server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTimeout = 15 * time.Second

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 1 << 20

var (
	// ErrTransport covers connectivity loss, non-2xx statuses and unparseable bodies.
	// Callers show a generic "try again" message for it.
	ErrTransport = errors.New("api: transport failure")
	// ErrNoToken is returned by authenticated calls when no bearer token is stored.
	ErrNoToken = errors.New("api: not signed in")
)

// StatusError is returned for a non-2xx response. It matches ErrTransport via errors.Is.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: server returned %s", e.Status)
}

// Unwrap makes every StatusError a transport failure.
func (e *StatusError) Unwrap() error { return ErrTransport }

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// Envelope is the server's {success, message, data} response shape. Login adds token.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
	Token   string `json:"token,omitempty"`
}

// Reply is an envelope whose data is left undecoded.
type Reply = Envelope[json.RawMessage]

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// Client calls the SilentSignals HTTP API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenSource

	tracer trace.Tracer
}

// NewClient returns a client for baseURL. timeout <= 0 uses 15s. tokens may be nil when only
// unauthenticated registration and login calls are made.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		Tokens:     tokens,
		tracer:     otel.Tracer("silentsignals/client/api"),
	}
}

// doJSON sends payload (nil for none) and decodes the envelope. On a non-2xx status the
// envelope is still returned when the body decodes, together with a *StatusError.
func doJSON[R any](ctx context.Context, c *Client, method, path string, payload any, auth bool) (*Envelope[R], error) {
	ctx, span := c.tracer.Start(ctx, method+" "+path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
	)

	env, err := c.roundTrip(ctx, span, method, path, payload, auth)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return decodeAs[R](env, err)
}

func (c *Client) roundTrip(ctx context.Context, span trace.Span, method, path string, payload any, auth bool) (*Reply, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("api: encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("api: build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.New().String()
	req.Header.Set("X-Request-ID", reqID)
	span.SetAttributes(attribute.String("request.id", reqID))

	if auth {
		var token string
		var ok bool
		if c.Tokens != nil {
			token, ok = c.Tokens.Token(ctx)
		}
		if !ok || token == "" {
			return nil, ErrNoToken
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}

	var env Reply
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{Code: resp.StatusCode, Status: resp.Status}
		if decodeErr != nil {
			return nil, statusErr
		}
		return &env, statusErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrTransport, decodeErr)
	}
	return &env, nil
}

func decodeAs[R any](env *Reply, err error) (*Envelope[R], error) {
	if env == nil {
		return nil, err
	}
	out := &Envelope[R]{Success: env.Success, Message: env.Message, Token: env.Token}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if decErr := json.Unmarshal(env.Data, &out.Data); decErr != nil && err == nil {
			// data is untyped on failure replies (e.g. a field error map); only a
			// successful reply with the wrong shape is a transport problem.
			if out.Success {
				return nil, fmt.Errorf("%w: decode data: %v", ErrTransport, decErr)
			}
		}
	}
	return out, err
}
