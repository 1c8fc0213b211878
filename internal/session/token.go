// Package session stores the bearer token returned by login.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned by ParseClaims when the token is not a three-part JWT.
var ErrNotJWT = errors.New("session: token is not a JWT")

// Store holds the bearer token for authenticated API calls.
type Store interface {
	// Token returns the stored token if present and not expired.
	Token(ctx context.Context) (string, bool)
	// Put replaces the stored token.
	Put(ctx context.Context, token string) error
	// Clear removes the stored token. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// Claims is what the client reads from a bearer token without verifying it.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// ParseClaims reads sub and exp from token without checking the signature; the server verifies.
// ExpiresAt is zero when the token carries no exp.
func ParseClaims(token string) (*Claims, error) {
	if strings.Count(token, ".") != 2 {
		return nil, ErrNotJWT
	}
	var rc jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &rc); err != nil {
		return nil, err
	}
	c := &Claims{Subject: rc.Subject}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	return c, nil
}

// expired reports whether token carries an exp at or before now. Opaque tokens never expire locally.
func expired(token string, now time.Time) bool {
	c, err := ParseClaims(token)
	if err != nil || c.ExpiresAt.IsZero() {
		return false
	}
	return !c.ExpiresAt.After(now)
}
