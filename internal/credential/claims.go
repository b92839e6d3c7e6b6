package credential

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields of a JWT credential the client cares about.
type Claims struct {
	Subject   string
	Username  string
	ExpiresAt time.Time
}

// ParseClaims decodes a JWT credential without verifying its signature. The
// backend verifies; the client only reads expiry and identity for display.
// Opaque, non-JWT credentials return an error.
func ParseClaims(token string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, fmt.Errorf("parsing credential claims: %w", err)
	}

	var c Claims
	if sub, err := mc.GetSubject(); err == nil {
		c.Subject = sub
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if name, ok := mc["username"].(string); ok {
		c.Username = name
	}
	return c, nil
}

// Expired reports whether token is a JWT whose exp is at or before now.
// Opaque credentials never expire client-side.
func Expired(token string, now time.Time) bool {
	c, err := ParseClaims(token)
	if err != nil || c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(c.ExpiresAt)
}
