// Package token inspects gateway-issued bearer tokens.
//
// The gateway signs its own tokens and is the only party that verifies
// them; the portal just stores and forwards the credential. Inspection
// here is unverified: it reads the expiry and subject claims when the
// token happens to be a JWT, so the session store can align its TTL with
// the token's real lifetime, and degrades to "opaque" for anything else.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Info is the claim subset extracted from a bearer token.
type Info struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Inspect extracts [Info] from raw without verifying its signature.
// The second return is false when raw is not a parseable JWT; such
// opaque tokens are still valid credentials, just not introspectable.
func Inspect(raw string) (Info, bool) {
	parser := jwt.NewParser()
	claims := jwt.RegisteredClaims{}

	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return Info{}, false
	}

	info := Info{Subject: claims.Subject}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, true
}

// TTL returns the storage lifetime to use for raw as of now: the time
// until the token's expiry claim, or fallback when the token is opaque,
// carries no expiry, or is already expired.
func TTL(raw string, now time.Time, fallback time.Duration) time.Duration {
	info, ok := Inspect(raw)
	if !ok || info.ExpiresAt.IsZero() {
		return fallback
	}

	d := info.ExpiresAt.Sub(now)
	if d <= 0 {
		return fallback
	}
	return d
}
