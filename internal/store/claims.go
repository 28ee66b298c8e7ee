package store

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry derives the storage expiry for a bearer token. When the token
// is a JWT with an exp claim, that claim wins; otherwise the fallback TTL
// applies. The token is not verified here — the backend is the authority on
// validity, this only bounds how long we keep the credential around.
func TokenExpiry(token string, fallbackTTL time.Duration, now time.Time) time.Time {
	fallback := now.Add(fallbackTTL)

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return fallback
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return fallback
	}
	if !exp.Time.After(now) {
		return fallback
	}
	return exp.Time
}
