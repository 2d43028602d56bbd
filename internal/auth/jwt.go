package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Expired reports whether token is a JWT whose exp claim has passed. Tokens
// that do not parse as JWTs are treated as opaque and never reported expired;
// verification is the server's job, this is only a fail-fast check before
// issuing a doomed request.
func Expired(token string, now time.Time) bool {
	if token == "" {
		return false
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Time.Before(now)
}
