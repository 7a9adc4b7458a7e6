package credential

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Expiry returns the "exp" claim of a JWT token. ok is false for opaque
// tokens and JWTs without an expiry.
func Expiry(token string) (exp time.Time, ok bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	date, err := claims.GetExpirationTime()
	if err != nil || date == nil {
		return time.Time{}, false
	}
	return date.Time, true
}

// Expired reports whether token carries an expiry that is not after now.
// Tokens without a readable expiry are never reported expired.
func Expired(token string, now time.Time) bool {
	exp, ok := Expiry(token)
	return ok && !exp.After(now)
}
