package credential

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenExpiry reads the exp claim of the access token without checking
// its signature; the backend remains the authority on validity. It returns
// false for anonymous stores, opaque tokens and tokens without exp.
func (s *Store) AccessTokenExpiry() (time.Time, bool) {
	return tokenExpiry(s.AccessToken())
}

func tokenExpiry(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
