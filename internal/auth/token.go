package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/keboola/developer-portal-client-go/internal/constants"
)

// TokenExpiry reads the exp claim of a JWT bearer token without verifying its signature.
func TokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}

	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", constants.ErrInvalidJWTFormat, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", constants.ErrInvalidJWTFormat, err)
	}

	if exp == nil {
		return time.Time{}, constants.ErrNoExpirationClaim
	}

	return exp.Time, nil
}

// IsTokenExpiringSoon returns true if the token expires within the given
// duration. Tokens without a readable expiry are never reported as expiring.
func IsTokenExpiringSoon(token string, within time.Duration) bool {
	expiresAt, err := TokenExpiry(token)
	if err != nil {
		return false
	}

	return time.Now().Add(within).After(expiresAt)
}
