package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the token claims this core reads. The server signs and verifies
// tokens; the client only inspects them, so parsing here is unverified.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// ParseClaims decodes a bearer token without verifying its signature.
func ParseClaims(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrUnauthenticated
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrMalformedToken
	}
	return claims, nil
}

// TokenExpiresAt returns the expiry of a bearer token.
func TokenExpiresAt(tokenString string) (time.Time, error) {
	claims, err := ParseClaims(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrMalformedToken
	}
	return claims.ExpiresAt.Time, nil
}

// TokenExpired reports whether a bearer token is past its expiry. Tokens
// that cannot be parsed count as expired, so callers fail closed.
func TokenExpired(tokenString string, now time.Time) bool {
	exp, err := TokenExpiresAt(tokenString)
	if err != nil {
		return true
	}
	return !now.Before(exp)
}
