package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
)

var (
	ErrTokenNotConfigured = errors.New("API token not configured")
	ErrInvalidToken       = errors.New("invalid API token")
)

// ValidateToken compares a presented token with the configured one in
// constant time.
func ValidateToken(expected, token string) error {
	if expected == "" {
		return ErrTokenNotConfigured
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
		return ErrInvalidToken
	}
	return nil
}

// ExtractToken extracts the token from an Authorization header
func ExtractToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("missing Authorization header")
	}

	// Support "Bearer {token}" format
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", errors.New("invalid Authorization header format")
	}

	if !strings.EqualFold(scheme, "bearer") {
		return "", errors.New("authorization header must use Bearer scheme")
	}

	return strings.TrimSpace(token), nil
}
