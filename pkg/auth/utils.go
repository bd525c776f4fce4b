package auth

import (
	"errors"
	"net/http"
	"strings"
)

// bearerTokenType is the expected scheme for Authorization headers.
const bearerTokenType = "Bearer"

// Bearer token extraction errors.
var (
	ErrAuthHeaderMissing       = errors.New("authorization header required")
	ErrInvalidAuthHeaderFormat = errors.New("invalid authorization header format, expected 'Bearer <token>'")
	ErrEmptyBearerToken        = errors.New("empty token in authorization header")
)

// ExtractBearerToken extracts and validates a Bearer token from the Authorization
// header. It verifies the header is present, checks for the "Bearer " prefix
// (case-sensitive per RFC 6750), and ensures the token is non-empty.
//
// Callers are responsible for resolving the token against the token cache and
// converting failures into the appropriate HTTP response.
//
// See https://datatracker.ietf.org/doc/html/rfc6750#section-2.1.
func ExtractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrAuthHeaderMissing
	}

	bearerPrefix := bearerTokenType + " "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthHeaderFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if strings.TrimSpace(token) == "" {
		return "", ErrEmptyBearerToken
	}

	return token, nil
}
