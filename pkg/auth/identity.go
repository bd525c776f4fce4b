// Package auth provides authentication primitives for the agent credential proxy:
// bearer-token identification on the data plane and password-gated sessions on the
// management plane.
package auth

import (
	"encoding/json"
	"fmt"
)

// Identity represents an authenticated agent presenting a bearer token on the
// data plane. The management API verifies the operator's password per request
// and does not build an Identity for it.
type Identity struct {
	// Subject is the name of the agent token that authenticated.
	Subject string

	// TokenValue is the raw bearer token value. Redacted in String() and
	// MarshalJSON() to prevent leakage into logs or API responses.
	TokenValue string

	// TokenType is the scheme used to authenticate; the bearer middleware sets
	// it to "bearer".
	TokenType string
}

// String returns a string representation of the Identity with the token redacted.
func (i *Identity) String() string {
	if i == nil {
		return "<nil>"
	}
	return fmt.Sprintf("Identity{Subject:%q}", i.Subject)
}

// MarshalJSON implements json.Marshaler, redacting the token value.
func (i *Identity) MarshalJSON() ([]byte, error) {
	if i == nil {
		return []byte("null"), nil
	}

	type safeIdentity struct {
		Subject    string `json:"subject"`
		TokenValue string `json:"tokenValue"`
		TokenType  string `json:"tokenType"`
	}

	token := i.TokenValue
	if token != "" {
		token = "REDACTED"
	}

	return json.Marshal(&safeIdentity{
		Subject:    i.Subject,
		TokenValue: token,
		TokenType:  i.TokenType,
	})
}
