// Package session carries the backend identity the agent was configured
// with: base URL, bearer token, device id. One Session is built at startup
// and injected into every component that talks to the backend; nothing in
// the process reads token state from a global.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the immutable per-process backend identity.
type Session struct {
	BaseURL  string
	Token    string
	DeviceID string

	// Subject and ExpiresAt come from the token's unverified claims. The
	// agent is not the token issuer and holds no verification key; the
	// claims are read only to attribute local audit entries and to warn
	// before the backend starts rejecting calls.
	Subject   string
	ExpiresAt time.Time
}

// New builds a Session from configuration. A token that does not parse as a
// JWT is kept as an opaque bearer credential with no claim metadata.
func New(baseURL, token, deviceID string) (*Session, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("session: base URL is required")
	}
	s := &Session{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Token:    token,
		DeviceID: deviceID,
	}
	if token == "" {
		return s, nil
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	unverified, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return s, nil
	}
	claims, ok := unverified.Claims.(jwt.MapClaims)
	if !ok {
		return s, nil
	}

	s.Subject, _ = claims["sub"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
	}
	return s, nil
}

// Expired reports whether the token carried an exp claim that has passed.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Actor returns the identity recorded on audit entries: the token subject
// when known, otherwise the device id.
func (s *Session) Actor() string {
	if s.Subject != "" {
		return s.Subject
	}
	return s.DeviceID
}
