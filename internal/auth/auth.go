// Package auth checks the shared token that bridge callers present.
//
// It intentionally avoids policy decisions and storage concerns.
package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
)

var ErrUnauthorized = errors.New("auth: unauthorized")

// Validator validates a caller token.
type Validator interface {
	Validate(token string) error
}

// StaticToken accepts exactly one shared token. An empty stored token denies everyone.
type StaticToken struct {
	Token string
}

func (s StaticToken) Validate(token string) error {
	if s.Token == "" {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(s.Token), []byte(token)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// Open accepts every caller. Used when the host has no token configured.
type Open struct{}

func (Open) Validate(string) error {
	return nil
}

// FromConfig returns StaticToken for a non-blank token and Open otherwise.
func FromConfig(token string) Validator {
	token = strings.TrimSpace(token)
	if token == "" {
		return Open{}
	}
	return StaticToken{Token: token}
}

// BearerToken extracts the token from an HTTP Authorization header value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	const prefix = "bearer "
	if len(header) >= len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
