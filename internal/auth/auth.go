// Package auth authenticates callers of the gateway's own HTTP surface.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrUnauthenticated is returned for missing or invalid credentials.
var ErrUnauthenticated = errors.New("invalid or missing API key")

// Authenticator validates a caller-supplied bearer token.
type Authenticator interface {
	Authenticate(token string) error
}

// KeyAuthenticator checks the token against a bcrypt hash from
// configuration. The plaintext key never lives in the process.
type KeyAuthenticator struct {
	hash []byte
}

// NewKeyAuthenticator creates an authenticator for the given bcrypt hash.
func NewKeyAuthenticator(bcryptHash string) *KeyAuthenticator {
	return &KeyAuthenticator{hash: []byte(bcryptHash)}
}

func (a *KeyAuthenticator) Authenticate(token string) error {
	if token == "" {
		return ErrUnauthenticated
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(token)); err != nil {
		return ErrUnauthenticated
	}
	return nil
}
