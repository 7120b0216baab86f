package auth

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestKeyAuthenticator(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-key"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	a := NewKeyAuthenticator(string(hash))

	if err := a.Authenticate("secret-key"); err != nil {
		t.Errorf("valid key rejected: %v", err)
	}
	if err := a.Authenticate("wrong-key"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("invalid key: got %v, want ErrUnauthenticated", err)
	}
	if err := a.Authenticate(""); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("empty key: got %v, want ErrUnauthenticated", err)
	}
}

func TestStaticAuthenticator(t *testing.T) {
	a := NewStaticAuthenticator()
	if err := a.Authenticate("anything"); err != nil {
		t.Errorf("static authenticator must accept all callers, got %v", err)
	}
	if err := a.Authenticate(""); err != nil {
		t.Errorf("static authenticator must accept empty tokens, got %v", err)
	}
}
