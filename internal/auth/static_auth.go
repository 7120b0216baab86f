package auth

// StaticAuthenticator is a development-only authenticator that accepts any
// caller. Used when no API key hash is configured.
type StaticAuthenticator struct{}

func NewStaticAuthenticator() *StaticAuthenticator {
	return &StaticAuthenticator{}
}

func (a *StaticAuthenticator) Authenticate(string) error { return nil }
