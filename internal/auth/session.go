// Package auth keeps the session state of the developer portal client and
// performs the login and token refresh exchanges.
package auth

import (
	"sync"

	"github.com/keboola/developer-portal-client-go/pkg/devportal"
)

// Session holds the identity and tokens of one client. It is safe for concurrent use.
type Session struct {
	mutex    sync.RWMutex
	identity devportal.Identity
	creds    devportal.Credentials
}

// NewSession creates a session with the given initial tokens.
func NewSession(creds devportal.Credentials) *Session {
	return &Session{creds: creds}
}

// Credentials returns a snapshot of the tokens.
func (s *Session) Credentials() devportal.Credentials {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.creds
}

// Identity returns the identity of the last explicit login.
func (s *Session) Identity() devportal.Identity {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.identity
}

// Token returns the bearer token, empty before login.
func (s *Session) Token() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.creds.Token
}

// SetCredentials replaces every token that is non-empty in creds and keeps the others.
func (s *Session) SetCredentials(creds devportal.Credentials) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if creds.Token != "" {
		s.creds.Token = creds.Token
	}

	if creds.AccessToken != "" {
		s.creds.AccessToken = creds.AccessToken
	}

	if creds.RefreshToken != "" {
		s.creds.RefreshToken = creds.RefreshToken
	}
}

// Clear forgets the identity and every token.
func (s *Session) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.identity = devportal.Identity{}
	s.creds = devportal.Credentials{}
}

func (s *Session) setIdentity(identity devportal.Identity) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.identity = identity
}

// replaceCredentials sets all three tokens, clearing those missing in creds.
func (s *Session) replaceCredentials(creds devportal.Credentials) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.creds = creds
}

func (s *Session) setToken(token string) devportal.Credentials {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.creds.Token = token

	return s.creds
}
