package auth

import (
	"fmt"
	"time"

	"github.com/keboola/developer-portal-client-go/internal/constants"
	"github.com/keboola/developer-portal-client-go/pkg/devportal"
)

// persist hands the tokens to the persister. A failure is logged and does not
// fail the login or refresh that produced the tokens.
func (a *Authenticator) persist(creds devportal.Credentials) {
	err := a.persistCredentials(creds)
	if err != nil {
		a.logger.Warn("Failed to persist credentials", map[string]interface{}{"error": err.Error()})
	}
}

func (a *Authenticator) persistCredentials(creds devportal.Credentials) error {
	if a.persister == nil {
		return nil
	}

	// Tokens that are not JWTs simply carry no expiry.
	expiresAt, _ := TokenExpiry(creds.Token)

	err := a.persister.UpdateCredentials(creds, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to update credentials: %w", err)
	}

	return nil
}

// PersisterFunc adapts a function to devportal.CredentialsPersister.
type PersisterFunc func(creds devportal.Credentials, expiresAt time.Time) error

// UpdateCredentials implements devportal.CredentialsPersister.
func (f PersisterFunc) UpdateCredentials(creds devportal.Credentials, expiresAt time.Time) error {
	if f == nil {
		return constants.ErrNoConfigPersister
	}

	return f(creds, expiresAt)
}
