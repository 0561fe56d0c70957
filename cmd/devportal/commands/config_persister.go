package commands

import (
	"sync"
	"time"

	"github.com/keboola/developer-portal-client-go/pkg/devportal"
)

// ConfigPersister implements the devportal.CredentialsPersister interface
// by writing refreshed tokens back to the CLI configuration file.
type ConfigPersister struct {
	mutex sync.Mutex
}

// NewConfigPersister creates a new config persister.
func NewConfigPersister() *ConfigPersister {
	return &ConfigPersister{}
}

// UpdateCredentials stores the session tokens and related metadata in the config.
func (p *ConfigPersister) UpdateCredentials(creds devportal.Credentials, expiresAt time.Time) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	config := loadConfig()

	config.Token = creds.Token
	if creds.AccessToken != "" {
		config.AccessToken = creds.AccessToken
	}

	if creds.RefreshToken != "" {
		config.RefreshToken = creds.RefreshToken
	}

	config.TokenExpiresAt = nil
	if !expiresAt.IsZero() {
		config.TokenExpiresAt = &expiresAt
	}

	now := time.Now()
	config.LastRefreshed = &now

	return saveConfigStruct(config)
}
