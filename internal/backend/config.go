package backend

import (
	"errors"
	"fmt"

	"budgetui/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.APIBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.APIBackend)
	}

	return Config{
		Type:         backendType,
		BaseURL:      appConfig.APIBaseURL,
		Timeout:      appConfig.APITimeout,
		SeedFile:     appConfig.MemorySeedFile,
		SQLiteDBPath: appConfig.SQLiteDBPath,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	if c.Type == RemoteBackend && c.BaseURL == "" {
		return errors.New("API base URL is required for remote backend")
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return errors.New("SQLite database path is required for sqlite backend")
	}
	return nil
}
