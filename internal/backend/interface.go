package backend

import (
	"context"
	"time"

	"budgetui/internal/budgetapi"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the budget API and optional cleanup function
type BackendResult struct {
	API     budgetapi.API
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a budget API based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// Remote API specific
	BaseURL string
	Timeout time.Duration

	// Memory backend specific
	SeedFile string

	// SQLite backend specific
	SQLiteDBPath string
}

// BackendType represents the type of backend
type BackendType string

const (
	RemoteBackend BackendType = "remote"
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case RemoteBackend, MemoryBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
