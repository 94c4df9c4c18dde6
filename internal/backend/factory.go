package backend

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"budgetui/internal/budgetapi"
	"budgetui/internal/budgetapi/memory"
	applog "budgetui/internal/log"
	"budgetui/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger   *applog.Logger
	observer budgetapi.CallObserver
}

// NewFactory creates a new backend factory. observer may be nil.
func NewFactory(logger *applog.Logger, observer budgetapi.CallObserver) Factory {
	if logger == nil {
		logger = applog.Discard()
	}
	return &DefaultFactory{
		logger:   logger.WithComponent(applog.ComponentBackend),
		observer: observer,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case RemoteBackend:
		return f.createRemoteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createRemoteBackend(config Config) (*BackendResult, error) {
	hc := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	opts := []budgetapi.Option{
		budgetapi.WithHTTPClient(hc),
		budgetapi.WithLogger(f.logger),
	}
	if config.Timeout > 0 {
		opts = append(opts, budgetapi.WithTimeout(config.Timeout))
	}
	if f.observer != nil {
		opts = append(opts, budgetapi.WithObserver(f.observer))
	}

	client, err := budgetapi.NewClient(config.BaseURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize budget API client: %w", err)
	}

	f.logger.Info("Initialized remote budget API",
		"base_url", config.BaseURL,
		"timeout", config.Timeout.String())

	return &BackendResult{
		API: client,
		Cleanup: func() error {
			hc.CloseIdleConnections()
			return nil
		},
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	if config.SeedFile == "" {
		f.logger.Info("Initialized memory backend")
		return &BackendResult{API: memory.New()}, nil
	}

	store, err := memory.NewFromFile(config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)

	return &BackendResult{
		API:     store,
		Cleanup: nil, // No cleanup needed for memory backend
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	store, err := memory.NewPersistent(ctx, repo)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to initialize SQLite backend: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		API:     store,
		Cleanup: repo.Close,
	}, nil
}
