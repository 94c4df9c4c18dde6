package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetui/internal/budgetapi"
	"budgetui/internal/budgetapi/memory"
	"budgetui/internal/config"
	"budgetui/internal/core"
	applog "budgetui/internal/log"
)

type countingObserver struct{ calls int }

func (o *countingObserver) ObserveAPICall(string, string, time.Duration) { o.calls++ }

func TestCreateBackend_Memory(t *testing.T) {
	f := NewFactory(applog.Discard(), nil)

	res, err := f.CreateBackend(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, res.API)
	assert.Nil(t, res.Cleanup)
}

func TestCreateBackend_MemorySeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	seed := `{
		"budgets": [{"month": "2024-03", "limits": {"Food": 50}}],
		"transactions": [{"id": "a1", "date": "2024-03-05", "amount": -12.5, "type": "expense", "category": "Food", "description": ""}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	f := NewFactory(nil, nil)
	res, err := f.CreateBackend(context.Background(), Config{Type: MemoryBackend, SeedFile: path})
	require.NoError(t, err)

	limits, err := res.API.GetBudget(context.Background(), "2024-03")
	require.NoError(t, err)
	assert.Equal(t, core.Limits{"Food": "50"}, limits)

	txs, err := res.API.ListTransactions(context.Background(), core.TransactionFilter{Month: "2024-03"})
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestCreateBackend_MemoryMissingSeedFile(t *testing.T) {
	f := NewFactory(nil, nil)
	_, err := f.CreateBackend(context.Background(), Config{Type: MemoryBackend, SeedFile: "/does/not/exist.json"})
	assert.Error(t, err)
}

func TestCreateBackend_SQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "budget.db")
	f := NewFactory(applog.Discard(), nil)

	res, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
	require.NoError(t, err)
	require.NotNil(t, res.Cleanup)
	assert.IsType(t, &memory.Store{}, res.API)

	saved, err := res.API.SaveBudget(ctx, "2024-03", core.Limits{"Food": "50"})
	require.NoError(t, err)
	require.True(t, saved.OK)
	require.NoError(t, res.Cleanup())

	res, err = f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
	require.NoError(t, err)
	defer func() { assert.NoError(t, res.Cleanup()) }()

	limits, err := res.API.GetBudget(ctx, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, core.Limits{"Food": "50"}, limits)
}

func TestCreateBackend_Remote(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/budgets/2024-03", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"month":"2024-03","limits":{"Food":50}}`))
	}))
	defer api.Close()

	observer := &countingObserver{}
	f := NewFactory(applog.Discard(), observer)
	res, err := f.CreateBackend(context.Background(), Config{Type: RemoteBackend, BaseURL: api.URL, Timeout: time.Second})
	require.NoError(t, err)
	require.NotNil(t, res.Cleanup)
	defer func() { assert.NoError(t, res.Cleanup()) }()

	assert.IsType(t, &budgetapi.Client{}, res.API)
	limits, err := res.API.GetBudget(context.Background(), "2024-03")
	require.NoError(t, err)
	assert.Equal(t, core.Limits{"Food": "50"}, limits)
	assert.Equal(t, 1, observer.calls)
}

func TestCreateBackend_InvalidConfig(t *testing.T) {
	f := NewFactory(nil, nil)

	tests := []struct {
		name   string
		config Config
	}{
		{"unknown type", Config{Type: "sheets"}},
		{"remote without url", Config{Type: RemoteBackend}},
		{"remote with bad url", Config{Type: RemoteBackend, BaseURL: "ftp://example.com"}},
		{"sqlite without path", Config{Type: SQLiteBackend}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.CreateBackend(context.Background(), tt.config)
			assert.Error(t, err)
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{
		APIBackend:     "remote",
		APIBaseURL:     "http://api.local:8000",
		APITimeout:     5 * time.Second,
		MemorySeedFile: "state.json",
		SQLiteDBPath:   "data/budget.db",
	}

	got, err := FromAppConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, Config{Type: RemoteBackend, BaseURL: "http://api.local:8000", Timeout: 5 * time.Second, SeedFile: "state.json", SQLiteDBPath: "data/budget.db"}, got)

	_, err = FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{APIBackend: "sheets"})
	assert.Error(t, err)
}
