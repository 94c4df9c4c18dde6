package main

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func setRunEnv(t *testing.T, port, dbPath string) {
	t.Helper()
	t.Setenv("PORT", port)
	t.Setenv("API_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", dbPath)
	t.Setenv("LOG_LEVEL", "error")
}

func TestRun_ListenFailureReturnsExitCode(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("Failed to reserve a port: %v", err)
	}
	defer ln.Close()

	dbPath := filepath.Join(t.TempDir(), "budget.db")
	setRunEnv(t, strconv.Itoa(ln.Addr().(*net.TCPAddr).Port), dbPath)

	if code := run(); code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("backend was not initialized before serving: %v", err)
	}
}

func TestRun_BackendFailureReturnsExitCode(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	setRunEnv(t, "18089", filepath.Join(blocker, "budget.db"))

	if code := run(); code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
}
