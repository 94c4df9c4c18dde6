// Package storage keeps budgets and transactions in SQLite so the in-process
// API survives restarts.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"budgetui/internal/budgetapi/memory"
	"budgetui/internal/core"
	applog "budgetui/internal/log"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db     *sql.DB
	logger *applog.Logger
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies pending migrations. logger may be nil.
func NewSQLiteRepository(dbPath string, logger *applog.Logger) (*SQLiteRepository, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite db path is empty")
	}
	if logger == nil {
		logger = applog.Discard()
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// The store serializes writes.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		logger: logger.WithComponent(applog.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements memory.Persister. Transactions come back in insertion order.
func (r *SQLiteRepository) Load(ctx context.Context) (memory.State, error) {
	budgets, err := r.loadBudgets(ctx)
	if err != nil {
		return memory.State{}, err
	}
	txs, err := r.loadTransactions(ctx)
	if err != nil {
		return memory.State{}, err
	}

	r.logger.InfoContext(ctx, "Loaded persisted state",
		"months", len(budgets),
		"transactions", len(txs))
	return memory.State{Budgets: budgets, Transactions: txs}, nil
}

func (r *SQLiteRepository) loadBudgets(ctx context.Context) (map[string]map[string]decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT month, category, limit_amount FROM budgets`)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	budgets := map[string]map[string]decimal.Decimal{}
	for rows.Next() {
		var month, category, raw string
		if err := rows.Scan(&month, &category, &raw); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		limit, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("budget %s/%s: bad limit %q: %w", month, category, raw, err)
		}
		if budgets[month] == nil {
			budgets[month] = map[string]decimal.Decimal{}
		}
		budgets[month][category] = limit
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return budgets, nil
}

func (r *SQLiteRepository) loadTransactions(ctx context.Context) ([]memory.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, amount, type, category, description FROM transactions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []memory.Record
	for rows.Next() {
		var id, date, amount, kind, category, description string
		if err := rows.Scan(&id, &date, &amount, &kind, &category, &description); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		rec, err := toRecord(id, date, amount, kind, category, description)
		if err != nil {
			return nil, err
		}
		txs = append(txs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// ReplaceBudget implements memory.Persister. The month's previous limits are
// dropped in the same database transaction.
func (r *SQLiteRepository) ReplaceBudget(ctx context.Context, month string, limits map[string]decimal.Decimal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM budgets WHERE month = ?`, month); err != nil {
		return fmt.Errorf("clear budget %s: %w", month, err)
	}
	for category, limit := range limits {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO budgets (month, category, limit_amount) VALUES (?, ?, ?)`,
			month, category, limit.String()); err != nil {
			return fmt.Errorf("insert limit %s/%s: %w", month, category, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit budget %s: %w", month, err)
	}

	r.logger.DebugContext(ctx, "Budget saved to SQLite",
		applog.FieldMonthKey, month,
		"categories", len(limits))
	return nil
}

// AppendTransaction implements memory.Persister.
func (r *SQLiteRepository) AppendTransaction(ctx context.Context, rec memory.Record) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, date, amount, type, category, description) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Date.Format(dateLayout), rec.Amount.String(), string(rec.Type), rec.Category, rec.Description)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	r.logger.DebugContext(ctx, "Transaction saved to SQLite",
		"id", rec.ID,
		"date", rec.Date.Format(dateLayout),
		"amount", rec.Amount.String(),
		"category", rec.Category)
	return nil
}

func toRecord(id, date, amount, kind, category, description string) (memory.Record, error) {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return memory.Record{}, fmt.Errorf("transaction %s: bad date %q: %w", id, date, err)
	}
	a, err := decimal.NewFromString(amount)
	if err != nil {
		return memory.Record{}, fmt.Errorf("transaction %s: bad amount %q: %w", id, amount, err)
	}
	return memory.Record{
		ID:          id,
		Date:        d,
		Amount:      a,
		Type:        core.TransactionType(kind),
		Category:    category,
		Description: description,
	}, nil
}

var _ memory.Persister = (*SQLiteRepository)(nil)
