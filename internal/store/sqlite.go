// Package store persists backtest results.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"kalshi-hedger/internal/backtest"
)

// SQLiteStore implements ResultStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based result store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Per-instance replay results
	CREATE TABLE IF NOT EXISTS instance_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_at DATETIME NOT NULL,
		event_date TEXT NOT NULL,
		strike REAL NOT NULL,
		terminal_value REAL NOT NULL,
		market_cash REAL NOT NULL,
		lots INTEGER NOT NULL,
		cycles INTEGER NOT NULL,
		final_state TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Aggregated hyperparameter sweep cells
	CREATE TABLE IF NOT EXISTS sweep_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_at DATETIME NOT NULL,
		max_under_pos REAL NOT NULL,
		min_tte_hedge REAL NOT NULL,
		mean REAL NOT NULL,
		variance REAL NOT NULL,
		instances INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_instance_results_date ON instance_results(event_date);
	CREATE INDEX IF NOT EXISTS idx_sweep_results_mean ON sweep_results(mean);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveInstanceResults persists per-instance replay results in one transaction.
func (s *SQLiteStore) SaveInstanceResults(ctx context.Context, runAt time.Time, results []backtest.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO instance_results (run_at, event_date, strike, terminal_value, market_cash, lots, cycles, final_state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		_, err := stmt.ExecContext(ctx, runAt, r.Meta.Date, r.Meta.Strike,
			r.TerminalValue, r.MarketCash, r.Lots, r.Cycles, r.FinalState.String())
		if err != nil {
			return fmt.Errorf("failed to insert instance result: %w", err)
		}
	}
	return tx.Commit()
}

// SaveSweepResults persists sweep cells in one transaction.
func (s *SQLiteStore) SaveSweepResults(ctx context.Context, runAt time.Time, cells []backtest.CellResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sweep_results (run_at, max_under_pos, min_tte_hedge, mean, variance, instances)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range cells {
		_, err := stmt.ExecContext(ctx, runAt, c.MaxUnderPos, c.MinTTEHedge, c.Mean, c.Variance, c.Instances)
		if err != nil {
			return fmt.Errorf("failed to insert sweep cell: %w", err)
		}
	}
	return tx.Commit()
}

// BestSweepCells returns the highest-mean sweep cells across all runs.
func (s *SQLiteStore) BestSweepCells(ctx context.Context, limit int) ([]backtest.CellResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT max_under_pos, min_tte_hedge, mean, variance, instances
		FROM sweep_results
		ORDER BY mean DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sweep results: %w", err)
	}
	defer rows.Close()

	var cells []backtest.CellResult
	for rows.Next() {
		var c backtest.CellResult
		if err := rows.Scan(&c.MaxUnderPos, &c.MinTTEHedge, &c.Mean, &c.Variance, &c.Instances); err != nil {
			return nil, fmt.Errorf("failed to scan sweep cell: %w", err)
		}
		cells = append(cells, c)
	}
	return cells, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
