package store

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"kalshi-hedger/internal/backtest"
	"kalshi-hedger/internal/hedge"
	"kalshi-hedger/internal/loader"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndQuerySweepResults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cells := []backtest.CellResult{
		{MaxUnderPos: 0, MinTTEHedge: 0, Mean: -0.1, Variance: 0.5, Instances: 10},
		{MaxUnderPos: 50, MinTTEHedge: 0.5, Mean: 0.3, Variance: 0.2, Instances: 10},
		{MaxUnderPos: 100, MinTTEHedge: 1, Mean: 0.1, Variance: 0.9, Instances: 8},
	}
	if err := s.SaveSweepResults(ctx, time.Now(), cells); err != nil {
		t.Fatalf("SaveSweepResults: %v", err)
	}

	best, err := s.BestSweepCells(ctx, 2)
	if err != nil {
		t.Fatalf("BestSweepCells: %v", err)
	}
	if len(best) != 2 {
		t.Fatalf("best cells = %d, want 2", len(best))
	}
	if best[0].Mean < best[1].Mean {
		t.Errorf("cells not ordered by mean: %v then %v", best[0].Mean, best[1].Mean)
	}
	if math.Abs(best[0].Mean-0.3) > 1e-12 || best[0].MaxUnderPos != 50 {
		t.Errorf("best cell = %+v, want the (50, 0.5) cell", best[0])
	}
	if best[0].Instances != 10 {
		t.Errorf("best cell instances = %d, want 10", best[0].Instances)
	}
}

func TestSaveInstanceResults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	results := []backtest.Result{
		{
			Meta:          loader.Meta{Date: "2025-03-01", Strike: 100},
			TerminalValue: 0.098,
			MarketCash:    -0.5,
			Lots:          3,
			Cycles:        4,
			FinalState:    hedge.StateDone,
		},
	}
	if err := s.SaveInstanceResults(ctx, time.Now(), results); err != nil {
		t.Fatalf("SaveInstanceResults: %v", err)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM instance_results`).Scan(&count); err != nil {
		t.Fatalf("count query: %v", err)
	}
	if count != 1 {
		t.Errorf("instance rows = %d, want 1", count)
	}

	var state string
	var terminal float64
	err := s.db.QueryRow(`SELECT final_state, terminal_value FROM instance_results`).Scan(&state, &terminal)
	if err != nil {
		t.Fatalf("row query: %v", err)
	}
	if state != "done" || math.Abs(terminal-0.098) > 1e-12 {
		t.Errorf("row = (%s, %v), want (done, 0.098)", state, terminal)
	}
}

func TestBestSweepCellsEmptyStore(t *testing.T) {
	s := newTestStore(t)
	best, err := s.BestSweepCells(context.Background(), 5)
	if err != nil {
		t.Fatalf("BestSweepCells: %v", err)
	}
	if len(best) != 0 {
		t.Errorf("best cells on empty store = %d, want 0", len(best))
	}
}
