package feed

import (
	"testing"

	"kalshi-hedger/internal/clock"
	"kalshi-hedger/internal/errors"
)

func newTestFeeder(t *testing.T, clk clock.Clock, times []float64, values []float64) *Feeder[float64] {
	t.Helper()
	f, err := New(clk, times[0], times[len(times)-1], times, values)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

func TestNewValidation(t *testing.T) {
	clk, _ := clock.NewDelta(60)
	tests := []struct {
		name   string
		clk    clock.Clock
		start  float64
		end    float64
		times  []float64
		values []float64
	}{
		{"nil clock", nil, 0, 10, []float64{1}, []float64{1}},
		{"empty stream", clk, 0, 10, nil, nil},
		{"length mismatch", clk, 0, 10, []float64{1, 2}, []float64{1}},
		{"inverted window", clk, 10, 0, []float64{1}, []float64{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.clk, tt.start, tt.end, tt.times, tt.values)
			if !errors.Is(err, errors.ErrBadStream) {
				t.Errorf("want ErrBadStream, got %v", err)
			}
			var streamErr *errors.StreamError
			if !errors.As(err, &streamErr) {
				t.Errorf("want *StreamError, got %T", err)
			}
		})
	}
}

func TestCurrentBeforeStart(t *testing.T) {
	clk, _ := clock.NewDelta(60)
	f := newTestFeeder(t, clk, []float64{0, 60}, []float64{1, 2})

	if _, err := f.Current(); !errors.Is(err, errors.ErrNotStarted) {
		t.Errorf("Current before Start: want ErrNotStarted, got %v", err)
	}
	if _, err := f.Time(); !errors.Is(err, errors.ErrNotStarted) {
		t.Errorf("Time before Start: want ErrNotStarted, got %v", err)
	}
}

func TestDoubleStart(t *testing.T) {
	clk, _ := clock.NewDelta(60)
	f := newTestFeeder(t, clk, []float64{0}, []float64{1})

	if err := f.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := f.Start(); !errors.Is(err, errors.ErrAlreadyStarted) {
		t.Errorf("second Start: want ErrAlreadyStarted, got %v", err)
	}
}

func TestCurrentBeforeFirstRecord(t *testing.T) {
	clk, _ := clock.NewDelta(60)
	// First record sits 300 simulated seconds past history start.
	f, err := New(clk, 1000, 2000, []float64{1300, 1400}, []float64{1, 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := f.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := f.Current(); !errors.Is(err, errors.ErrNoRecord) {
		t.Errorf("Current before first record: want ErrNoRecord, got %v", err)
	}

	for i := 0; i < 5; i++ {
		clk.Advance()
	}
	rec, err := f.Current()
	if err != nil {
		t.Fatalf("Current at first record: %v", err)
	}
	if rec != 1 {
		t.Errorf("Current = %v, want 1", rec)
	}
}

func TestCurrentPromotesToFrontier(t *testing.T) {
	clk, _ := clock.NewDelta(60)
	f := newTestFeeder(t, clk, []float64{0, 60, 120, 180}, []float64{10, 20, 30, 40})
	if err := f.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// At simulated time 0 only the first record is visible.
	rec, err := f.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if rec != 10 {
		t.Errorf("Current at t=0 = %v, want 10", rec)
	}

	// Jumping two increments promotes past the intermediate record.
	clk.Advance()
	clk.Advance()
	rec, _ = f.Current()
	if rec != 30 {
		t.Errorf("Current at t=120 = %v, want 30", rec)
	}

	// Without advancing, repeated calls return the same record.
	rec, _ = f.Current()
	if rec != 30 {
		t.Errorf("repeated Current = %v, want 30", rec)
	}
}

func TestExhaustionIsDeferredAndDeterministic(t *testing.T) {
	clk, _ := clock.NewDelta(60)
	f := newTestFeeder(t, clk, []float64{0, 60}, []float64{1, 2})
	if err := f.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	clk.Advance()
	// This call consumes the final record and must still succeed.
	rec, err := f.Current()
	if err != nil {
		t.Fatalf("Current consuming final record: %v", err)
	}
	if rec != 2 {
		t.Errorf("Current = %v, want 2", rec)
	}
	if !f.Exhausted() {
		t.Error("Exhausted = false after consuming final record")
	}

	// Every later call fails the same way regardless of clock movement.
	for i := 0; i < 3; i++ {
		if _, err := f.Current(); !errors.Is(err, errors.ErrFeedExhausted) {
			t.Fatalf("Current after exhaustion (call %d): want ErrFeedExhausted, got %v", i, err)
		}
		clk.Advance()
	}
}

func TestSharedClockKeepsFeedersSynchronized(t *testing.T) {
	clk, _ := clock.NewDelta(60)
	// Two streams over the same window, sampled at different rates.
	fast := newTestFeeder(t, clk, []float64{0, 60, 120, 180}, []float64{1, 2, 3, 4})
	slow, err := New(clk, 0, 180, []float64{0, 120}, []float64{100, 200})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := fast.Start(); err != nil {
		t.Fatalf("Start fast: %v", err)
	}
	if err := slow.Start(); err != nil {
		t.Fatalf("Start slow: %v", err)
	}

	clk.Advance()
	clk.Advance()

	fastTime, _ := fast.Time()
	slowTime, _ := slow.Time()
	if fastTime != slowTime {
		t.Fatalf("feeder times diverged: %v vs %v", fastTime, slowTime)
	}

	fRec, _ := fast.Current()
	sRec, _ := slow.Current()
	if fRec != 3 || sRec != 200 {
		t.Errorf("records at t=120: fast=%v want 3, slow=%v want 200", fRec, sRec)
	}
}

func TestTimeMapsClockOntoHistory(t *testing.T) {
	clk, _ := clock.NewDelta(30)
	f, err := New(clk, 5000, 6000, []float64{5000}, []float64{1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := f.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	clk.Advance()
	clk.Advance()

	simTime, err := f.Time()
	if err != nil {
		t.Fatalf("Time: %v", err)
	}
	if simTime != 5060 {
		t.Errorf("Time = %v, want 5060", simTime)
	}
}
