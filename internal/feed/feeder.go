// Package feed replays ordered historical record streams against a shared
// simulation clock.
//
// A Feeder maps simulated clock time onto stream time through a fixed
// reference captured at Start: the feeder's simulated time is always
// historyStart + (clock.Now() - clock time at Start). Several feeders sharing
// one clock therefore observe a mutually consistent time frontier, which keeps
// independently sampled series (derivative quotes, underlying prices)
// synchronized without direct coupling.
package feed

import (
	"kalshi-hedger/internal/clock"
	"kalshi-hedger/internal/errors"
)

// DerivRecord is one observation of an event-contract order book. Bid and Ask
// are quoted in contract-value units (0 to 1); TTE is hours to expiration.
type DerivRecord struct {
	TS  float64
	Bid float64
	Ask float64
	TTE float64
}

// UnderRecord is one observation of the underlying asset. Sigma is a rolling
// estimate of the hourly log-return standard deviation.
type UnderRecord struct {
	TS    float64
	Open  float64
	Close float64
	Sigma float64
}

// Feeder replays one ordered record stream. The cursor holds the last record
// returned and the next pending record; it only ever moves forward.
type Feeder[T any] struct {
	clk          clock.Clock
	historyStart float64
	historyEnd   float64

	times  []float64
	values []T
	idx    int

	started  bool
	startRef float64

	last     T
	haveLast bool
	nextTS   float64
	next     T
	haveNext bool
}

// New creates a feeder over parallel timestamp/value slices. The slices must
// be equal length and non-empty, and historyStart must not exceed historyEnd;
// violations are configuration errors, never exhaustion.
func New[T any](clk clock.Clock, historyStart, historyEnd float64, times []float64, values []T) (*Feeder[T], error) {
	if clk == nil {
		return nil, errors.NewStreamError("clock", "must not be nil")
	}
	if len(times) == 0 {
		return nil, errors.NewStreamError("times", "must not be empty")
	}
	if len(times) != len(values) {
		return nil, errors.NewStreamError("times/values", "must be the same length")
	}
	if historyStart > historyEnd {
		return nil, errors.NewStreamError("historyStart", "must not exceed historyEnd")
	}
	return &Feeder[T]{
		clk:          clk,
		historyStart: historyStart,
		historyEnd:   historyEnd,
		times:        times,
		values:       values,
	}, nil
}

// Start performs one-time initialization: it captures the clock's current time
// as the simulation-start reference and primes the cursor with the first
// record. Calling Start twice fails with ErrAlreadyStarted.
func (f *Feeder[T]) Start() error {
	if f.started {
		return errors.Wrap(errors.ErrAlreadyStarted, "feeder")
	}
	ref, err := f.clk.Now()
	if err != nil {
		return errors.Wrap(err, "feeder start")
	}
	f.startRef = ref
	f.started = true
	f.pop()
	return nil
}

// pop loads the next pending record into the cursor, reporting whether one was
// available.
func (f *Feeder[T]) pop() bool {
	if f.idx >= len(f.times) {
		f.haveNext = false
		return false
	}
	f.nextTS = f.times[f.idx]
	f.next = f.values[f.idx]
	f.idx++
	f.haveNext = true
	return true
}

// Time returns the feeder's simulated time: historyStart plus elapsed clock
// time since Start.
func (f *Feeder[T]) Time() (float64, error) {
	if !f.started {
		return 0, errors.Wrap(errors.ErrNotStarted, "feeder")
	}
	now, err := f.clk.Now()
	if err != nil {
		return 0, err
	}
	return f.historyStart + (now - f.startRef), nil
}

// Current returns the latest record whose timestamp is at or before the
// feeder's simulated time, advancing the cursor as needed. The call that
// promotes the final record still succeeds; every call after that fails
// deterministically with ErrFeedExhausted.
func (f *Feeder[T]) Current() (T, error) {
	var zero T
	if !f.started {
		return zero, errors.Wrap(errors.ErrNotStarted, "feeder")
	}
	if !f.haveNext {
		return zero, errors.ErrFeedExhausted
	}
	sim, err := f.Time()
	if err != nil {
		return zero, err
	}
	for f.haveNext && f.nextTS <= sim {
		f.last = f.next
		f.haveLast = true
		f.pop()
	}
	if !f.haveLast {
		return zero, errors.Wrapf(errors.ErrNoRecord, "first record at %v, simulated time %v", f.nextTS, sim)
	}
	return f.last, nil
}

// Exhausted reports whether the stream has no pending record left.
func (f *Feeder[T]) Exhausted() bool {
	return f.started && !f.haveNext
}

// HistoryStart returns the stream-time origin the feeder maps clock time onto.
func (f *Feeder[T]) HistoryStart() float64 { return f.historyStart }

// HistoryEnd returns the end of the stream's simulation window.
func (f *Feeder[T]) HistoryEnd() float64 { return f.historyEnd }
