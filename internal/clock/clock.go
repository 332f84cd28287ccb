// Package clock provides simulated time sources for replay backtests.
//
// Every component of one contract simulation shares a single Clock, which is
// what keeps independently sampled data streams synchronized. A Clock is an
// explicit required constructor argument everywhere; there is no default
// policy, so a replay is reproducible from its configuration alone.
package clock

import (
	"time"

	"kalshi-hedger/internal/errors"
)

// Clock produces simulated time in unix seconds.
type Clock interface {
	// Now returns the current simulated time.
	Now() (float64, error)
	// Advance moves simulated time forward by the policy's rule.
	Advance() error
}

// Accelerated scales real elapsed time by a fixed ratio. Advance is a no-op
// because time flows continuously.
type Accelerated struct {
	ratio float64
	start time.Time
}

// NewAccelerated creates an accelerated clock. A ratio of 1 replays in real
// time; larger ratios speed the simulation up.
func NewAccelerated(ratio float64) (*Accelerated, error) {
	if ratio <= 0 {
		return nil, errors.Wrapf(errors.ErrConfigInvalid, "accelerated clock ratio must be positive, got %v", ratio)
	}
	return &Accelerated{ratio: ratio, start: time.Now()}, nil
}

// Now returns wall-clock seconds elapsed since construction, scaled by ratio.
func (c *Accelerated) Now() (float64, error) {
	return time.Since(c.start).Seconds() * c.ratio, nil
}

// Advance is a no-op for accelerated clocks.
func (c *Accelerated) Advance() error { return nil }

// Delta is a fully deterministic clock: an internal counter starting at zero
// that Advance bumps by a constant increment. This is the policy used for
// reproducible backtests.
type Delta struct {
	delta float64
	curr  float64
}

// NewDelta creates a fixed-increment clock.
func NewDelta(delta float64) (*Delta, error) {
	if delta <= 0 {
		return nil, errors.Wrapf(errors.ErrConfigInvalid, "delta clock increment must be positive, got %v", delta)
	}
	return &Delta{delta: delta}, nil
}

// Now returns the current counter value.
func (c *Delta) Now() (float64, error) { return c.curr, nil }

// Advance adds the configured increment to the counter.
func (c *Delta) Advance() error {
	c.curr += c.delta
	return nil
}

// Jump replays an explicit, predetermined schedule of timestamps. Unlike the
// other policies it terminates: once the schedule is consumed both Advance and
// Now report ErrClockFinished.
type Jump struct {
	steps    []float64
	idx      int
	started  bool
	finished bool
	curr     float64
}

// NewJump creates a schedule clock. Steps must be non-empty and
// non-decreasing.
func NewJump(steps []float64) (*Jump, error) {
	if len(steps) == 0 {
		return nil, errors.Wrap(errors.ErrConfigInvalid, "jump clock requires at least one step")
	}
	for i := 1; i < len(steps); i++ {
		if steps[i] < steps[i-1] {
			return nil, errors.Wrapf(errors.ErrConfigInvalid, "jump clock steps must be non-decreasing at index %d", i)
		}
	}
	return &Jump{steps: steps}, nil
}

// Now returns the last popped timestamp. Before the first Advance it fails
// with ErrNotStarted; after the schedule is exhausted it fails with
// ErrClockFinished.
func (c *Jump) Now() (float64, error) {
	if !c.started {
		return 0, errors.Wrap(errors.ErrNotStarted, "jump clock requires an initial advance")
	}
	if c.finished {
		return 0, errors.ErrClockFinished
	}
	return c.curr, nil
}

// Advance pops the next scheduled timestamp.
func (c *Jump) Advance() error {
	if c.idx >= len(c.steps) {
		c.finished = true
		return errors.ErrClockFinished
	}
	c.curr = c.steps[c.idx]
	c.idx++
	c.started = true
	return nil
}
