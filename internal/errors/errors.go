// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors.
//
// ErrFeedExhausted and ErrClockFinished are control-flow terminators: they mark
// the normal end of a replayed contract instance and must never be treated as
// faults. ErrIllegalOrder and ErrNoLiquidity are genuine business-rule
// violations and must stay distinguishable from exhaustion so callers can tell
// "no more data" apart from "my trade request was invalid".
var (
	ErrFeedExhausted  = errors.New("feed exhausted")
	ErrClockFinished  = errors.New("clock schedule finished")
	ErrNotStarted     = errors.New("not started")
	ErrAlreadyStarted = errors.New("already started")
	ErrBadStream      = errors.New("malformed history stream")
	ErrNoRecord       = errors.New("no record available yet")
	ErrIllegalOrder   = errors.New("illegal order")
	ErrNoLiquidity    = errors.New("no liquidity")
	ErrConfigInvalid  = errors.New("invalid configuration")
)

// IsExhausted reports whether err marks the clean end of a replay, either
// because a feeder ran out of records or a scheduled clock ran out of steps.
func IsExhausted(err error) bool {
	return errors.Is(err, ErrFeedExhausted) || errors.Is(err, ErrClockFinished)
}

// OrderError represents a rejected or unmatchable order.
type OrderError struct {
	Side     string
	Quantity int
	Price    float64
	Reason   string
	Err      error
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("order error [%s %d @ %.4f]: %s: %v", e.Side, e.Quantity, e.Price, e.Reason, e.Err)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError creates a new OrderError wrapping the given sentinel.
func NewOrderError(side string, qty int, price float64, reason string, err error) *OrderError {
	return &OrderError{
		Side:     side,
		Quantity: qty,
		Price:    price,
		Reason:   reason,
		Err:      err,
	}
}

// StreamError represents a malformed historical input stream.
type StreamError struct {
	Field   string
	Message string
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream error: %s: %s", e.Field, e.Message)
}

func (e *StreamError) Unwrap() error {
	return ErrBadStream
}

// NewStreamError creates a new StreamError.
func NewStreamError(field, message string) *StreamError {
	return &StreamError{Field: field, Message: message}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
