package loxone

import (
	"errors"
	"fmt"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrInvalidJSON      = errors.New("invalid json response")
	ErrMissingValue     = errors.New("response has no LL.value")
	ErrMissingIP        = errors.New("response has no IPHTTPS")
)

// ResolutionError is returned when the Miniserver IP cannot be retrieved from
// the resolver service. StatusCode is 0 when the resolver was unreachable.
type ResolutionError struct {
	StatusCode int
	Err        error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to retrieve miniserver ip (status %d): %v", e.StatusCode, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// ControlError is returned when the Miniserver answered a control request
// with a non-200 status or a response without the expected value.
type ControlError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *ControlError) Error() string {
	return fmt.Sprintf("failed to %s (status %d): %v", e.Op, e.StatusCode, e.Err)
}

func (e *ControlError) Unwrap() error {
	return e.Err
}

// ConnectionError is returned when the Miniserver stays unreachable after
// every allowed re-resolution.
type ConnectionError struct {
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("miniserver unreachable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
