package mcp

import (
	"errors"
	"fmt"
	"time"
)

// The registration layer flattens any of these into an "Error: <message>"
// text payload, and callers match on substrings of that text. Keep the
// literal fragments ("No data:", "No content", "timed out", the status
// number, the RPC code) stable.

// ErrNoData is returned when an event-stream body contains no "data:"
// lines at all.
var ErrNoData = errors.New(`No data: lines found in event-stream response`)

// ErrNoContent is returned when a success response's result carries no
// content field. A present-but-empty content list is a valid zero-hit
// result and does not produce this error.
var ErrNoContent = errors.New("No content in tool result")

// HTTPError reports a response status outside the 2xx range.
type HTTPError struct {
	Status int
	Reason string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("server returned HTTP %d: %s", e.Status, e.Reason)
}

// TimeoutError reports that the per-call deadline elapsed before a
// response arrived.
type TimeoutError struct {
	Elapsed time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timed out after %d seconds", int(e.Elapsed.Seconds()))
}
