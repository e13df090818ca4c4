// internal/api/channel.go
package api

import (
	"context"
	"errors"
	"fmt"
)

// Channel performs a single request/response round trip with the agent.
//
// Send returns exactly one of three outcomes: the response text with a nil
// error, a *FailedError carrying the status code, or ErrTimedOut.
type Channel interface {
	Send(ctx context.Context, message string) (string, error)
}

// ErrTimedOut is returned when no response arrived before the deadline.
var ErrTimedOut = errors.New("request timed out")

// FailedError reports a completed request with a non-success status.
// Code is 0 when the request never reached the agent.
type FailedError struct {
	Code int
	Err  error
}

func (e *FailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request failed (%d): %v", e.Code, e.Err)
	}
	return fmt.Sprintf("request failed (%d)", e.Code)
}

func (e *FailedError) Unwrap() error { return e.Err }

// Outcome is the three-way result of a Send.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailed
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailed:
		return "failed"
	case OutcomeTimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// Classify maps an error returned by Send to its outcome. A nil error is a
// success, ErrTimedOut a timeout, and anything else a failure.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrTimedOut):
		return OutcomeTimedOut
	default:
		return OutcomeFailed
	}
}

// StatusCode extracts the failure code from err, or 0 if it carries none.
func StatusCode(err error) int {
	var failed *FailedError
	if errors.As(err, &failed) {
		return failed.Code
	}
	return 0
}

// Describe renders an error the way the operator console reports it:
// "<what> failed (<code>)" or "<what> timed out".
func Describe(what string, err error) string {
	switch Classify(err) {
	case OutcomeSuccess:
		return what
	case OutcomeTimedOut:
		return what + " timed out"
	default:
		return fmt.Sprintf("%s failed (%d)", what, StatusCode(err))
	}
}
