// pkg/core/errors.go
package core

import "errors"

// ErrMalformedResponse is returned when text received from the agent, or
// pasted save data, does not have the expected shape.
var ErrMalformedResponse = errors.New("malformed response")
