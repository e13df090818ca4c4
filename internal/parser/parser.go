// Package parser turns agent response text into typed values.
// All functions are pure: no I/O, no clock reads except the time handed to Apply.
package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/scribblerbot/scribbler/pkg/core"
)

// parseIntFromFloat parses a string that may be an integer ("3") or float ("3.0") into an int.
// The agent formats some integers through float arithmetic.
func parseIntFromFloat(s string) (int, error) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("parseIntFromFloat: %q is not an integer", s)
	}
	return int(f), nil
}

// parseFinite parses a float and rejects NaN and infinities.
func parseFinite(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return f, nil
}

func malformed(what, text string, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s %q: %v", core.ErrMalformedResponse, what, text, err)
	}
	return fmt.Errorf("%w: %s %q", core.ErrMalformedResponse, what, text)
}

// ParseSync parses a short:sync response: "<program> <running> <canReset>".
// Booleans are true only for the literal "True".
func ParseSync(text string) (core.AgentStatus, error) {
	fields := strings.Fields(text)
	if len(fields) != 3 {
		return core.AgentStatus{}, malformed("sync response", text,
			fmt.Errorf("expected 3 fields, got %d", len(fields)))
	}
	return core.AgentStatus{
		Program:  fields[0],
		Running:  fields[1] == "True",
		CanReset: fields[2] == "True",
	}, nil
}
