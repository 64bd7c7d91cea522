package rules

import (
	"errors"
	"fmt"
)

// ErrMissingField marks a room that lacks a field a rule cannot do without.
var ErrMissingField = errors.New("required field missing")

// RuleError attributes a failed evaluation to one (room, rule) pair.
type RuleError struct {
	RuleID   string
	Filename string
	Err      error
}

func (e *RuleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("rules: %s on %s: %v", e.RuleID, e.Filename, e.Err)
}

func (e *RuleError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func missing(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMissingField, fmt.Sprintf(format, args...))
}
