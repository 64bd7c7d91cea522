package rules

import (
	"fmt"

	"github.com/milk9111/roomcheck/rooms"
)

type Status int

const (
	StatusPass Status = iota
	StatusFail
	StatusNA
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusFail:
		return "fail"
	case StatusNA:
		return "na"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Detail is the optional payload a rule attaches to its result.
type Detail struct {
	Values []string
	Count  int
	Note   string
}

type Result struct {
	Status Status
	Detail *Detail
	Err    error
}

func Pass() Result { return Result{Status: StatusPass} }

func NA() Result { return Result{Status: StatusNA} }

func Fail(format string, args ...any) Result {
	return Result{Status: StatusFail, Detail: &Detail{Note: fmt.Sprintf(format, args...)}}
}

func Errored(err error) Result { return Result{Status: StatusError, Err: err} }

// Values returns the extracted values carried in the detail, if any.
func (r Result) Values() []string {
	if r.Detail == nil {
		return nil
	}
	return r.Detail.Values
}

// Note returns the detail note, if any.
func (r Result) Note() string {
	if r.Detail == nil {
		return ""
	}
	return r.Detail.Note
}

// Rule is a named structural check over a single room. Check must not modify
// the room and must return StatusNA rather than fail when it does not apply.
type Rule interface {
	ID() string
	Description() string
	Check(room *rooms.Room) Result
}

// Func adapts a plain function to a Rule.
type Func struct {
	RuleID string
	Desc   string
	Fn     func(*rooms.Room) Result
}

func (f *Func) ID() string { return f.RuleID }

func (f *Func) Description() string { return f.Desc }

func (f *Func) Check(room *rooms.Room) Result { return f.Fn(room) }
