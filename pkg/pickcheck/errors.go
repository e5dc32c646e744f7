package pickcheck

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/starkandwayne/goutils/ansi"
)

// filteredSignal is the control-flow sentinel described in spec.md §7: a
// recoverable rejection, never a Go error in the conventional sense. It is
// raised by pick when no reply fits, by a build function rejecting its own
// picks, or by an accept predicate returning false, and is caught by the
// enclosing dispatcher (for retries) or converted to a FILTERED result by
// Script.Run / RunScript. It must never reach user code.
type filteredSignal struct{}

func (filteredSignal) Error() string { return "filtered" }

// Filtered is the shared sentinel value for filteredSignal.
var Filtered error = filteredSignal{}

// IsFiltered reports whether err is (or wraps) the Filtered sentinel.
func IsFiltered(err error) bool {
	return errors.As(err, new(filteredSignal))
}

// ProgramError marks an invariant violation: a mismatched PickRequest range
// at a PickTree node, an invalid edit index, a negative union weight, a
// zero-case union, or an invalid Domain caught by the consistency dry-run.
// These are fatal and distinct from both Filtered and ParseError.
type ProgramError struct {
	Msg string
}

func (e *ProgramError) Error() string { return "pickcheck: program error: " + e.Msg }

func panicProgramError(format string, args ...interface{}) {
	panic(&ProgramError{Msg: fmt.Sprintf(format, args...)})
}

// ParseError is a Domain-level validation failure returned to the caller of
// Domain.Parse. Path is the name of the Domain whose Parse or Pickify
// reported the failure; it does not include the location of an element
// within a composite Domain (see SendErr).
type ParseError struct {
	Message string
	Actual  interface{}
	Path    string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// SendErr is the validation diagnostic callback passed to a Domain's
// pickify function. Composite domains (ArrayDomain, UniqueArrayDomain)
// route each element's errors through prefixSendErr with an "[i]" segment
// and then drop that segment, so the inner message reaches the outer
// SendErr unchanged and without an element location.
type SendErr func(msg string, actual interface{})

// prefixSendErr returns a SendErr that forwards every message to parent
// with seg itself as the path. It does not join seg onto any enclosing
// path; joinPath is the helper that joins segments.
func prefixSendErr(parent func(msg string, actual interface{}, path string), seg string) SendErr {
	return func(msg string, actual interface{}) {
		parent(msg, actual, seg)
	}
}

func joinPath(parent, seg string) string {
	if parent == "" {
		return seg
	}
	if strings.HasPrefix(seg, "[") {
		return parent + seg
	}
	return parent + "." + seg
}

// MultiError aggregates the ParseErrors a Domain's Parse or Pickify reports
// through SendErr, in graft's pkg/graft/errors.go style: ansi-colored,
// counted, and sorted for stable output.
type MultiError struct {
	Errors []error
}

func (e *MultiError) Error() string {
	lines := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		lines = append(lines, fmt.Sprintf(" - %s", err))
	}
	sort.Strings(lines)
	return ansi.Sprintf("@r{%d} failure(s) detected:\n%s", len(e.Errors), strings.Join(lines, "\n"))
}

// Append adds err to the aggregate, flattening nested MultiErrors and
// ignoring nil.
func (e *MultiError) Append(err error) {
	if err == nil {
		return
	}
	if m, ok := err.(*MultiError); ok {
		e.Errors = append(e.Errors, m.Errors...)
		return
	}
	e.Errors = append(e.Errors, err)
}

// Count reports how many errors have been appended.
func (e *MultiError) Count() int { return len(e.Errors) }

// ErrOrNil returns e if it holds at least one error, else nil, so callers
// can `return errs.ErrOrNil()` without an extra len check.
func (e *MultiError) ErrOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}
