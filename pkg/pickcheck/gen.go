package pickcheck

// Gen is a single successful build result (spec.md §4): the script that
// produced it, the CallLog that reproduces it, and the value itself. A Gen
// is the unit the Shrinker works on and the unit a property test receives.
type Gen[T any] struct {
	script *Script[T]
	log    *CallLog
	value  T
}

// Value returns the built value.
func (g Gen[T]) Value() T { return g.value }

// Log returns the CallLog that reproduces this value.
func (g Gen[T]) Log() *CallLog { return g.log }

// Script returns the script this Gen was built from.
func (g Gen[T]) Script() *Script[T] { return g.script }

// MustBuild constructs a Gen directly from a CallLog, panicking with a
// ProgramError if replaying it through script turns out Filtered — for
// callers that already know the log is valid for this script.
func MustBuild[T any](script *Script[T], log *CallLog) Gen[T] {
	v, ok := RunScript(log, script)
	if !ok {
		panicProgramError("MustBuild: call log did not reproduce a value for script %q", script.Name())
	}
	return Gen[T]{script: script, log: log, value: v}
}

// Regenerate replays g's own log through its own script, returning an
// identical Gen. Used to confirm a log still reproduces after an edit, or
// simply to re-derive Value from Log alone.
func (g Gen[T]) Regenerate() (Gen[T], bool) {
	v, ok := RunScript(g.log, g.script)
	if !ok {
		return Gen[T]{}, false
	}
	return Gen[T]{script: g.script, log: g.log, value: v}, true
}
