package pickcheck

import "sync/atomic"

// ScriptOpts carries the per-Script flags from spec.md §3.
type ScriptOpts struct {
	// MaxSize, if nonzero, bounds the script's cardinality; used by Ordered
	// Playouts and object/array combinators to compute a product bound.
	MaxSize int64
	// Cachable makes CallScript store the built value on the script's Call
	// instead of REGEN. Replay (RunScript, RunScriptWithEdits) does not
	// reuse that value: it rebuilds every script call from its recorded
	// picks. Go has no general deep-frozen check, so this flag is
	// trusted as written by the author rather than verified at runtime;
	// correctness never depends on it (spec.md §6, "Frozen-value policy").
	Cachable bool
	// SplitCalls records this script's direct sub-calls as distinct
	// CallLog groups instead of folding them into this call's own group.
	SplitCalls bool
	// LazyInit is recorded on the script and read by nothing: Make never
	// runs the build function, so mutually recursive scripts can be wired
	// up before any of them actually run, with or without this flag.
	LazyInit bool
	// LogCalls enables TRACE logging of every pick made in a build while
	// this script is the dispatch root.
	LogCalls bool
	// Weight is this script's relative selection weight inside a union
	// (combinators.OneOf); must be >= 0.
	Weight float64
}

var scriptIDCounter uint64

func nextScriptID() uint64 { return atomic.AddUint64(&scriptIDCounter, 1) }

// BuildFunc is a Script's build function: a pure function of the picks it
// requests through pf. Two calls with equal picks must produce equal (but
// not necessarily identical) values.
type BuildFunc[T any] func(pf *PickFunction) T

// Script is an immutable, named, deterministic build function plus its
// options (spec.md §3). Scripts carry a stable identity (ID) used for
// script-call caching and unique-column Domain matching.
type Script[T any] struct {
	id    uint64
	name  string
	build BuildFunc[T]
	opts  ScriptOpts
}

// Make constructs a Script. opts defaults to the zero value (not cachable,
// not split) when omitted.
func Make[T any](name string, build BuildFunc[T], opts ...ScriptOpts) *Script[T] {
	var o ScriptOpts
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Weight < 0 {
		panicProgramError("script %q: negative weight %v", name, o.Weight)
	}
	return &Script[T]{id: nextScriptID(), name: name, build: build, opts: o}
}

// From coerces any build-capable function into a Script, defaulting its
// name to "anonymous".
func From[T any](build BuildFunc[T]) *Script[T] { return Make("anonymous", build) }

func (s *Script[T]) Name() string     { return s.name }
func (s *Script[T]) ID() uint64       { return s.id }
func (s *Script[T]) Opts() ScriptOpts { return s.opts }

// Build invokes the script directly against pf, with no dispatcher-level
// retry/caching wrapper. Most callers want Dispatch or Generate instead.
func (s *Script[T]) Build(pf *PickFunction) T { return s.build(pf) }

// scriptHandle is the type-erased view of a Script stored on a Call, used
// by CallLog/CallBuffer/Domain code that cannot be generic over T.
type scriptHandle interface {
	scriptID() uint64
	scriptName() string
	scriptOpts() ScriptOpts
	buildUntyped(pf *PickFunction) interface{}
}

func (s *Script[T]) scriptID() uint64       { return s.id }
func (s *Script[T]) scriptName() string     { return s.name }
func (s *Script[T]) scriptOpts() ScriptOpts { return s.opts }
func (s *Script[T]) buildUntyped(pf *PickFunction) interface{} {
	return s.build(pf)
}

// Run replays log through s from the start by feeding its flattened replies
// back through s (see RunScript). Every script call is rebuilt from its
// recorded picks; a value cached on a Call is not reused. Returns ok=false
// if the rebuild is Filtered.
func (s *Script[T]) Run(log *CallLog) (T, bool) {
	return RunScript(log, s)
}
