package pickcheck

import (
	"fmt"

	pclog "github.com/pickcheck/pickcheck/log"
)

// DefaultMaxTries bounds how many times an accept-filtered build may retry
// before giving up and propagating Filtered to its own caller (spec.md §5,
// "max_tries").
const DefaultMaxTries = 1000

// DispatchOpts configures a single top-level Dispatch/Generate call.
type DispatchOpts struct {
	// MaxTries overrides DefaultMaxTries; zero means use the default.
	MaxTries int
	// LogCalls enables TRACE logging of every pick in this build, regardless
	// of the root script's own LogCalls option. The CallBuffer records the
	// build either way.
	LogCalls bool
}

// PickFunction is the single channel through which a running script asks
// for picks and makes nested script calls (spec.md §4). It owns the
// Responder supplying replies, the CallBuffer recording them, and the
// retry/backoff bookkeeping for accept-filtered (Filtered) rejection.
type PickFunction struct {
	responder Responder
	buf       *CallBuffer
	maxTries  int
	tries     int
	logCalls  bool
}

func newPickFunction(r Responder, buf *CallBuffer, opts DispatchOpts) *PickFunction {
	maxTries := opts.MaxTries
	if maxTries <= 0 {
		maxTries = DefaultMaxTries
	}
	return &PickFunction{responder: r, buf: buf, maxTries: maxTries, logCalls: opts.LogCalls}
}

// Pick requests a single reply in [req.Min, req.Max], recording it on the
// current CallBuffer frame. It panics with Filtered if the responder has no
// reply to offer (the caller is expected to recover via Dispatch/tryBuild).
func (pf *PickFunction) Pick(req PickRequest) Reply {
	reply, ok := pf.responder.NextPick(req)
	if !ok {
		panic(Filtered)
	}
	pf.buf.RecordPick(req, reply)
	if pf.logCalls {
		pclog.TRACE("pick %v -> %v", req, reply)
	}
	return reply
}

// Reject immediately abandons the current build attempt as filtered,
// equivalent to a script explicitly rejecting its own candidate value
// (spec.md §5, accept filters expressed via a boolean predicate).
func (pf *PickFunction) Reject() {
	panic(Filtered)
}

// Accept rejects the current attempt unless cond holds, the usual way a
// script expresses a filter/precondition on a built value.
func (pf *PickFunction) Accept(cond bool) {
	if !cond {
		panic(Filtered)
	}
}

// CallScript runs a nested script, opening and closing its own CallBuffer
// frame, with caching per the script's Cachable option. A Filtered panic
// from the nested build propagates after abandoning (not recording) the
// open frame.
func CallScript[T any](pf *PickFunction, s *Script[T]) T {
	pf.buf.BeginScript(s)
	v, err := tryBuild(pf, s)
	if err != nil {
		pf.buf.AbandonScript()
		panic(Filtered)
	}
	pf.buf.EndScript(s, cacheVal(s.opts.Cachable, v))
	return v
}

func cacheVal(cachable bool, v interface{}) interface{} {
	if !cachable {
		return REGEN
	}
	return v
}

// tryBuild runs s.build(pf) once, converting a Filtered panic into an error
// return instead of letting it continue unwinding past this frame.
func tryBuild[T any](pf *PickFunction, s *Script[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			if IsFiltered(asError(r)) {
				err = Filtered
				return
			}
			panic(r)
		}
	}()
	v = s.build(pf)
	return v, nil
}

func asError(r interface{}) error {
	if e, ok := r.(error); ok {
		return e
	}
	return fmt.Errorf("%v", r)
}

// Dispatch runs s to completion against responder, retrying up to opts'
// MaxTries whenever the build panics Filtered — backing up via
// responder.StartAt(0) — and returns the final value plus the completed
// CallLog. ok is false if every attempt was filtered. A single CallBuffer
// is shared across attempts: a failed attempt's recorded picks are undone
// via Snapshot/Rollback (spec.md §4.4's undo_pushes) rather than thrown
// away with a fresh buffer, so a retry never pays to re-allocate the log
// it's about to discard most of anyway.
func Dispatch[T any](s *Script[T], responder Responder, opts DispatchOpts) (val T, log *CallLog, ok bool) {
	if opts.MaxTries <= 0 {
		opts.MaxTries = DefaultMaxTries
	}
	logCalls := opts.LogCalls || s.opts.LogCalls
	buf := NewCallBuffer()
	for attempt := 0; attempt < opts.MaxTries; attempt++ {
		snap := buf.Snapshot()
		pf := newPickFunction(responder, buf, DispatchOpts{MaxTries: opts.MaxTries, LogCalls: logCalls})
		v, err := tryBuild(pf, s)
		if err != nil {
			buf.Rollback(snap)
			if !responder.StartAt(0) {
				var zero T
				return zero, nil, false
			}
			continue
		}
		return v, buf.Finish(), true
	}
	var zero T
	return zero, nil, false
}

// Generate is Dispatch against a fresh RandomResponder seeded by seed, the
// common entry point for exploratory (non-replay, non-enumerated) testing.
func Generate[T any](s *Script[T], seed int64, opts DispatchOpts) (Gen[T], bool) {
	r := NewRandomResponder(seed)
	v, log, ok := Dispatch(s, r, opts)
	if !ok {
		return Gen[T]{}, false
	}
	return Gen[T]{script: s, log: log, value: v}, true
}
