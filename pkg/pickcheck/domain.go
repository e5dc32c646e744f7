package pickcheck

import (
	"fmt"
	"reflect"
)

// PickifyFunc inverts a Domain's Build script: given a value of type T, it
// returns the canonical pick sequence that reproduces it, or ok=false if
// val is not a member of the domain (reporting why via sendErr).
type PickifyFunc[T any] func(val T, sendErr SendErr) (picks []Reply, ok bool)

// Domain is an invertible pairing of a build Script with a pickify
// function, per spec.md §4.5: every value the domain accepts has a
// canonical reply sequence, and replaying that sequence through Build
// reproduces an equal value.
type Domain[T any] struct {
	name    string
	build   *Script[T]
	pickify PickifyFunc[T]
}

// NewDomain pairs build and pickify under name, used in diagnostics as the
// Path of every ParseError the domain reports.
func NewDomain[T any](name string, build *Script[T], pickify PickifyFunc[T]) *Domain[T] {
	return &Domain[T]{name: name, build: build, pickify: pickify}
}

func (d *Domain[T]) Name() string     { return d.name }
func (d *Domain[T]) Build() *Script[T] { return d.build }

// Parse pickifies val and replays the result through Build, returning the
// reproduced Gen. It fails if pickify rejects val, or if (a defensive
// check against a buggy pickify) the replay doesn't reproduce an equal
// value.
func (d *Domain[T]) Parse(val T) (Gen[T], error) {
	errs := &MultiError{}
	sendErr := func(msg string, actual interface{}) {
		errs.Append(&ParseError{Message: msg, Actual: actual, Path: d.name})
	}
	picks, ok := d.pickify(val, sendErr)
	if !ok {
		if err := errs.ErrOrNil(); err != nil {
			return Gen[T]{}, err
		}
		return Gen[T]{}, &ParseError{Message: "value rejected", Actual: val, Path: d.name}
	}
	responder := NewPlaybackResponder(picks)
	v, log, built := Dispatch(d.build, responder, DispatchOpts{})
	if !built {
		return Gen[T]{}, &ParseError{Message: "pickify produced a filtered pick sequence", Actual: val, Path: d.name}
	}
	if !reflect.DeepEqual(any(v), any(val)) {
		return Gen[T]{}, &ParseError{Message: "round trip did not reproduce the original value", Actual: val, Path: d.name}
	}
	return Gen[T]{script: d.build, log: log, value: v}, nil
}

// Pickify exposes the domain's canonical encoding of val directly, for
// callers (e.g. a reproduction CLI) that need to re-derive a pick sequence
// from an externally edited value without going through the full Parse
// round-trip check.
func (d *Domain[T]) Pickify(val T) ([]Reply, error) {
	errs := &MultiError{}
	sendErr := func(msg string, actual interface{}) {
		errs.Append(&ParseError{Message: msg, Actual: actual, Path: d.name})
	}
	picks, ok := d.pickify(val, sendErr)
	if !ok {
		if err := errs.ErrOrNil(); err != nil {
			return nil, err
		}
		return nil, &ParseError{Message: "value rejected", Actual: val, Path: d.name}
	}
	return picks, nil
}

// MustVerifyRoundTrip panics with a ProgramError if sample does not
// round-trip through d, the "consistency dry-run" a Domain's author is
// expected to run (typically from a test) once a ground-truth sample is
// available, since Domain construction itself has no sample to check.
func (d *Domain[T]) MustVerifyRoundTrip(sample T) {
	if _, err := d.Parse(sample); err != nil {
		panicProgramError("domain %q failed round-trip on sample %v: %v", d.name, sample, err)
	}
}

// IntDomain is the bounded-integer primitive: a sign bit followed by a
// magnitude pick, so 0 always encodes as [0,0] when the range straddles
// zero and negative values never share a pick sequence with positive ones.
// When the range doesn't straddle zero (min >= 0 or max < 0), the sign
// branch that can't occur is never offered — a Random/Tree responder can
// legally choose either sign bit, so a branch whose magnitude request would
// be invalid (min > max) must not be constructible at all.
func IntDomain(name string, min, max int) *Domain[int] {
	straddles := min < 0 && max >= 0
	posMax := Reply(max)
	negMax := Reply(-min)
	build := Make[int](name, func(pf *PickFunction) int {
		switch {
		case straddles:
			sign := pf.Pick(NewRequest(0, 1))
			if sign == 0 {
				return int(pf.Pick(NewRequest(0, posMax)))
			}
			return -int(pf.Pick(NewRequest(0, negMax)))
		case min >= 0:
			pf.Pick(NewRequest(0, 0))
			return int(pf.Pick(NewRequest(Reply(min), posMax)))
		default: // max < 0
			pf.Pick(NewRequest(1, 1))
			return -int(pf.Pick(NewRequest(Reply(-max), negMax)))
		}
	})
	pickify := func(val int, sendErr SendErr) ([]Reply, bool) {
		if val < min || val > max {
			sendErr(fmt.Sprintf("value %d outside [%d,%d]", val, min, max), val)
			return nil, false
		}
		switch {
		case straddles:
			if val >= 0 {
				return []Reply{0, Reply(val)}, true
			}
			return []Reply{1, Reply(-val)}, true
		case min >= 0:
			return []Reply{0, Reply(val)}, true
		default:
			return []Reply{1, Reply(-val)}, true
		}
	}
	build.opts.MaxSize = int64(max) - int64(min) + 1
	return NewDomain(name, build, pickify)
}

// BoolDomain is the two-valued primitive: false is reply 0, true is reply 1.
func BoolDomain(name string) *Domain[bool] {
	build := Make[bool](name, func(pf *PickFunction) bool {
		return pf.Pick(NewRequest(0, 1)) == 1
	})
	build.opts.MaxSize = 2
	pickify := func(val bool, sendErr SendErr) ([]Reply, bool) {
		if val {
			return []Reply{1}, true
		}
		return []Reply{0}, true
	}
	return NewDomain(name, build, pickify)
}

// lengthPick makes the length pick shared by UniqueArray/Table domains: a
// single PickRequest over [min, max].
func lengthPick(pf *PickFunction, min, max int) int {
	return int(pf.Pick(NewRequest(Reply(min), Reply(max))))
}

// ArrayDomain builds a []T of between min and max (inclusive) elements of
// elem: the min fixed slots carry no gate pick at all, then each additional
// slot is offered only after a 1 continuation pick (0 stops the array).
// Reaching max ends the array without asking for a final continuation pick,
// since there is nowhere left to grow; a PlaybackResponder that runs out of
// replies mid-array answers every further request with its minimum (0,
// i.e. stop), so an exactly-min-length array needs no pick at all beyond
// its fixed elements.
func ArrayDomain[T any](name string, elem *Domain[T], min, max int) *Domain[[]T] {
	build := Make[[]T](name, func(pf *PickFunction) []T {
		out := make([]T, 0, max)
		for i := 0; i < min; i++ {
			out = append(out, CallScript(pf, elem.build))
		}
		for len(out) < max {
			if pf.Pick(NewRequest(0, 1)) == 0 {
				break
			}
			out = append(out, CallScript(pf, elem.build))
		}
		return out
	})
	pickify := func(val []T, sendErr SendErr) ([]Reply, bool) {
		if len(val) < min || len(val) > max {
			sendErr("length out of range", len(val))
			return nil, false
		}
		ok := true
		elemPicks := func(i int) []Reply {
			seg := prefixSendErr(func(msg string, actual interface{}, path string) {
				sendErr(msg, actual)
			}, indexSeg(i))
			sub, subOK := elem.pickify(val[i], seg)
			if !subOK {
				ok = false
				return nil
			}
			return sub
		}
		picks := []Reply{}
		for i := 0; i < min; i++ {
			picks = append(picks, elemPicks(i)...)
		}
		for i := min; i < len(val); i++ {
			picks = append(picks, 1)
			picks = append(picks, elemPicks(i)...)
		}
		if len(val) > min && len(val) < max {
			picks = append(picks, 0)
		}
		return picks, ok
	}
	return NewDomain(name, build, pickify)
}

func indexSeg(i int) string {
	return "[" + itoa(i) + "]"
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// UniqueArrayDomain is ArrayDomain with a rejection of any candidate
// carrying two equal elements, per spec.md's uniqueArray combinator. keyOf
// extracts the comparable key two elements must differ by; pass
// func(t T) any { return t } when T itself is comparable. elem's own
// cardinality (set by the primitive Domains via ScriptOpts.MaxSize) is an
// upper bound on how many distinct keys it can ever produce, so a min that
// exceeds it can never be satisfied no matter how many retries a build is
// given; that's checked here, at construction, rather than left to
// discover itself as repeated generation-time rejection.
func UniqueArrayDomain[T any](name string, elem *Domain[T], min, max int, keyOf func(T) interface{}) *Domain[[]T] {
	if card := elem.build.opts.MaxSize; card > 0 && int64(min) > card {
		panicProgramError("%s: only %d unique values available from %s, but %d are required", name, card, elem.name, min)
	}
	build := Make[[]T](name, func(pf *PickFunction) []T {
		n := lengthPick(pf, min, max)
		out := make([]T, 0, n)
		seen := make(map[interface{}]struct{}, n)
		for i := 0; i < n; i++ {
			for {
				v := CallScript(pf, elem.build)
				k := keyOf(v)
				if _, dup := seen[k]; !dup {
					seen[k] = struct{}{}
					out = append(out, v)
					break
				}
				pf.Reject()
			}
		}
		return out
	})
	pickify := func(val []T, sendErr SendErr) ([]Reply, bool) {
		if len(val) < min || len(val) > max {
			sendErr("length out of range", len(val))
			return nil, false
		}
		seen := make(map[interface{}]struct{}, len(val))
		picks := []Reply{Reply(len(val))}
		ok := true
		for i, v := range val {
			k := keyOf(v)
			if _, dup := seen[k]; dup {
				sendErr("duplicate element", v)
				ok = false
				continue
			}
			seen[k] = struct{}{}
			seg := prefixSendErr(func(msg string, actual interface{}, path string) {
				sendErr(msg, actual)
			}, indexSeg(i))
			sub, subOK := elem.pickify(v, seg)
			if !subOK {
				ok = false
				continue
			}
			picks = append(picks, sub...)
		}
		return picks, ok
	}
	return NewDomain(name, build, pickify)
}

// TableDomain is UniqueArrayDomain under the name spec.md uses for a
// distinct-row collection (a "table"): rows built from row, rejecting any
// row whose key duplicates one already accepted.
func TableDomain[T any](name string, row *Domain[T], min, max int, keyOf func(T) interface{}) *Domain[[]T] {
	return UniqueArrayDomain(name, row, min, max, keyOf)
}

// unionCase is one labeled branch of a FirstOfDomain.
type unionCase[T any] struct {
	domain *Domain[T]
	weight float64
}

// FirstOfDomain builds a tagged union over a single Go type T: each case
// contributes candidate values of the same T (e.g. distinct variants
// distinguished at runtime by a tag field), selected by weighted choice
// (spec.md §9's biasThreshold mapping); combinators.OneOf, by contrast,
// does not weight its cases.
// discriminator must return the index of the case that produced val, for
// pickify to delegate correctly.
func FirstOfDomain[T any](name string, discriminator func(T) int, cases ...unionCase[T]) *Domain[T] {
	build := Make[T](name, func(pf *PickFunction) T {
		idx := chooseWeighted(pf, cases)
		return CallScript(pf, cases[idx].domain.build)
	})
	pickify := func(val T, sendErr SendErr) ([]Reply, bool) {
		idx := discriminator(val)
		if idx < 0 || idx >= len(cases) {
			sendErr("no matching union case", val)
			return nil, false
		}
		picks := []Reply{Reply(idx)}
		sub, ok := cases[idx].domain.pickify(val, sendErr)
		if !ok {
			return nil, false
		}
		return append(picks, sub...), true
	}
	return NewDomain(name, build, pickify)
}

// UnionCase builds one FirstOfDomain branch; weight must be >= 0, with 0
// meaning the case can still be targeted by pickify but is never chosen by
// Build.
func UnionCase[T any](domain *Domain[T], weight float64) unionCase[T] {
	if weight < 0 {
		panicProgramError("union case %q: negative weight %v", domain.name, weight)
	}
	return unionCase[T]{domain: domain, weight: weight}
}

// chooseWeighted picks a case index. The canonical pick is always a plain
// [0, len(cases)-1] index, so two equal unions encode identically
// regardless of weight; weight instead biases which index a random
// (non-replayed) responder tends to land on, via req.Bias.
func chooseWeighted[T any](pf *PickFunction, cases []unionCase[T]) int {
	total := 0.0
	for _, c := range cases {
		total += c.weight
	}
	if total <= 0 {
		panicProgramError("union has no positively weighted cases")
	}
	cumulative := make([]uint32, len(cases))
	var running float64
	for i, c := range cases {
		running += c.weight / total
		cumulative[i] = biasThreshold(running)
	}
	req := NewRequest(0, Reply(len(cases)-1))
	req.Bias = func(req PickRequest) Reply {
		return Reply(weightedIndex(cumulative))
	}
	return int(pf.Pick(req))
}

// weightedIndex picks the first bucket whose cumulative threshold exceeds
// a deterministic draw, mirroring biased_bit's threshold comparison. It is
// only ever consulted by RandomResponder, never during replay, so it may
// use its own process-local randomness without affecting canonicality.
func weightedIndex(cumulative []uint32) int {
	draw := biasThreshold(pseudoFloat())
	for i, c := range cumulative {
		if draw < c {
			return i
		}
	}
	return len(cumulative) - 1
}
