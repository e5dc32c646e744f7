package pickcheck

import "reflect"

// Jar draws a bounded number of distinct values from a script, pruning a
// shared PickTree so that values already taken can never recur even when
// their underlying pick sequences differ syntactically but their encoded
// canonical form does not (spec.md §4.6). Distinctness is judged by
// reflect.DeepEqual on the built value, not by pick-sequence identity.
type Jar[T any] struct {
	script   *Script[T]
	tree     *PickTree
	rng      int64
	taken    []T
	tries    int
	maxTries int
}

// NewJar returns a Jar drawing from script, seeded deterministically by
// seed. maxTries bounds how many candidate playouts Take will attempt
// before giving up on a still-empty tree (0 means DefaultMaxTries).
func NewJar[T any](script *Script[T], seed int64, maxTries int) *Jar[T] {
	if maxTries <= 0 {
		maxTries = DefaultMaxTries
	}
	return &Jar[T]{script: script, tree: NewPickTree(), rng: seed, maxTries: maxTries}
}

// Take draws the next distinct value, returning ok=false once the tree is
// exhausted (every reachable value has already been taken) or maxTries
// candidates in a row all duplicated something already taken.
func (j *Jar[T]) Take() (T, bool) {
	for attempt := 0; attempt < j.maxTries; attempt++ {
		if j.tree.IsEmpty() {
			var zero T
			return zero, false
		}
		responder := NewRandomTrackingResponder(j.tree, j.rng+int64(j.tries))
		j.tries++
		v, _, ok := Dispatch(j.script, responder, DispatchOpts{})
		if !ok {
			if j.tree.IsEmpty() {
				var zero T
				return zero, false
			}
			continue
		}
		if j.duplicate(v) {
			responder.PruneCurrentPlayout()
			continue
		}
		responder.PruneCurrentPlayout()
		j.taken = append(j.taken, v)
		return v, true
	}
	var zero T
	return zero, false
}

func (j *Jar[T]) duplicate(v T) bool {
	for _, t := range j.taken {
		if reflect.DeepEqual(any(t), any(v)) {
			return true
		}
	}
	return false
}

// Taken returns every value drawn so far, in draw order.
func (j *Jar[T]) Taken() []T { return j.taken }

// RowJar is a Jar specialized for table rows, where distinctness is judged
// by a key function instead of full deep equality (spec.md's "distinct
// rows of a table" use case, e.g. a unique primary key column rather than
// whole-row equality).
type RowJar[T any] struct {
	script   *Script[T]
	tree     *PickTree
	rng      int64
	keyOf    func(T) interface{}
	keys     map[interface{}]struct{}
	taken    []T
	tries    int
	maxTries int
}

// NewRowJar is NewJar with a key function in place of deep equality.
func NewRowJar[T any](script *Script[T], seed int64, maxTries int, keyOf func(T) interface{}) *RowJar[T] {
	if maxTries <= 0 {
		maxTries = DefaultMaxTries
	}
	return &RowJar[T]{script: script, tree: NewPickTree(), rng: seed, maxTries: maxTries, keyOf: keyOf, keys: map[interface{}]struct{}{}}
}

func (j *RowJar[T]) Take() (T, bool) {
	for attempt := 0; attempt < j.maxTries; attempt++ {
		if j.tree.IsEmpty() {
			var zero T
			return zero, false
		}
		responder := NewRandomTrackingResponder(j.tree, j.rng+int64(j.tries))
		j.tries++
		v, _, ok := Dispatch(j.script, responder, DispatchOpts{})
		if !ok {
			if j.tree.IsEmpty() {
				var zero T
				return zero, false
			}
			continue
		}
		k := j.keyOf(v)
		if _, dup := j.keys[k]; dup {
			responder.PruneCurrentPlayout()
			continue
		}
		responder.PruneCurrentPlayout()
		j.keys[k] = struct{}{}
		j.taken = append(j.taken, v)
		return v, true
	}
	var zero T
	return zero, false
}

func (j *RowJar[T]) Taken() []T { return j.taken }
