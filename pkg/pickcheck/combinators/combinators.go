// Package combinators provides generic scripts built on top of simpler
// ones: map/filter/chain over a single script, and array/object/oneOf over
// several, the everyday vocabulary spec.md §4.8 expects on top of the core
// pick/script/domain machinery in pickcheck itself.
package combinators

import pc "github.com/pickcheck/pickcheck/pkg/pickcheck"

// Map builds s, then applies f to its result.
func Map[A, B any](name string, s *pc.Script[A], f func(A) B) *pc.Script[B] {
	return pc.Make(name, func(pf *pc.PickFunction) B {
		return f(pc.CallScript(pf, s))
	})
}

// Filter builds s repeatedly until pred holds, rejecting (via pf.Accept)
// every candidate that doesn't.
func Filter[A any](name string, s *pc.Script[A], pred func(A) bool) *pc.Script[A] {
	return pc.Make(name, func(pf *pc.PickFunction) A {
		v := pc.CallScript(pf, s)
		pf.Accept(pred(v))
		return v
	})
}

// Chain builds s, then uses its result to choose and build a second
// script, flattening the nesting (the generic "bind" spec.md describes for
// data-dependent generation, e.g. "pick a length, then an array of that
// length").
func Chain[A, B any](name string, s *pc.Script[A], next func(A) *pc.Script[B]) *pc.Script[B] {
	return pc.Make(name, func(pf *pc.PickFunction) B {
		a := pc.CallScript(pf, s)
		return pc.CallScript(pf, next(a))
	})
}

// Of returns a script that always builds value, consuming no picks.
func Of[A any](name string, value A) *pc.Script[A] {
	return pc.Make(name, func(*pc.PickFunction) A { return value })
}

// Array builds a []A of between min and max (inclusive) elements of elem.
func Array[A any](name string, elem *pc.Script[A], min, max int) *pc.Script[[]A] {
	return pc.Make(name, func(pf *pc.PickFunction) []A {
		n := int(pf.Pick(pc.NewRequest(pc.Reply(min), pc.Reply(max))))
		out := make([]A, n)
		for i := range out {
			out[i] = pc.CallScript(pf, elem)
		}
		return out
	})
}

// UniqueArray is Array with duplicate rejection by keyOf, matching
// spec.md's uniqueArray combinator.
func UniqueArray[A any](name string, elem *pc.Script[A], min, max int, keyOf func(A) interface{}) *pc.Script[[]A] {
	return pc.Make(name, func(pf *pc.PickFunction) []A {
		n := int(pf.Pick(pc.NewRequest(pc.Reply(min), pc.Reply(max))))
		out := make([]A, 0, n)
		seen := make(map[interface{}]struct{}, n)
		for i := 0; i < n; i++ {
			for {
				v := pc.CallScript(pf, elem)
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
}

// Field is one named entry of an Object combinator.
type Field struct {
	Name   string
	Script interface{} // *pc.Script[X] for whatever X this field holds
}

// Object builds a map[string]any by running each field's script in order
// and assembling the results, the generic stand-in for spec.md's record
// combinator in a language without anonymous structural typing at the
// generic-function level. Callers wanting a concrete struct type should
// instead write a BuildFunc that calls CallScript per field directly; this
// combinator exists for dynamically-shaped records (e.g. a config-document
// generator).
func Object(name string, fields ...Field) *pc.Script[map[string]interface{}] {
	return pc.Make(name, func(pf *pc.PickFunction) map[string]interface{} {
		out := make(map[string]interface{}, len(fields))
		for _, f := range fields {
			out[f.Name] = buildUntypedField(pf, f.Script)
		}
		return out
	})
}

// scriptRunner is implemented by the typedRunner adapter that FieldOf wraps
// around a *pc.Script[T], letting Object stay untyped over heterogeneous
// fields. A bare *pc.Script[T] does not implement it.
type scriptRunner interface {
	runUntyped(pf *pc.PickFunction) interface{}
}

func buildUntypedField(pf *pc.PickFunction, s interface{}) interface{} {
	if r, ok := s.(scriptRunner); ok {
		return r.runUntyped(pf)
	}
	panicUnknownField()
	return nil
}

func panicUnknownField() {
	panic("combinators.Object: field script does not implement scriptRunner; wrap it with combinators.FieldOf(...)")
}

// FieldOf adapts a *pc.Script[A] into a Field runnable from Object.
func FieldOf[A any](name string, s *pc.Script[A]) Field {
	return Field{Name: name, Script: typedRunner[A]{s: s}}
}

type typedRunner[A any] struct{ s *pc.Script[A] }

func (t typedRunner[A]) runUntyped(pf *pc.PickFunction) interface{} {
	return pc.CallScript(pf, t.s)
}

// WeightedCase is one case of OneOf; every case produces the same Go type A
// (spec.md's one_of combinator; see pickcheck.FirstOfDomain for the
// Domain-level, invertible equivalent). OneOf picks the case index
// uniformly and does not use Weight to choose.
type WeightedCase[A any] struct {
	Script *pc.Script[A]
	Weight float64
}

// OneOf's canonical encoding is always a plain case index; Weight here is
// informational only (pickcheck.FirstOfDomain is where weight actually
// biases a random responder's choice, via req.Bias).
func OneOf[A any](name string, cases ...WeightedCase[A]) *pc.Script[A] {
	for _, c := range cases {
		if c.Weight < 0 {
			panic("combinators.OneOf: negative weight")
		}
	}
	return pc.Make(name, func(pf *pc.PickFunction) A {
		idx := pf.Pick(pc.NewRequest(0, pc.Reply(len(cases)-1)))
		return pc.CallScript(pf, cases[idx].Script)
	})
}
