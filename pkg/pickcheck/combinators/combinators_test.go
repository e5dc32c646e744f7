package combinators

import (
	"testing"

	pc "github.com/pickcheck/pickcheck/pkg/pickcheck"
)

func bitScript() *pc.Script[int] {
	return pc.Make("bit", func(pf *pc.PickFunction) int {
		return int(pf.Pick(pc.NewRequest(0, 1)))
	})
}

func build[A any](t *testing.T, s *pc.Script[A], replies []pc.Reply) A {
	t.Helper()
	v, _, ok := pc.Dispatch(s, pc.NewPlaybackResponder(replies), pc.DispatchOpts{})
	if !ok {
		t.Fatal("Dispatch was filtered")
	}
	return v
}

func TestMapAppliesFunctionAfterBuild(t *testing.T) {
	doubled := Map("doubled", bitScript(), func(v int) int { return v * 2 })
	if got := build(t, doubled, []pc.Reply{1}); got != 2 {
		t.Fatalf("Map result = %d, want 2", got)
	}
}

func TestFilterRejectsUntilPredicateHolds(t *testing.T) {
	evens := Filter("evens", bitScript(), func(v int) bool { return v == 0 })
	v, _, ok := pc.Dispatch(evens, pc.NewRandomResponder(1), pc.DispatchOpts{MaxTries: 50})
	if !ok {
		t.Fatal("expected Dispatch to eventually find a zero")
	}
	if v != 0 {
		t.Fatalf("Filter result = %d, want 0", v)
	}
}

func TestChainUsesFirstResultToChooseSecondScript(t *testing.T) {
	chained := Chain("chained", bitScript(), func(flag int) *pc.Script[int] {
		if flag == 1 {
			return Of("ten", 10)
		}
		return Of("twenty", 20)
	})
	if got := build(t, chained, []pc.Reply{1}); got != 10 {
		t.Fatalf("Chain(1) = %d, want 10", got)
	}
	if got := build(t, chained, []pc.Reply{0}); got != 20 {
		t.Fatalf("Chain(0) = %d, want 20", got)
	}
}

func TestOfAlwaysReturnsItsValueWithoutPicking(t *testing.T) {
	s := Of("fixed", "hello")
	got := build(t, s, nil)
	if got != "hello" {
		t.Fatalf("Of result = %q, want %q", got, "hello")
	}
}

func TestArrayBuildsWithinBounds(t *testing.T) {
	arr := Array("arr", bitScript(), 2, 4)
	got := build(t, arr, []pc.Reply{3, 1, 0, 1})
	if len(got) != 3 {
		t.Fatalf("len(Array result) = %d, want 3", len(got))
	}
	want := []int{1, 0, 1}
	for i, v := range want {
		if got[i] != v {
			t.Fatalf("got[%d] = %d, want %d", i, got[i], v)
		}
	}
}

func TestUniqueArrayRejectsDuplicates(t *testing.T) {
	arr := UniqueArray("unique_bits", bitScript(), 2, 2, func(v int) interface{} { return v })
	got := build(t, arr, []pc.Reply{2, 1, 0})
	if len(got) != 2 {
		t.Fatalf("len(UniqueArray result) = %d, want 2", len(got))
	}
	if got[0] == got[1] {
		t.Fatalf("UniqueArray produced a duplicate: %v", got)
	}
}

func TestObjectAssemblesNamedFields(t *testing.T) {
	obj := Object("record",
		FieldOf("flag", bitScript()),
		FieldOf("label", Of("label", "x")),
	)
	got := build(t, obj, []pc.Reply{1})
	if got["flag"] != 1 {
		t.Fatalf("flag = %v, want 1", got["flag"])
	}
	if got["label"] != "x" {
		t.Fatalf("label = %v, want %q", got["label"], "x")
	}
}

func TestObjectPanicsOnUnwrappedField(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Object to panic when a field isn't wrapped with FieldOf")
		}
	}()
	obj := Object("bad", Field{Name: "oops", Script: bitScript()})
	build(t, obj, []pc.Reply{0})
}

func TestOneOfSelectsCaseByIndex(t *testing.T) {
	s := OneOf("choice",
		WeightedCase[string]{Script: Of("a", "A"), Weight: 1},
		WeightedCase[string]{Script: Of("b", "B"), Weight: 1},
	)
	if got := build(t, s, []pc.Reply{0}); got != "A" {
		t.Fatalf("OneOf(0) = %q, want %q", got, "A")
	}
	if got := build(t, s, []pc.Reply{1}); got != "B" {
		t.Fatalf("OneOf(1) = %q, want %q", got, "B")
	}
}

func TestOneOfPanicsOnNegativeWeight(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected OneOf to panic on a negative weight")
		}
	}()
	OneOf("bad", WeightedCase[string]{Script: Of("a", "A"), Weight: -1})
}
