package pickcheck

import "testing"

func TestDispatchSucceedsOnFirstTry(t *testing.T) {
	s := threeBitScript()
	v, log, ok := Dispatch(s, NewPlaybackResponder([]Reply{1, 0, 0}), DispatchOpts{})
	if !ok {
		t.Fatal("expected Dispatch to succeed")
	}
	if v != 4 {
		t.Fatalf("v = %d, want 4", v)
	}
	if log.Len() != 3 {
		t.Fatalf("log.Len() = %d, want 3", log.Len())
	}
}

func TestDispatchRetriesOnReject(t *testing.T) {
	s := Make[int]("even_only", func(pf *PickFunction) int {
		v := int(pf.Pick(NewRequest(0, 3)))
		pf.Accept(v%2 == 0)
		return v
	})
	v, _, ok := Generate(s, 1, DispatchOpts{MaxTries: 50})
	if !ok {
		t.Fatal("expected Generate to eventually find an even value")
	}
	if v.value%2 != 0 {
		t.Fatalf("v = %d, want an even value", v.value)
	}
}

func TestDispatchGivesUpAfterMaxTries(t *testing.T) {
	s := Make[int]("always_rejects", func(pf *PickFunction) int {
		pf.Reject()
		return 0
	})
	_, _, ok := Generate(s, 1, DispatchOpts{MaxTries: 5})
	if ok {
		t.Fatal("expected Dispatch to give up once MaxTries is exhausted")
	}
}

// Regression test for a bug where RandomResponder.StartAt(0) falsely
// reported no continuation once at least one pick had been drawn, aborting
// Generate after its very first Filtered attempt instead of retrying.
func TestGenerateRetriesPastFirstFilteredAttemptWithRandomResponder(t *testing.T) {
	s := Make[int]("reject_after_pick", func(pf *PickFunction) int {
		v := int(pf.Pick(NewRequest(0, 100)))
		pf.Accept(v == 42)
		return v
	})
	found := false
	for seed := int64(0); seed < 200 && !found; seed++ {
		if _, _, ok := Generate(s, seed, DispatchOpts{MaxTries: 500}); ok {
			found = true
		}
	}
	if !found {
		t.Fatal("expected at least one seed to eventually hit the accepted value across many retries")
	}
}

func TestCallScriptCachesWhenCachable(t *testing.T) {
	builds := 0
	inner := Make[int]("inner", func(pf *PickFunction) int {
		builds++
		return int(pf.Pick(NewRequest(0, 1)))
	}, ScriptOpts{Cachable: true})

	outer := Make[int]("outer", func(pf *PickFunction) int {
		a := CallScript(pf, inner)
		b := CallScript(pf, inner)
		return a + b
	})

	_, _, ok := Dispatch(outer, NewPlaybackResponder([]Reply{1, 0}), DispatchOpts{})
	if !ok {
		t.Fatal("expected Dispatch to succeed")
	}
	if builds != 2 {
		t.Fatalf("builds = %d, want 2 (both direct calls in the first pass build)", builds)
	}
}

func TestCallScriptPropagatesFilteredFromNestedBuild(t *testing.T) {
	inner := Make[int]("always_rejects", func(pf *PickFunction) int {
		pf.Reject()
		return 0
	})
	outer := Make[int]("outer", func(pf *PickFunction) int {
		return CallScript(pf, inner)
	})
	_, _, ok := Dispatch(outer, NewRandomResponder(1), DispatchOpts{MaxTries: 3})
	if ok {
		t.Fatal("expected Dispatch to report failure when the nested script always rejects")
	}
}
