package pickcheck

import "testing"

func TestKeepEverywherePreservesValue(t *testing.T) {
	s := threeBitScript()
	_, log, ok := Dispatch(s, NewPlaybackResponder([]Reply{1, 0, 1}), DispatchOpts{})
	if !ok {
		t.Fatal("dispatch was filtered")
	}
	v, _, changed, ok := RunScriptWithEdits(log, s, KeepEverywhere)
	if !ok {
		t.Fatal("expected RunScriptWithEdits to succeed")
	}
	if changed {
		t.Fatal("KeepEverywhere should never report changed")
	}
	if v != 5 {
		t.Fatalf("v = %d, want 5", v)
	}
}

func TestReplaceAtChangesExactlyOnePick(t *testing.T) {
	s := threeBitScript()
	_, log, ok := Dispatch(s, NewPlaybackResponder([]Reply{1, 0, 1}), DispatchOpts{})
	if !ok {
		t.Fatal("dispatch was filtered")
	}
	v, _, changed, ok := RunScriptWithEdits(log, s, ReplaceAt(2, 0, 0))
	if !ok {
		t.Fatal("expected RunScriptWithEdits to succeed")
	}
	if !changed {
		t.Fatal("expected ReplaceAt to report changed")
	}
	if v != 4 {
		t.Fatalf("v = %d, want 4 (101 -> 100)", v)
	}
}

func TestReplaceAtReportsUnchangedWhenValueIsIdentical(t *testing.T) {
	s := threeBitScript()
	_, log, ok := Dispatch(s, NewPlaybackResponder([]Reply{1, 0, 1}), DispatchOpts{})
	if !ok {
		t.Fatal("dispatch was filtered")
	}
	_, _, changed, ok := RunScriptWithEdits(log, s, ReplaceAt(2, 0, 1))
	if !ok {
		t.Fatal("expected RunScriptWithEdits to succeed")
	}
	if changed {
		t.Fatal("replacing a pick with its own value should not report changed")
	}
}

func TestRemoveGroupAtRebuildsFromFreshStream(t *testing.T) {
	inner := Make[int]("bit", func(pf *PickFunction) int {
		return int(pf.Pick(NewRequest(0, 1)))
	})
	outer := Make[int]("two_bits", func(pf *PickFunction) int {
		a := CallScript(pf, inner)
		b := CallScript(pf, inner)
		return a*2 + b
	})
	_, log, ok := Dispatch(outer, NewPlaybackResponder([]Reply{1, 0}), DispatchOpts{})
	if !ok {
		t.Fatal("dispatch was filtered")
	}
	v, _, changed, ok := RunScriptWithEdits(log, outer, RemoveGroupAt(0))
	if !ok {
		t.Fatal("expected RunScriptWithEdits to succeed")
	}
	if !changed {
		t.Fatal("expected RemoveGroupAt to report changed")
	}
	if v != 0 {
		t.Fatalf("v = %d, want 0 (first group removed, rebuilt from the remaining stream [0])", v)
	}
}

func TestSnipSuffixShortensTrailingGroups(t *testing.T) {
	s := threeBitScript()
	_, log, ok := Dispatch(s, NewPlaybackResponder([]Reply{1, 1, 1}), DispatchOpts{})
	if !ok {
		t.Fatal("dispatch was filtered")
	}
	_, _, changed, ok := RunScriptWithEdits(log, s, SnipSuffix(1))
	if !ok {
		t.Fatal("expected RunScriptWithEdits to succeed")
	}
	if !changed {
		t.Fatal("expected SnipSuffix to report changed")
	}
}

func TestTowardMinHalvesValueAndStopsAtMin(t *testing.T) {
	req := NewRequest(0, 100)
	e := TowardMin(0, req, 50)
	if e.Kind != EditReplace || e.Value != 25 {
		t.Fatalf("TowardMin(50) = %+v, want EditReplace 25", e)
	}

	atMin := TowardMin(0, req, 0)
	if atMin.Kind != EditKeep {
		t.Fatalf("TowardMin(min) = %+v, want EditKeep", atMin)
	}

	adjacent := TowardMin(0, req, 1)
	if adjacent.Kind != EditReplace || adjacent.Value != 0 {
		t.Fatalf("TowardMin(1) = %+v, want EditReplace 0", adjacent)
	}
}
