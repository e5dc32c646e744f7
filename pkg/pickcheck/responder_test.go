package pickcheck

import "testing"

func TestPlaybackResponderReplaysInOrder(t *testing.T) {
	r := NewPlaybackResponder([]Reply{2, 0, 1})
	req := NewRequest(0, 2)

	for _, want := range []Reply{2, 0, 1} {
		got, ok := r.NextPick(req)
		if !ok || got != want {
			t.Fatalf("NextPick() = (%d, %v), want (%d, true)", got, ok, want)
		}
	}
}

func TestPlaybackResponderFiltersOutOfRangeReply(t *testing.T) {
	r := NewPlaybackResponder([]Reply{5})
	if _, ok := r.NextPick(NewRequest(0, 2)); ok {
		t.Fatal("expected NextPick to report a filtered reply out of range")
	}
}

func TestPlaybackResponderPastEndReturnsMin(t *testing.T) {
	r := NewPlaybackResponder(nil)
	req := NewRequest(3, 7)
	got, ok := r.NextPick(req)
	if !ok || got != 3 {
		t.Fatalf("NextPick() past end = (%d, %v), want (3, true)", got, ok)
	}
	if r.StartAt(0) {
		t.Fatal("a responder past its end should never allow a restart")
	}
}

func TestEditResponderSnipPullsFromFurtherInStream(t *testing.T) {
	source := []Reply{1, 2, 3}
	edit := func(idx int, req PickRequest, before Reply) (editOp, Reply) {
		if idx == 0 {
			return editSnip, 0
		}
		return editKeep, before
	}
	r := NewEditResponder(source, edit)
	req := NewRequest(0, 5)

	got, ok := r.NextPick(req)
	if !ok || got != 2 {
		t.Fatalf("NextPick() = (%d, %v), want (2, true) after snipping index 0", got, ok)
	}
	if !r.Changed() {
		t.Fatal("expected Changed() to report true after a snip")
	}
}

func TestEditResponderReplaceReportsChangedOnlyWhenDifferent(t *testing.T) {
	source := []Reply{4}
	req := NewRequest(0, 10)

	sameEdit := func(idx int, req PickRequest, before Reply) (editOp, Reply) {
		return editReplace, before
	}
	r := NewEditResponder(source, sameEdit)
	if _, ok := r.NextPick(req); !ok {
		t.Fatal("expected NextPick to succeed")
	}
	if r.Changed() {
		t.Fatal("replacing a pick with its own value should not report Changed")
	}

	diffEdit := func(idx int, req PickRequest, before Reply) (editOp, Reply) {
		return editReplace, before + 1
	}
	r2 := NewEditResponder(source, diffEdit)
	if _, ok := r2.NextPick(req); !ok {
		t.Fatal("expected NextPick to succeed")
	}
	if !r2.Changed() {
		t.Fatal("replacing a pick with a different value should report Changed")
	}
}

func TestOrderedTreeResponderPrefersMinimumAndPrunes(t *testing.T) {
	tree := NewPickTree()
	req := NewRequest(0, 1)

	tr := NewOrderedTreeResponder(tree)
	got, ok := tr.NextPick(req)
	if !ok || got != 0 {
		t.Fatalf("first NextPick() = (%d, %v), want (0, true)", got, ok)
	}

	if !tr.StartAt(0) {
		t.Fatal("StartAt(0) should succeed and prune the exhausted leaf")
	}

	tr2 := NewOrderedTreeResponder(tree)
	got2, ok2 := tr2.NextPick(req)
	if !ok2 || got2 != 1 {
		t.Fatalf("after pruning 0, NextPick() = (%d, %v), want (1, true)", got2, ok2)
	}

	if tr2.StartAt(0) {
		t.Fatal("StartAt(0) should report no continuation once the last leaf is pruned")
	}
	if !tree.IsEmpty() {
		t.Fatal("tree should be fully pruned once both branches are exhausted")
	}
}
