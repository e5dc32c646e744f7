package pickcheck

import "testing"

func threeBitScript() *Script[int] {
	return Make[int]("three_bits", func(pf *PickFunction) int {
		total := 0
		for i := 0; i < 3; i++ {
			total = total*2 + int(pf.Pick(NewRequest(0, 1)))
		}
		return total
	})
}

func TestCallLogReplies(t *testing.T) {
	s := threeBitScript()
	v, log, ok := Dispatch(s, NewPlaybackResponder([]Reply{1, 0, 1}), DispatchOpts{})
	if !ok {
		t.Fatal("dispatch was filtered")
	}
	if v != 5 {
		t.Fatalf("got %d, want 5", v)
	}

	replies := log.Replies()
	want := []Reply{1, 0, 1}
	if len(replies) != len(want) {
		t.Fatalf("got %v, want %v", replies, want)
	}
	for i, r := range replies {
		if r != want[i] {
			t.Fatalf("got %v, want %v", replies, want)
		}
	}
}

func TestCallLogRepliesReplaysThroughRunScript(t *testing.T) {
	s := threeBitScript()
	_, log, ok := Dispatch(s, NewPlaybackResponder([]Reply{0, 1, 1}), DispatchOpts{})
	if !ok {
		t.Fatal("dispatch was filtered")
	}

	replayed := NewPlaybackResponder(log.Replies())
	v2, _, ok2 := Dispatch(s, replayed, DispatchOpts{})
	if !ok2 {
		t.Fatal("replay was filtered")
	}
	if v2 != 3 {
		t.Fatalf("got %d, want 3", v2)
	}

	v3, ok3 := RunScript(log, s)
	if !ok3 || v3 != 3 {
		t.Fatalf("RunScript: got (%d, %v), want (3, true)", v3, ok3)
	}
}

func TestCallLogLenAndCallsOnNil(t *testing.T) {
	var log *CallLog
	if log.Len() != 0 {
		t.Fatalf("nil CallLog.Len() = %d, want 0", log.Len())
	}
	if log.Calls() != nil {
		t.Fatalf("nil CallLog.Calls() = %v, want nil", log.Calls())
	}
	if log.Replies() != nil && len(log.Replies()) != 0 {
		t.Fatalf("nil CallLog.Replies() = %v, want empty", log.Replies())
	}
}
