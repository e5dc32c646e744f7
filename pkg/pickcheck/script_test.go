package pickcheck

import "testing"

func TestMakeAssignsNameAndDefaultOpts(t *testing.T) {
	s := Make[int]("counter", func(pf *PickFunction) int {
		return int(pf.Pick(NewRequest(0, 9)))
	})
	if s.Name() != "counter" {
		t.Fatalf("Name() = %q, want %q", s.Name(), "counter")
	}
	if s.Opts().Cachable || s.Opts().SplitCalls || s.Opts().Weight != 0 {
		t.Fatalf("Opts() = %+v, want the zero value", s.Opts())
	}
}

func TestMakeAppliesProvidedOpts(t *testing.T) {
	s := Make[int]("weighted", func(pf *PickFunction) int { return 0 }, ScriptOpts{Weight: 2.5, Cachable: true})
	if s.Opts().Weight != 2.5 || !s.Opts().Cachable {
		t.Fatalf("Opts() = %+v, want Weight=2.5 Cachable=true", s.Opts())
	}
}

func TestMakeRejectsNegativeWeight(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Make to panic on a negative weight")
		}
	}()
	Make[int]("bad", func(pf *PickFunction) int { return 0 }, ScriptOpts{Weight: -1})
}

func TestFromDefaultsNameToAnonymous(t *testing.T) {
	s := From[int](func(pf *PickFunction) int { return 7 })
	if s.Name() != "anonymous" {
		t.Fatalf("Name() = %q, want %q", s.Name(), "anonymous")
	}
}

func TestNextScriptIDIsUnique(t *testing.T) {
	a := Make[int]("a", func(pf *PickFunction) int { return 0 })
	b := Make[int]("b", func(pf *PickFunction) int { return 0 })
	if a.ID() == b.ID() {
		t.Fatalf("two scripts got the same ID: %d", a.ID())
	}
}

func TestScriptBuildInvokesDirectly(t *testing.T) {
	s := Make[int]("double", func(pf *PickFunction) int {
		return int(pf.Pick(NewRequest(0, 3))) * 2
	})
	buf := NewCallBuffer()
	pf := newPickFunction(NewPlaybackResponder([]Reply{3}), buf, DispatchOpts{})
	if got := s.Build(pf); got != 6 {
		t.Fatalf("Build() = %d, want 6", got)
	}
}

func TestScriptRunReplaysRecordedLog(t *testing.T) {
	s := threeBitScript()
	_, log, ok := Dispatch(s, NewPlaybackResponder([]Reply{1, 1, 0}), DispatchOpts{})
	if !ok {
		t.Fatal("expected Dispatch to succeed")
	}
	v, ok := s.Run(log)
	if !ok {
		t.Fatal("expected Script.Run to replay successfully")
	}
	if v != 6 {
		t.Fatalf("Run() = %d, want 6", v)
	}
}
