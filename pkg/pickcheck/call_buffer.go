package pickcheck

// openCall tracks one in-progress script build: the flat picks it has
// accumulated so far (its own group), whether it will become its own
// CallLog entry when it ends (selfLogged), and whether ITS direct children
// should in turn each become their own entry (promoteChildren, driven by
// the script's split_calls option).
type openCall struct {
	selfLogged      bool
	promoteChildren bool
	reqs            []PickRequest
	replies         []Reply
}

// CallBuffer is the write side of a CallLog (spec.md §4.4): it accumulates
// a PickList via pushed picks and emits Calls via RecordPick/EndScript. A
// nil *CallBuffer is valid and simply discards everything; Dispatch always
// records into a non-nil buffer, whatever the LogCalls options say.
type CallBuffer struct {
	calls []Call
	stack []*openCall
}

// NewCallBuffer returns an empty write-side log.
func NewCallBuffer() *CallBuffer { return &CallBuffer{} }

func (b *CallBuffer) top() *openCall {
	if b == nil || len(b.stack) == 0 {
		return nil
	}
	return b.stack[len(b.stack)-1]
}

// Depth reports how many script builds are currently open.
func (b *CallBuffer) Depth() int {
	if b == nil {
		return 0
	}
	return len(b.stack)
}

// BeginScript opens a frame for a nested script build. Whether this call
// becomes its own top-level entry is decided here, from the current
// nesting context, per spec.md §4.2 ("level 0, under a log_calls parent")
// and §3's split_calls option.
func (b *CallBuffer) BeginScript(s scriptHandle) {
	if b == nil {
		return
	}
	parent := b.top()
	selfLogged := parent == nil || parent.promoteChildren
	b.stack = append(b.stack, &openCall{
		selfLogged:      selfLogged,
		promoteChildren: s.scriptOpts().SplitCalls,
	})
}

// EndScript closes the innermost open frame, recording it as its own
// CallLog entry if selfLogged, and always folding its flat picks up into
// its parent's accumulator so the parent's own group stays complete.
func (b *CallBuffer) EndScript(s scriptHandle, val interface{}) {
	if b == nil {
		return
	}
	f := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	if f.selfLogged {
		b.calls = append(b.calls, Call{
			Kind:   callKindScript,
			Script: s,
			Val:    val,
			Group:  PickList{Reqs: f.reqs, Replies: f.replies},
		})
	}
	if parent := b.top(); parent != nil {
		parent.reqs = append(parent.reqs, f.reqs...)
		parent.replies = append(parent.replies, f.replies...)
	}
}

// AbandonScript discards the innermost open frame without recording it,
// used when a nested build fails with Filtered before EndScript is ever
// reached, so the failed attempt leaves no trace.
func (b *CallBuffer) AbandonScript() {
	if b == nil || len(b.stack) == 0 {
		return
	}
	b.stack = b.stack[:len(b.stack)-1]
}

// RecordPick logs a single PickRequest/reply, as its own top-level Call if
// the current context calls for it, and always into the innermost open
// frame's accumulator.
func (b *CallBuffer) RecordPick(req PickRequest, reply Reply) {
	if b == nil {
		return
	}
	f := b.top()
	standalone := f == nil || f.promoteChildren
	if standalone {
		b.calls = append(b.calls, Call{
			Kind: callKindPick,
			Req:  req,
			Val:  REGEN,
			Group: PickList{
				Reqs:    []PickRequest{req},
				Replies: []Reply{reply},
			},
		})
	}
	if f != nil {
		f.reqs = append(f.reqs, req)
		f.replies = append(f.replies, reply)
	}
}

// Snapshot captures enough state to roll back everything recorded since it
// was taken, used by the dispatcher to undo a failed (Filtered) attempt at
// a script or accept-filtered build before retrying.
type Snapshot struct {
	callsLen int
}

// Snapshot returns a marker for the buffer's current state.
func (b *CallBuffer) Snapshot() Snapshot {
	if b == nil {
		return Snapshot{}
	}
	return Snapshot{callsLen: len(b.calls)}
}

// Rollback discards every Call appended since s was taken and clears the
// innermost open frame's partial accumulation, so a retried attempt starts
// clean.
func (b *CallBuffer) Rollback(s Snapshot) {
	if b == nil {
		return
	}
	b.calls = b.calls[:s.callsLen]
	if f := b.top(); f != nil {
		f.reqs = nil
		f.replies = nil
	}
}

// Finish returns the completed CallLog. The buffer must have no open
// frames (every BeginScript matched an EndScript).
func (b *CallBuffer) Finish() *CallLog {
	if b == nil {
		return &CallLog{}
	}
	if len(b.stack) != 0 {
		panicProgramError("call buffer finished with %d open script frame(s)", len(b.stack))
	}
	return &CallLog{calls: append([]Call(nil), b.calls...)}
}
