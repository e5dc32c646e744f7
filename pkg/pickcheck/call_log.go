package pickcheck

// CallLog is the read side of a completed build (spec.md §4.4): a flat,
// ordered sequence of Calls, each a pick or a (possibly cached) script
// call's pick group. Nesting below a SplitCalls boundary is already
// flattened into this same sequence at recording time (CallBuffer), so
// replaying a CallLog never needs to reconstruct a tree: a script is pure
// in its picks, so driving it with the exact same reply sequence in the
// exact same order reproduces the exact same structural sequence of calls.
type CallLog struct {
	calls []Call
}

// Calls returns the log's top-level entries, in recorded order.
func (l *CallLog) Calls() []Call {
	if l == nil {
		return nil
	}
	return l.calls
}

// Len reports the number of top-level Calls.
func (l *CallLog) Len() int {
	if l == nil {
		return 0
	}
	return len(l.calls)
}

// Replies flattens the log to the ordered reply sequence that reproduces
// it, the form a rep_key is encoded from for storage or CLI reproduction.
func (l *CallLog) Replies() []Reply {
	flat := l.flatten()
	out := make([]Reply, len(flat))
	for i, fp := range flat {
		out[i] = fp.reply
	}
	return out
}

// flatPick is one (request, reply) pair together with the coordinates of
// the Call it belongs to, used to drive replay and to route per-pick edits
// back to the GroupEditFunc that produced them.
type flatPick struct {
	callIndex int
	pickIndex int
	req       PickRequest
	reply     Reply
}

func (l *CallLog) flatten() []flatPick {
	if l == nil {
		return nil
	}
	var out []flatPick
	for ci, c := range l.calls {
		for pi, r := range c.Group.Replies {
			out = append(out, flatPick{callIndex: ci, pickIndex: pi, req: c.Group.Reqs[pi], reply: r})
		}
	}
	return out
}

// RunScript rebuilds s by replaying log's recorded replies in order,
// reporting ok=false if the rebuild turns out Filtered (which should not
// happen for an unedited log produced by a deterministic script, but can
// happen after external tampering).
func RunScript[T any](log *CallLog, s *Script[T]) (T, bool) {
	flat := log.flatten()
	replies := make([]Reply, len(flat))
	for i, fp := range flat {
		replies[i] = fp.reply
	}
	responder := NewPlaybackResponder(replies)
	buf := NewCallBuffer()
	pf := newPickFunction(responder, buf, DispatchOpts{})
	v, err := tryBuild(pf, s)
	if err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

// RunScriptWithEdits rebuilds s replaying log with groupEditFn applied to
// every top-level Call: RemoveGroup drops every pick in that group (the
// rebuild asks the same script for a replacement, sourced from whatever
// comes next in the stream, per spec.md §4.4's snip semantics), otherwise
// each pick is kept, replaced, or snipped individually per GroupEdit.Picks.
// changed reports whether any edit actually altered the outcome; ok is
// false if the edited replay is Filtered.
func RunScriptWithEdits[T any](log *CallLog, s *Script[T], groupEditFn GroupEditFunc) (val T, out *CallLog, changed bool, ok bool) {
	flat := log.flatten()
	source := make([]Reply, len(flat))
	for i, fp := range flat {
		source[i] = fp.reply
	}
	groupEdits := map[int]GroupEdit{}
	editFn := func(idx int, req PickRequest, before Reply) (editOp, Reply) {
		fp := flat[idx]
		ge, cached := groupEdits[fp.callIndex]
		if !cached {
			ge = groupEditFn(fp.callIndex)
			groupEdits[fp.callIndex] = ge
		}
		if ge.RemoveGroup {
			return editSnip, 0
		}
		if ge.Picks == nil {
			return editKeep, before
		}
		pe := ge.Picks(fp.pickIndex, req, before)
		switch pe.Kind {
		case EditReplace:
			return editReplace, pe.Value
		case EditSnip:
			return editSnip, 0
		default:
			return editKeep, before
		}
	}
	responder := NewEditResponder(source, editFn)
	buf := NewCallBuffer()
	pf := newPickFunction(responder, buf, DispatchOpts{})
	v, err := tryBuild(pf, s)
	if err != nil {
		var zero T
		return zero, nil, false, false
	}
	return v, buf.Finish(), responder.Changed(), true
}
