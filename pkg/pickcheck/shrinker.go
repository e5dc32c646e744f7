package pickcheck

// Shrink repeatedly edits g's CallLog toward a smaller one that still
// fails isFailing, stopping once no remaining strategy makes further
// progress (spec.md §4.7). Strategies are tried in order of how much they
// usually remove: delete-suffix, delete-one-group, replace-everything-
// toward-min, replace-one-pick-toward-min, decrement-one-pick; the loop
// restarts from the top
// every time any strategy succeeds, since a successful edit can open up
// new opportunities for a coarser one.
func Shrink[T any](g Gen[T], isFailing func(T) bool) Gen[T] {
	current := g
	for {
		next, ok := shrinkOnce(current, isFailing)
		if !ok {
			return current
		}
		current = next
	}
}

func shrinkOnce[T any](g Gen[T], isFailing func(T) bool) (Gen[T], bool) {
	n := g.log.Len()
	for length := n - 1; length >= 0; length-- {
		if c, ok := tryEdit(g, SnipSuffix(length), isFailing); ok {
			return c, true
		}
	}
	for i := 0; i < n; i++ {
		if c, ok := tryEdit(g, RemoveGroupAt(i), isFailing); ok {
			return c, true
		}
	}
	if c, ok := tryEdit(g, allTowardMin, isFailing); ok {
		return c, true
	}
	for ci := 0; ci < n; ci++ {
		group := g.log.calls[ci].Group
		for pi := range group.Replies {
			if c, ok := tryEdit(g, towardMinAt(ci, pi), isFailing); ok {
				return c, true
			}
		}
	}
	// Halving toward min can overshoot past the exact failing/passing
	// boundary and get stuck (the halved value now passes, but the value
	// one step above it may still fail). Falling back to a plain
	// decrement-by-one probes that last step linearly, guaranteeing
	// convergence to the precise boundary bisection alone can miss.
	for ci := 0; ci < n; ci++ {
		group := g.log.calls[ci].Group
		for pi := range group.Replies {
			if c, ok := tryEdit(g, decrementAt(ci, pi), isFailing); ok {
				return c, true
			}
		}
	}
	return Gen[T]{}, false
}

func decrementAt(callIndex, pickIndex int) GroupEditFunc {
	return func(ci int) GroupEdit {
		if ci != callIndex {
			return KeepEverywhere(ci)
		}
		return GroupEdit{Picks: func(pi int, req PickRequest, before Reply) PickEdit {
			if pi != pickIndex || before <= req.Min {
				return PickEdit{Kind: EditKeep, Value: before}
			}
			return PickEdit{Kind: EditReplace, Value: before - 1}
		}}
	}
}

func allTowardMin(int) GroupEdit {
	return GroupEdit{Picks: TowardMin}
}

func towardMinAt(callIndex, pickIndex int) GroupEditFunc {
	return func(ci int) GroupEdit {
		if ci != callIndex {
			return KeepEverywhere(ci)
		}
		return GroupEdit{Picks: func(pi int, req PickRequest, before Reply) PickEdit {
			if pi != pickIndex {
				return PickEdit{Kind: EditKeep, Value: before}
			}
			return TowardMin(pi, req, before)
		}}
	}
}

// tryEdit applies edit to g, accepting the result only if it actually
// changed something, still replays (ok), still fails isFailing, and is
// smaller than g by sizeOf's lexicographic (pick count, reply sum) order.
func tryEdit[T any](g Gen[T], edit GroupEditFunc, isFailing func(T) bool) (Gen[T], bool) {
	v, log, changed, ok := RunScriptWithEdits(g.log, g.script, edit)
	if !ok || !changed {
		return Gen[T]{}, false
	}
	if !isFailing(v) {
		return Gen[T]{}, false
	}
	if !smaller(log, g.log) {
		return Gen[T]{}, false
	}
	return Gen[T]{script: g.script, log: log, value: v}, true
}

// sizeOf summarizes a CallLog's magnitude as (total pick count, sum of
// replies), the lexicographic order Shrink minimizes against.
func sizeOf(log *CallLog) (int, int64) {
	count := 0
	var sum int64
	for _, c := range log.Calls() {
		count += c.Group.Len()
		for _, r := range c.Group.Replies {
			sum += int64(r)
		}
	}
	return count, sum
}

func smaller(a, b *CallLog) bool {
	ac, asum := sizeOf(a)
	bc, bsum := sizeOf(b)
	if ac != bc {
		return ac < bc
	}
	return asum < bsum
}
