package pickcheck

// WalkOrderedPlayouts enumerates every reachable value of script in
// depth-first, minimum-first order (lexicographic by reply sequence): a
// single shared PickTree drives a sequence of playouts, each one pruned on
// completion, so the next playout diverges from it at the deepest pick that
// still has an unpruned alternative. No iterative-deepening passes are made.
// visit is called once per successfully built Gen, in order; enumeration
// stops early if visit returns false, once limit playouts have been
// produced (limit <= 0 means unlimited), or once the tree is exhausted.
// The returned count is how many Gens were actually visited.
func WalkOrderedPlayouts[T any](script *Script[T], limit int, visit func(Gen[T]) bool) int {
	tree := NewPickTree()
	count := 0
	for limit <= 0 || count < limit {
		responder := NewOrderedTreeResponder(tree)
		v, log, ok := Dispatch(script, responder, DispatchOpts{})
		if !ok {
			break
		}
		count++
		responder.PruneCurrentPlayout()
		if !visit(Gen[T]{script: script, log: log, value: v}) {
			break
		}
		if tree.IsEmpty() {
			break
		}
	}
	return count
}

// OrderedPlayouts collects up to limit Gens from WalkOrderedPlayouts into a
// slice, the convenient form for small enumerations and tests (limit <= 0
// means enumerate every reachable value, so callers must only use that on
// a script known to have finite cardinality).
func OrderedPlayouts[T any](script *Script[T], limit int) []Gen[T] {
	var out []Gen[T]
	WalkOrderedPlayouts(script, limit, func(g Gen[T]) bool {
		out = append(out, g)
		return true
	})
	return out
}
