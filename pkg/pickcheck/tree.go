package pickcheck

import pclog "github.com/pickcheck/pickcheck/log"

// node is a single visited PickRequest prefix. branches are stored sparsely:
// only replies that have actually been taken get an entry. A reply below
// liveMin is implicitly pruned (coalesced); a reply at or above liveMin is
// pruned iff it appears in prunedLeaf, or its child node is fullyPruned (in
// which case the parent immediately coalesces the child away, so in
// practice a present child is never itself fullyPruned for long).
type node struct {
	req         PickRequest
	liveMin     Reply
	children    map[Reply]*node
	prunedLeaf  map[Reply]struct{}
	left        int64 // count of non-pruned replies remaining in [liveMin, req.Max]
	fullyPruned bool
}

func newNode(req PickRequest) *node {
	return &node{req: req, liveMin: req.Min, left: req.Size()}
}

func (n *node) isPruned(r Reply) bool {
	if r < n.liveMin || r > n.req.Max {
		return true
	}
	if _, ok := n.prunedLeaf[r]; ok {
		return true
	}
	if c, ok := n.children[r]; ok {
		return c.fullyPruned
	}
	return false
}

// pruneLeaf marks r as a terminal pruned branch: no sub-script ever picked
// anything further down this branch, or the caller is deliberately
// abandoning whatever sits below it. Returns true if n itself is now fully
// pruned, in which case the caller must coalesce n into its own parent.
func (n *node) pruneLeaf(r Reply) bool {
	if _, already := n.prunedLeaf[r]; already {
		return n.fullyPruned
	}
	if n.prunedLeaf == nil {
		n.prunedLeaf = map[Reply]struct{}{}
	}
	n.prunedLeaf[r] = struct{}{}
	delete(n.children, r)
	n.left--
	n.advanceLiveMin()
	n.fullyPruned = n.left <= 0
	return n.fullyPruned
}

// notifyChildFullyPruned coalesces a child that has just become fully
// pruned into this node's own branch state, freeing the child subtree.
func (n *node) notifyChildFullyPruned(r Reply) bool {
	return n.pruneLeaf(r)
}

func (n *node) advanceLiveMin() {
	for n.liveMin <= n.req.Max {
		if _, ok := n.prunedLeaf[n.liveMin]; ok {
			delete(n.prunedLeaf, n.liveMin)
			n.liveMin++
			continue
		}
		break
	}
}

func (n *node) getOrCreateChild(r Reply, req PickRequest) *node {
	if n.children == nil {
		n.children = map[Reply]*node{}
	}
	c, ok := n.children[r]
	if !ok {
		c = newNode(req)
		n.children[r] = c
		return c
	}
	if !c.req.Equal(req) {
		panicProgramError("pick request mismatch at tree node: existing %v, requested %v", c.req, req)
	}
	return c
}

// PickTree is the shared search tree described in spec.md §4.3: one node per
// visited PickRequest prefix, marking branches unexplored, a child node, or
// PRUNED. It is created empty and mutated only by its owning Walk(s),
// single-threaded.
type PickTree struct {
	root *node
}

// NewPickTree returns an empty search tree.
func NewPickTree() *PickTree { return &PickTree{} }

// Available reports whether no ancestor of the given reply path is PRUNED.
// An empty or not-yet-visited prefix is always available.
func (t *PickTree) Available(replies []Reply) bool {
	n := t.root
	for _, r := range replies {
		if n == nil {
			return true
		}
		if n.isPruned(r) {
			return false
		}
		n = n.children[r]
	}
	return true
}

// Prune marks the leaf at the end of path as PRUNED, coalescing upward
// through every ancestor that becomes fully pruned as a result. path must
// be a sequence of (req, reply) pairs in root-to-leaf order.
func (t *PickTree) Prune(path []struct {
	Req   PickRequest
	Reply Reply
}) {
	w := t.Walk()
	for _, step := range path {
		w.Push(step.Req, step.Reply)
	}
	w.Prune()
}

// IsEmpty reports whether the entire tree has been pruned (no playout
// remains available).
func (t *PickTree) IsEmpty() bool {
	return t.root != nil && t.root.fullyPruned
}

// Walk starts a new traversal over the tree, positioned at the root.
func (t *PickTree) Walk() *Walk { return &Walk{tree: t} }

type frame struct {
	parent *node
	reply  Reply
	child  *node
}

// Walk is a single traversal cursor over a PickTree, as described in
// spec.md §4.3: push/push_unpruned/narrow/trim/prune.
type Walk struct {
	tree   *PickTree
	frames []frame
	cur    *node
}

// Depth reports how many picks deep the walk currently is.
func (w *Walk) Depth() int { return len(w.frames) }

func (w *Walk) positionAt(req PickRequest) *node {
	if w.cur == nil {
		if w.tree.root == nil {
			w.tree.root = newNode(req)
		} else if !w.tree.root.req.Equal(req) {
			panicProgramError("pick request mismatch at tree root: existing %v, requested %v", w.tree.root.req, req)
		}
		w.cur = w.tree.root
	} else if !w.cur.req.Equal(req) {
		panicProgramError("pick request mismatch at tree node: existing %v, requested %v", w.cur.req, req)
	}
	return w.cur
}

// Narrow restricts an outgoing PickRequest to the current node's live
// range, preserving any bias hint on req. Every PickRequest range
// encountered at a given node must match the range used when the node was
// created; a mismatch panics with a ProgramError.
func (w *Walk) Narrow(req PickRequest) PickRequest {
	n := w.positionAt(req)
	return PickRequest{Min: n.liveMin, Max: n.req.Max, Bias: req.Bias}
}

// Push descends the walk into the child reached by reply, creating that
// child node if it has not been visited before.
func (w *Walk) Push(req PickRequest, reply Reply) {
	parent := w.positionAt(req)
	child := parent.getOrCreateChild(reply, req)
	w.frames = append(w.frames, frame{parent: parent, reply: reply, child: child})
	w.cur = child
}

// PushUnpruned moves to the first unpruned branch at or above firstChoice
// within the current node's live range, wrapping around to liveMin if
// necessary, and descends into it (creating the child node if absent). It
// reports ok=false if the current node has no unpruned branch left at all.
func (w *Walk) PushUnpruned(firstChoice Reply, req PickRequest) (Reply, bool) {
	n := w.positionAt(req)
	if n.fullyPruned || n.left <= 0 {
		return 0, false
	}
	chosen, ok := Reply(0), false
	for r := firstChoice; r <= n.req.Max; r++ {
		if !n.isPruned(r) {
			chosen, ok = r, true
			break
		}
	}
	if !ok {
		for r := n.liveMin; r < firstChoice; r++ {
			if !n.isPruned(r) {
				chosen, ok = r, true
				break
			}
		}
	}
	if !ok {
		return 0, false
	}
	child := n.getOrCreateChild(chosen, req)
	w.frames = append(w.frames, frame{parent: n, reply: chosen, child: child})
	w.cur = child
	return chosen, true
}

// Trim truncates the walk back to depth, discarding deeper frames without
// pruning anything. Used by start_at to resume a playout from a shallower
// point after a filter rejection.
func (w *Walk) Trim(depth int) {
	if depth < 0 || depth > len(w.frames) {
		panicProgramError("invalid trim depth %d for walk of length %d", depth, len(w.frames))
	}
	w.frames = w.frames[:depth]
	if depth == 0 {
		w.cur = w.tree.root
		return
	}
	w.cur = w.frames[depth-1].child
}

// Prune marks the walk's current leaf as PRUNED and coalesces upward
// through every ancestor that becomes fully pruned as a result, then
// resets the walk to the root so it can be reused for the next playout.
func (w *Walk) Prune() {
	if w.cur != nil {
		w.cur.fullyPruned = true
		w.cur.left = 0
	}
	for i := len(w.frames) - 1; i >= 0; i-- {
		f := w.frames[i]
		if !f.parent.notifyChildFullyPruned(f.reply) {
			break
		}
	}
	pclog.TRACE("pruned walk of depth %d", len(w.frames))
	w.frames = nil
	w.cur = w.tree.root
}
