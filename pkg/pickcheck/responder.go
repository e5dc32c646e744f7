package pickcheck

import "math/rand"

// Responder is the PickResponder protocol from spec.md §4.1: a source of
// replies to PickRequests that can, in some implementations, back up and
// try a different continuation.
type Responder interface {
	// NextPick returns a reply to req, or ok=false if no reply fits
	// (filtered).
	NextPick(req PickRequest) (reply Reply, ok bool)

	// StartAt attempts to begin a new playout continuing from depth,
	// returning false if no alternative remains at or above that depth.
	StartAt(depth int) bool

	// Depth reports how many picks this responder has produced so far.
	Depth() int
}

// RandomResponder draws replies from a seeded PRNG. Unlike a fixed replay
// sequence, a random stream has no position to rewind to: "restarting" an
// attempt just means drawing the next fresh random replies from the same
// PRNG, so StartAt always permits it.
type RandomResponder struct {
	rng   *rand.Rand
	depth int
}

// NewRandomResponder returns a Responder seeded deterministically from seed.
func NewRandomResponder(seed int64) *RandomResponder {
	return &RandomResponder{rng: rand.New(rand.NewSource(seed))}
}

func (r *RandomResponder) NextPick(req PickRequest) (Reply, bool) {
	r.depth++
	size := req.Size()
	if req.Bias != nil {
		if v := req.Bias(req); req.Contains(v) {
			return v, true
		}
	}
	if size == 1 {
		return req.Min, true
	}
	return req.Min + Reply(r.rng.Int63n(size)), true
}

func (r *RandomResponder) StartAt(depth int) bool { return true }
func (r *RandomResponder) Depth() int             { return r.depth }

// PlaybackResponder replays a fixed reply vector, as described in spec.md
// §4.1. Replies out of range for the requested bounds are filtered; once
// the vector is exhausted, every further pick returns req.Min and
// backtracking is permanently disabled (there is nothing left to try).
type PlaybackResponder struct {
	replies     []Reply
	idx         int
	depth       int
	pastEnd     bool
	editApplied bool
}

// NewPlaybackResponder replays replies exactly, in order.
func NewPlaybackResponder(replies []Reply) *PlaybackResponder {
	return &PlaybackResponder{replies: replies}
}

func (p *PlaybackResponder) NextPick(req PickRequest) (Reply, bool) {
	p.depth++
	if p.idx >= len(p.replies) {
		p.pastEnd = true
		return req.Min, true
	}
	r := p.replies[p.idx]
	p.idx++
	if !req.Contains(r) {
		return 0, false
	}
	return r, true
}

func (p *PlaybackResponder) StartAt(depth int) bool {
	if p.pastEnd {
		return false
	}
	return depth == p.depth
}

func (p *PlaybackResponder) Depth() int { return p.depth }

// editOp is one instruction for EditResponder's per-index edit function,
// mirroring the Edits vocabulary in spec.md §4.4.
type editOp int

const (
	editKeep editOp = iota
	editReplace
	editSnip
)

// EditFunc decides, for the pick at idx (which requested req and originally
// received before), what to do. It returns the op and, for editReplace,
// the replacement value.
type EditFunc func(idx int, req PickRequest, before Reply) (editOp, Reply)

// EditResponder wraps a prior reply stream with an edit function applied
// per index: keep, replace(v), or snip (delete, sourcing the next reply
// from further along the stream). It tracks whether any edit actually took
// effect, which RunScriptWithEdits reports as its changed result.
type EditResponder struct {
	source  []Reply
	edit    EditFunc
	srcIdx  int
	depth   int
	changed bool
	pastEnd bool
}

// NewEditResponder builds a responder that edits source via edit.
func NewEditResponder(source []Reply, edit EditFunc) *EditResponder {
	return &EditResponder{source: source, edit: edit}
}

// Changed reports whether any edit altered the replayed sequence.
func (e *EditResponder) Changed() bool { return e.changed }

func (e *EditResponder) NextPick(req PickRequest) (Reply, bool) {
	for {
		if e.srcIdx >= len(e.source) {
			e.pastEnd = true
			e.depth++
			return req.Min, true
		}
		before := e.source[e.srcIdx]
		op, replacement := e.edit(e.srcIdx, req, before)
		switch op {
		case editSnip:
			e.srcIdx++
			e.changed = true
			continue
		case editReplace:
			e.srcIdx++
			e.depth++
			if !req.Contains(replacement) {
				replacement = req.Min
			}
			if replacement != before {
				e.changed = true
			}
			return replacement, true
		default: // editKeep
			e.srcIdx++
			e.depth++
			if !req.Contains(before) {
				return 0, false
			}
			return before, true
		}
	}
}

func (e *EditResponder) StartAt(depth int) bool {
	if e.pastEnd {
		return false
	}
	return depth == e.depth
}

func (e *EditResponder) Depth() int { return e.depth }

// TreeResponder walks a PickTree, narrowing each request to the current
// node's live range. StartAt trims the walk, prunes the leaf it is
// abandoning, and advances to the next unpruned branch at or above depth.
type TreeResponder struct {
	walk    *Walk
	depth   int
	ordered bool // true = minimum-first (ordered playouts); false = uniform-random among unpruned
	rng     *rand.Rand
}

// NewOrderedTreeResponder walks tree always preferring the lowest unpruned
// reply, which gives WalkOrderedPlayouts its depth-first, minimum-first
// order.
func NewOrderedTreeResponder(tree *PickTree) *TreeResponder {
	return &TreeResponder{walk: tree.Walk(), ordered: true}
}

// NewRandomTrackingResponder walks tree choosing uniformly among unpruned
// replies, pruning completed playouts as it goes ("Random with tracking" in
// spec.md §4.3).
func NewRandomTrackingResponder(tree *PickTree, seed int64) *TreeResponder {
	return &TreeResponder{walk: tree.Walk(), rng: rand.New(rand.NewSource(seed))}
}

func (t *TreeResponder) NextPick(req PickRequest) (Reply, bool) {
	narrowed := t.walk.Narrow(req)
	var first Reply
	if t.ordered || t.rng == nil {
		first = narrowed.Min
	} else {
		size := narrowed.Max - narrowed.Min + 1
		first = narrowed.Min + Reply(t.rng.Int31n(size))
	}
	reply, ok := t.walk.PushUnpruned(first, req)
	if !ok {
		return 0, false
	}
	t.depth++
	return reply, true
}

// StartAt resumes a playout from depth. depth == 0 is how Dispatch signals
// "the attempt just made was Filtered, start over" — for a tree walk that
// means the leaf just reached is a dead end and must be pruned, not merely
// abandoned, or the next attempt would walk straight back into it.
func (t *TreeResponder) StartAt(depth int) bool {
	if depth == 0 {
		if t.walk.tree.IsEmpty() {
			return false
		}
		t.walk.Prune()
		t.depth = 0
		return !t.walk.tree.IsEmpty()
	}
	if depth > t.depth {
		return false
	}
	t.walk.Trim(depth)
	t.depth = depth
	return true
}

func (t *TreeResponder) Depth() int { return t.depth }

// PruneCurrentPlayout marks the path walked so far as exhausted, for
// callers (Ordered Playouts, Jar) that need to move on after a completed
// build without waiting for StartAt to trim through it pick by pick.
func (t *TreeResponder) PruneCurrentPlayout() {
	t.walk.Prune()
	t.depth = 0
}
