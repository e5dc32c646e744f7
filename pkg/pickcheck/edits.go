package pickcheck

// Edit is one instruction the Shrinker (or a manual CLI override) applies
// to a single recorded pick, mirroring the Edits vocabulary of spec.md
// §4.4. It deliberately shadows the shape of cppforlife/go-patch's Op
// interface (find-target, then keep/replace/remove) without depending on
// it: picks are addressed by flat index, not by a YAML-document path.
type Edit int

const (
	// EditKeep leaves the pick exactly as recorded.
	EditKeep Edit = iota
	// EditReplace substitutes PickEdit.Value for the recorded reply,
	// or the pick's request minimum if Value is outside the request range.
	EditReplace
	// EditSnip deletes the pick entirely; the build pulls its next reply
	// from further along the source stream instead.
	EditSnip
)

// PickEdit is the instruction for one pick: what to do, and (for
// EditReplace) the replacement value.
type PickEdit struct {
	Kind  Edit
	Value Reply
}

// PickEditFunc decides the edit for the pick at the given flat index within
// its enclosing group, given the request it made and the reply it
// originally received.
type PickEditFunc func(pickIndex int, req PickRequest, before Reply) PickEdit

// GroupEdit is the instruction for one top-level Call: either remove the
// whole group (its script call and everything nested under it, replaced by
// a fresh build from scratch) or edit its individual picks with Picks.
type GroupEdit struct {
	RemoveGroup bool
	Picks       PickEditFunc
}

// GroupEditFunc decides the edit for the Call at callIndex in a CallLog.
type GroupEditFunc func(callIndex int) GroupEdit

// KeepEverywhere is the identity GroupEditFunc: every group and every pick
// within it is kept unchanged. Useful as a base to wrap with a targeted
// override.
func KeepEverywhere(int) GroupEdit {
	return GroupEdit{Picks: func(int, PickRequest, Reply) PickEdit {
		return PickEdit{Kind: EditKeep}
	}}
}

// RemoveGroupAt returns a GroupEditFunc that deletes the group at index i
// and keeps every other group unchanged.
func RemoveGroupAt(i int) GroupEditFunc {
	return func(callIndex int) GroupEdit {
		if callIndex == i {
			return GroupEdit{RemoveGroup: true}
		}
		return KeepEverywhere(callIndex)
	}
}

// SnipSuffix returns a GroupEditFunc that removes every group from index i
// onward, used by the Shrinker to try shortening a variable-length list in
// one step.
func SnipSuffix(i int) GroupEditFunc {
	return func(callIndex int) GroupEdit {
		if callIndex >= i {
			return GroupEdit{RemoveGroup: true}
		}
		return KeepEverywhere(callIndex)
	}
}

// ReplaceAt returns a GroupEditFunc that replaces the pick at pickIndex
// within the group at callIndex with value, keeping everything else.
func ReplaceAt(callIndex, pickIndex int, value Reply) GroupEditFunc {
	return func(ci int) GroupEdit {
		if ci != callIndex {
			return KeepEverywhere(ci)
		}
		return GroupEdit{Picks: func(pi int, req PickRequest, before Reply) PickEdit {
			if pi == pickIndex {
				return PickEdit{Kind: EditReplace, Value: value}
			}
			return PickEdit{Kind: EditKeep, Value: before}
		}}
	}
}

// TowardMin returns a PickEditFunc that pulls every pick halfway toward its
// request's minimum, the Shrinker's default "replace toward min" step.
func TowardMin(pickIdx int, req PickRequest, before Reply) PickEdit {
	if before == req.Min {
		return PickEdit{Kind: EditKeep, Value: before}
	}
	mid := req.Min + (before-req.Min)/2
	if mid == before {
		mid = req.Min
	}
	return PickEdit{Kind: EditReplace, Value: mid}
}
