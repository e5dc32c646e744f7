package pickcheck

// regenType is the sentinel for Call.Val meaning "not cached, rebuild from
// the recorded picks." It is distinct from any real generated value because
// no Script ever returns it.
type regenType struct{}

// REGEN marks a Call whose value was not (or could not be) cached.
var REGEN interface{} = regenType{}

func isRegen(v interface{}) bool {
	_, ok := v.(regenType)
	return ok
}

type callKind int

const (
	callKindPick callKind = iota
	callKindScript
)

// PickList is a group of parallel (request, reply) pairs belonging to one
// Call, per spec.md §3.
type PickList struct {
	Reqs    []PickRequest
	Replies []Reply
}

// Len reports how many picks are in the group.
func (g PickList) Len() int { return len(g.Replies) }

// Call is a single entry in a CallLog: either a pick call (a single
// PickRequest/reply) or a script call (a span of picks produced by a
// sub-script, possibly with a cached value).
type Call struct {
	Kind   callKind
	Req    PickRequest  // meaningful when Kind == callKindPick
	Script scriptHandle // meaningful when Kind == callKindScript
	Val    interface{}  // REGEN, or the frozen cached value
	Group  PickList
}

// IsPickCall reports whether this call recorded a single PickRequest/reply.
func (c Call) IsPickCall() bool { return c.Kind == callKindPick }

// IsScriptCall reports whether this call recorded a sub-script build.
func (c Call) IsScriptCall() bool { return c.Kind == callKindScript }

// Cached reports whether this script call carries a usable frozen value.
func (c Call) Cached() bool { return c.Kind == callKindScript && !isRegen(c.Val) }
