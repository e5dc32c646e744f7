package pickcheck

import (
	"fmt"
	"math/rand"
	"sync"
)

// Reply is an integer chosen in response to a PickRequest, always within
// [req.Min, req.Max].
type Reply = int32

// BiasFn is an advisory hint consulted only by random responders; ordered
// and tree-walking responders ignore it entirely.
type BiasFn func(req PickRequest) Reply

// PickRequest is a bounded integer request. Equality is structural on
// (Min, Max); Bias never participates in equality or hashing because it is
// advisory, not part of the shape a PickTree node keys on.
type PickRequest struct {
	Min, Max Reply
	Bias     BiasFn
}

// NewRequest builds a PickRequest, panicking with a ProgramError if
// min > max (a negative-size request is never recoverable at the call
// site: it is a bug in the generator, not a rejectable pick).
func NewRequest(min, max Reply) PickRequest {
	if min > max {
		panicProgramError("invalid pick request: min %d > max %d", min, max)
	}
	return PickRequest{Min: min, Max: max}
}

// Biased attaches a bias hint to a copy of the request.
func (r PickRequest) Biased(b BiasFn) PickRequest {
	r.Bias = b
	return r
}

// Size is the number of distinct replies this request can produce.
func (r PickRequest) Size() int64 { return int64(r.Max) - int64(r.Min) + 1 }

// Contains reports whether v is a legal reply to r.
func (r PickRequest) Contains(v Reply) bool { return v >= r.Min && v <= r.Max }

// Equal reports structural equality on (Min, Max), ignoring Bias.
func (r PickRequest) Equal(o PickRequest) bool { return r.Min == o.Min && r.Max == o.Max }

func (r PickRequest) String() string { return fmt.Sprintf("[%d,%d]", r.Min, r.Max) }

// biasThreshold maps a probability in [0,1] to the unsigned 32-bit threshold
// used by both biased_bit and the deterministic-weighted-choice machinery
// (spec's "Deterministic weighted choice" note), so the two mechanisms share
// one implementation. p=0 and p=1 are exact constants; values between them
// truncate (floor of p·2^32), and a weighted choice gives any draw at or
// above its last threshold to the last bucket, so coverage is total.
func biasThreshold(p float64) uint32 {
	switch {
	case p <= 0:
		return 0
	case p >= 1:
		return ^uint32(0)
	default:
		return uint32(p * (1 << 32))
	}
}

var (
	weightMu  sync.Mutex
	weightRng = rand.New(rand.NewSource(1))
)

// pseudoFloat draws a uniform float in [0,1) from a process-local source,
// used only to bias a random (non-replayed) responder's preference among
// weighted alternatives; it never affects canonical pick encoding.
func pseudoFloat() float64 {
	weightMu.Lock()
	defer weightMu.Unlock()
	return weightRng.Float64()
}
