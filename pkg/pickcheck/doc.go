// Package pickcheck implements the pick-sequence substrate underlying a
// property-based testing engine: bounded integer pick requests, a
// backtracking dispatcher, a prune-aware search tree for ordered and random
// enumeration, a structured call log that can be edited and replayed, an
// invertible Domain layer for round-tripping values to canonical picks, a
// distinct-value Jar built on the search tree, and a Shrinker that edits a
// failing call log toward a minimal reproduction.
//
// Everything here is single-threaded and cooperative: one PickTree, one
// CallBuffer, one dispatcher belong to exactly one in-progress build. Callers
// that want concurrency own multiple independent graphs, never share one.
package pickcheck
