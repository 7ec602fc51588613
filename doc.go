// Package treediff computes structural differences between two tree-shaped
// values & applies (or reverts) the resulting change records against a
// target tree.
//
// Values are the go types created by unmarshaling generic JSON or YAML,
// two container types:
//
//	map[string]interface{}
//	[]interface{}
//
// plus scalar leaves: string, numbers, bool, nil, time.Time & a compiled
// *regexp.Regexp compared by its source form. Trees may contain cycles; the
// differ tracks open ancestors by identity & terminates.
//
// Diff walks both trees in lockstep & emits one record per divergence: an
// edit where a path holds differing values in the two trees, an add or
// remove where a path exists on one side only, & an array record where a
// sequence gained or lost an element at an index. Records serialize to a
// compact JSON form & carry a "$dates" side channel naming the timestamp
// leaves inside their values, so a round trip through a text format that
// degrades timestamps to strings can restore them on application. Consumers
// that ignore "$dates" still get a structurally correct patch with the
// timestamps left as strings.
//
// ApplyChange, RevertChange, ApplyDiff & RevertDiff mutate a caller-owned
// tree in place through a pointer:
//
//	before := tree()       // some map[string]any
//	after := otherTree()
//	changes := treediff.Diff(before, after)
//	err := treediff.ApplyDiff(&before, changes)
//	// before is now deep-equal to after
//
// All calls are synchronous & share no state; a Diff or patch call owns its
// inputs for the duration of the call only.
package treediff
