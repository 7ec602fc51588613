package treediff

import (
	"reflect"
	"regexp"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// DiffConfig holds the configuration parameters for calculating diffs
type DiffConfig struct {
	// Prefilter, when set, is consulted before descending to a child value;
	// returning true skips that subtree entirely
	Prefilter func(path Path, key any) bool
	// Provide a non-nil stats pointer & Diff will populate it with counts
	// from the diff process
	Stats *Stats
}

// DiffOption is a function that adjusts a config, zero or more DiffOptions
// can be passed to the Diff function
type DiffOption func(cfg *DiffConfig)

// OptionSetStats will set the passed-in stats pointer when Diff is called
func OptionSetStats(st *Stats) DiffOption {
	return func(cfg *DiffConfig) {
		cfg.Stats = st
	}
}

// OptionPrefilter skips any subtree for which fn returns true. fn receives
// the path of the parent container & the key or index about to be descended
func OptionPrefilter(fn func(path Path, key any) bool) DiffOption {
	return func(cfg *DiffConfig) {
		cfg.Prefilter = fn
	}
}

// Diff computes the list of changes that transform lhs into rhs. A nil
// result means the trees are semantically equal; a non-nil result is never
// empty. Diff reads both inputs without mutating them & never fails: values
// it has no precise category for are compared as opaque leaves rather than
// rejected
func Diff(lhs, rhs any, opts ...DiffOption) Changes {
	cfg := &DiffConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	d := &differ{cfg: cfg}
	d.compare(nil, lhs, rhs)
	if cfg.Stats != nil {
		for _, c := range d.changes {
			cfg.Stats.count(c)
		}
	}
	return d.changes
}

// differ holds the state of one Diff invocation: the accumulated change list
// & the stack of open lhs ancestors used for cycle detection. Nothing is
// shared across calls
type differ struct {
	cfg     *DiffConfig
	changes Changes
	open    []containerKey
}

func (d *differ) emit(c *Change) {
	if debugEnabled() {
		debugf("emit %s", c)
	}
	d.changes = append(d.changes, c)
}

// compare walks both trees in lockstep, accumulating path, and emits one
// change record per divergence. Rule order matters & follows the record
// semantics: pattern canonicalization, presence, type identity, instants,
// containers, scalars
func (d *differ) compare(path Path, lhs, rhs any) {
	if n := len(path); n > 0 && d.cfg.Prefilter != nil && d.cfg.Prefilter(path[:n-1], path[n-1]) {
		return
	}

	lk, rk := Classify(lhs), Classify(rhs)

	// two patterns compare by canonical source form, not identity
	if lk == KindRegexp && rk == KindRegexp {
		if regexpString(lhs) != regexpString(rhs) {
			d.emit(newEdit(path, lhs, rhs))
		}
		return
	}

	if lk == KindAbsent {
		if rk != KindAbsent {
			d.emit(newAdded(path, rhs))
		}
		return
	}
	if rk == KindAbsent {
		d.emit(newRemoved(path, lhs))
		return
	}

	// a type change is a single edit at this path, never a structural descent
	if lk != rk {
		d.emit(newEdit(path, lhs, rhs))
		return
	}

	switch lk {
	case KindTime:
		lt, _ := asTime(lhs)
		rt, _ := asTime(rhs)
		if !lt.Equal(rt) {
			d.emit(newEdit(path, lhs, rhs))
		}

	case KindArray, KindMap:
		// cycle guard: an lhs container already open further up the stack is
		// silently treated as equal at this path. Records emitted before the
		// cycle closed already capture the divergence
		id, guarded := containerID(lhs)
		if guarded {
			for _, seen := range d.open {
				if seen == id {
					return
				}
			}
			d.open = append(d.open, id)
		}

		if lk == KindArray {
			d.compareArrays(path, toSlice(lhs), toSlice(rhs))
		} else {
			d.compareMaps(path, toMap(lhs), toMap(rhs))
		}

		if guarded {
			d.open = d.open[:len(d.open)-1]
		}

	case KindNil:
		// null equals null

	case KindNumber:
		// NaN compared to itself is not a difference; NaN vs a number is
		if !numbersEqual(lhs, rhs) {
			d.emit(newEdit(path, lhs, rhs))
		}

	case KindBool, KindString:
		if lhs != rhs {
			d.emit(newEdit(path, lhs, rhs))
		}

	default:
		// opaque leaves: best effort deep equality
		if !reflect.DeepEqual(lhs, rhs) {
			d.emit(newEdit(path, lhs, rhs))
		}
	}
}

// compareArrays recurses on indexes present in both sides & wraps surplus
// elements on either side in array records. Element-level edits surface as
// ordinary edit records whose path ends in the numeric index
func (d *differ) compareArrays(path Path, lhs, rhs []any) {
	n := len(lhs)
	if len(rhs) < n {
		n = len(rhs)
	}
	for i := n; i < len(lhs); i++ {
		d.emit(newArrayOp(path, i, &ArrayItem{Kind: OpRemoved, Lhs: lhs[i]}))
	}
	for i := 0; i < n; i++ {
		d.compare(path.child(i), lhs[i], rhs[i])
	}
	for i := n; i < len(rhs); i++ {
		d.emit(newArrayOp(path, i, &ArrayItem{Kind: OpAdded, Rhs: rhs[i]}))
	}
}

// compareMaps partitions keys into shared, lhs-only & rhs-only sets, then
// recurses. One-sided keys recurse with the other side absent, which yields
// whole-subtree removed/added records. Keys are visited in sorted order so
// record ordering is deterministic; ordering does not affect correctness
func (d *differ) compareMaps(path Path, lhs, rhs map[string]any) {
	lhsKeys := mapset.NewThreadUnsafeSet[string]()
	for k := range lhs {
		lhsKeys.Add(k)
	}
	rhsKeys := mapset.NewThreadUnsafeSet[string]()
	for k := range rhs {
		rhsKeys.Add(k)
	}

	for _, k := range sortedSet(lhsKeys.Intersect(rhsKeys)) {
		d.compare(path.child(k), lhs[k], rhs[k])
	}
	for _, k := range sortedSet(lhsKeys.Difference(rhsKeys)) {
		d.compare(path.child(k), lhs[k], absent)
	}
	for _, k := range sortedSet(rhsKeys.Difference(lhsKeys)) {
		d.compare(path.child(k), absent, rhs[k])
	}
}

func sortedSet(s mapset.Set[string]) []string {
	keys := s.ToSlice()
	sort.Strings(keys)
	return keys
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func regexpString(v any) string {
	if re, ok := v.(*regexp.Regexp); ok && re != nil {
		return re.String()
	}
	return ""
}

// toSlice widens any slice or array value to []any. The common []any case
// passes through without copying
func toSlice(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// toMap widens any string-keyed map to map[string]any. The common
// map[string]any case passes through without copying
func toMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	rv := reflect.ValueOf(v)
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out
}
