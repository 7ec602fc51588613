package treediff

import (
	"reflect"
	"time"
)

// marker path root tags. Inside an OpArray record the item's own lhs/rhs tag
// is composed under sideItem
const (
	sideLhs  = "lhs"
	sideRhs  = "rhs"
	sideItem = "item"
)

// markDates appends to acc one marker path per timestamp leaf reachable
// inside v, each prefixed by the given root tag path. A nil return means no
// timestamps: an empty marker list is always normalized to absent
func markDates(acc []Path, prefix Path, v any) []Path {
	return markDatesGuarded(acc, prefix, v, nil)
}

func markDatesGuarded(acc []Path, prefix Path, v any, open []containerKey) []Path {
	switch Classify(v) {
	case KindTime:
		return append(acc, prefix)
	case KindArray, KindMap:
		// carried containers may be cyclic, same as diffed ones
		if id, ok := containerID(v); ok {
			for _, seen := range open {
				if seen == id {
					return acc
				}
			}
			open = append(open, id)
		}
	default:
		return acc
	}

	switch x := v.(type) {
	case []any:
		for i, el := range x {
			acc = markDatesGuarded(acc, prefix.child(i), el, open)
		}
	case map[string]any:
		for _, k := range sortedKeys(x) {
			acc = markDatesGuarded(acc, prefix.child(k), x[k], open)
		}
	}
	return acc
}

// reviveDates rewrites, in place where possible, every leaf of v named by a
// marker path under the given prefix from its post-serialization string form
// back into a time.Time. The returned value replaces v at its slot: when the
// marker names v itself the revived timestamp is the return value. Values
// without matching markers pass through untouched, so revival is correct
// whether or not the records ever left process memory
func reviveDates(v any, markers []Path, prefix Path) any {
	for _, m := range markers {
		if !m.hasPrefix(prefix) {
			continue
		}
		v = reviveAt(v, m[len(prefix):])
	}
	return v
}

func reviveAt(v any, rest Path) any {
	if len(rest) == 0 {
		if s, ok := v.(string); ok {
			if t, err := parseDate(s); err == nil {
				return t
			}
		}
		return v
	}
	switch x := v.(type) {
	case []any:
		if i, ok := rest[0].(int); ok && i >= 0 && i < len(x) {
			x[i] = reviveAt(x[i], rest[1:])
		}
	case map[string]any:
		if k, ok := rest[0].(string); ok {
			if cur, present := x[k]; present {
				x[k] = reviveAt(cur, rest[1:])
			}
		}
	}
	return v
}

// parseDate reads the canonical ISO-8601 string form a generic text
// serializer leaves behind for a timestamp leaf
func parseDate(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// containerKey is an identity token for a map or slice value, used by the
// cycle guards. Identity, not structural equality: two distinct but
// deep-equal substructures must not trip the guard. Slices carry their
// length as well: a prefix reslice shares its base pointer with the full
// slice yet is a different container, not a cycle
type containerKey struct {
	ptr uintptr
	len int
}

func containerID(v any) (containerKey, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		if rv.IsNil() || rv.Len() == 0 {
			// nil & zero-length containers share backing pointers; they also
			// can't participate in a cycle
			return containerKey{}, false
		}
		key := containerKey{ptr: rv.Pointer()}
		if rv.Kind() == reflect.Slice {
			key.len = rv.Len()
		}
		return key, true
	case reflect.Ptr:
		return containerKey{ptr: rv.Pointer()}, true
	}
	return containerKey{}, false
}
