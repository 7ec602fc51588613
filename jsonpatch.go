package treediff

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ToJSONPatch exports a change list as an RFC 6902 JSON Patch document.
// The export is lossy in one direction only: JSON Patch has no lhs values &
// no "$dates" side channel, so the result cannot be reverted & timestamp
// leaves stay strings. The record order is the same reordered sequence
// ApplyDiff would use, so array deletions land highest index first
func ToJSONPatch(cs Changes) ([]byte, error) {
	ops := make([]map[string]any, 0, len(cs))
	for _, c := range orderForApply(cs) {
		if err := validateChange(c); err != nil {
			return nil, err
		}
		switch c.Kind {
		case OpEdit:
			ops = append(ops, map[string]any{
				"op": "replace", "path": jsonPointer(c.Path), "value": c.Rhs,
			})
		case OpAdded:
			ops = append(ops, map[string]any{
				"op": "add", "path": jsonPointer(c.Path), "value": c.Rhs,
			})
		case OpRemoved:
			ops = append(ops, map[string]any{
				"op": "remove", "path": jsonPointer(c.Path),
			})
		case OpArray:
			elem := jsonPointer(c.Path.child(c.Index))
			if c.Item.Kind == OpAdded {
				ops = append(ops, map[string]any{
					"op": "add", "path": elem, "value": c.Item.Rhs,
				})
			} else {
				ops = append(ops, map[string]any{
					"op": "remove", "path": elem,
				})
			}
		}
	}
	return json.Marshal(ops)
}

// jsonPointer renders a path per RFC 6901
func jsonPointer(p Path) string {
	if len(p) == 0 {
		return ""
	}
	buf := strings.Builder{}
	for _, seg := range p {
		buf.WriteByte('/')
		switch s := seg.(type) {
		case int:
			buf.WriteString(strconv.Itoa(s))
		case string:
			s = strings.ReplaceAll(s, "~", "~0")
			s = strings.ReplaceAll(s, "/", "~1")
			buf.WriteString(s)
		default:
			buf.WriteString(fmt.Sprintf("%v", s))
		}
	}
	return buf.String()
}
