package treediff

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Op discriminates the kind of a Change record
type Op string

const (
	// OpEdit means the same path exists in both trees with differing values
	OpEdit = Op("E")
	// OpAdded means the path exists only in the second (rhs) tree
	OpAdded = Op("N")
	// OpRemoved means the path exists only in the first (lhs) tree
	OpRemoved = Op("D")
	// OpArray means an array at the record's path gained or lost the element
	// at the record's index
	OpArray = Op("A")
)

// Path locates a position inside a value tree as an ordered list of segments,
// each a string map key or a non-negative int array index. A nil Path denotes
// the root; a present path is never empty
type Path []any

// String renders a path in dotted/bracketed form rooted at "$"
func (p Path) String() string {
	buf := bytes.NewBufferString("$")
	for _, seg := range p {
		switch s := seg.(type) {
		case int:
			fmt.Fprintf(buf, "[%d]", s)
		case string:
			if strings.ContainsAny(s, ".[]'$") {
				fmt.Fprintf(buf, ".'%s'", strings.ReplaceAll(s, "'", `\'`))
			} else {
				buf.WriteByte('.')
				buf.WriteString(s)
			}
		default:
			fmt.Fprintf(buf, ".%v", s)
		}
	}
	return buf.String()
}

// child returns a new path extended by one segment. The receiver's backing
// array is never shared forward, so sibling recursions can't clobber each other
func (p Path) child(seg any) Path {
	next := make(Path, len(p), len(p)+1)
	copy(next, p)
	return append(next, seg)
}

func (p Path) hasPrefix(prefix Path) bool {
	if len(p) < len(prefix) {
		return false
	}
	for i, seg := range prefix {
		if p[i] != seg {
			return false
		}
	}
	return true
}

// normalizePath rewrites float64 segments produced by JSON decoding back to
// int indexes
func normalizePath(p Path) Path {
	for i, seg := range p {
		if f, ok := seg.(float64); ok {
			p[i] = int(f)
		}
	}
	return p
}

// ArrayItem is the payload nested inside an OpArray change: either an
// inserted element (Kind "N", value in Rhs) or a deleted one (Kind "D",
// value in Lhs). It carries no path & no marker list of its own; both live
// on the enclosing Change
type ArrayItem struct {
	Kind Op
	Lhs  any
	Rhs  any
}

// MarshalJSON emits only the side the item kind carries
func (it *ArrayItem) MarshalJSON() ([]byte, error) {
	switch it.Kind {
	case OpAdded:
		return json.Marshal(struct {
			Kind Op  `json:"kind"`
			Rhs  any `json:"rhs"`
		}{it.Kind, it.Rhs})
	case OpRemoved:
		return json.Marshal(struct {
			Kind Op  `json:"kind"`
			Lhs  any `json:"lhs"`
		}{it.Kind, it.Lhs})
	default:
		return nil, fmt.Errorf("array item kind must be %q or %q, got %q", OpAdded, OpRemoved, it.Kind)
	}
}

// UnmarshalJSON accepts the wire form of MarshalJSON
func (it *ArrayItem) UnmarshalJSON(data []byte) error {
	aux := struct {
		Kind Op  `json:"kind"`
		Lhs  any `json:"lhs"`
		Rhs  any `json:"rhs"`
	}{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	it.Kind, it.Lhs, it.Rhs = aux.Kind, aux.Lhs, aux.Rhs
	return nil
}

// Change is one typed difference between two trees. Which fields are
// meaningful depends on Kind:
//
//	OpEdit     Path?, Lhs, Rhs
//	OpAdded    Path?, Rhs
//	OpRemoved  Path?, Lhs
//	OpArray    Path?, Index, Item
//
// A nil Path addresses the root. Dates, when non-empty, lists the positions
// inside the carried value(s) that hold timestamp leaves, each path rooted at
// "lhs", "rhs" or (inside an OpArray record) "item"; it exists so a textual
// serialization round trip can restore timestamps the serializer degraded to
// strings
type Change struct {
	Kind  Op
	Path  Path
	Lhs   any
	Rhs   any
	Index int
	Item  *ArrayItem
	Dates []Path
}

// Changes is an ordered list of change records. A nil Changes means the
// compared trees were equal; a present list is never empty
type Changes []*Change

func newEdit(path Path, lhs, rhs any) *Change {
	return &Change{
		Kind:  OpEdit,
		Path:  path,
		Lhs:   lhs,
		Rhs:   rhs,
		Dates: markDates(markDates(nil, Path{sideLhs}, lhs), Path{sideRhs}, rhs),
	}
}

func newAdded(path Path, rhs any) *Change {
	return &Change{
		Kind:  OpAdded,
		Path:  path,
		Rhs:   rhs,
		Dates: markDates(nil, Path{sideRhs}, rhs),
	}
}

func newRemoved(path Path, lhs any) *Change {
	return &Change{
		Kind:  OpRemoved,
		Path:  path,
		Lhs:   lhs,
		Dates: markDates(nil, Path{sideLhs}, lhs),
	}
}

// newArrayOp hoists the item's marker paths onto the enclosing record under
// an "item" prefix. The hoist happens exactly once, here, at construction
func newArrayOp(path Path, index int, item *ArrayItem) *Change {
	var dates []Path
	switch item.Kind {
	case OpAdded:
		dates = markDates(nil, Path{sideItem, sideRhs}, item.Rhs)
	case OpRemoved:
		dates = markDates(nil, Path{sideItem, sideLhs}, item.Lhs)
	}
	return &Change{
		Kind:  OpArray,
		Path:  path,
		Index: index,
		Item:  item,
		Dates: dates,
	}
}

// MarshalJSON writes the wire shape
//
//	{kind, path?, lhs?, rhs?, index?, item?, "$dates"?}
//
// emitting only the fields the record kind carries. Optional fields (path,
// $dates) are dropped when absent; value fields (lhs/rhs) are always written
// for kinds that carry them, even when null
func (c *Change) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case OpEdit:
		return json.Marshal(struct {
			Kind  Op     `json:"kind"`
			Path  Path   `json:"path,omitempty"`
			Lhs   any    `json:"lhs"`
			Rhs   any    `json:"rhs"`
			Dates []Path `json:"$dates,omitempty"`
		}{c.Kind, c.Path, c.Lhs, c.Rhs, c.Dates})
	case OpAdded:
		return json.Marshal(struct {
			Kind  Op     `json:"kind"`
			Path  Path   `json:"path,omitempty"`
			Rhs   any    `json:"rhs"`
			Dates []Path `json:"$dates,omitempty"`
		}{c.Kind, c.Path, c.Rhs, c.Dates})
	case OpRemoved:
		return json.Marshal(struct {
			Kind  Op     `json:"kind"`
			Path  Path   `json:"path,omitempty"`
			Lhs   any    `json:"lhs"`
			Dates []Path `json:"$dates,omitempty"`
		}{c.Kind, c.Path, c.Lhs, c.Dates})
	case OpArray:
		return json.Marshal(struct {
			Kind  Op         `json:"kind"`
			Path  Path       `json:"path,omitempty"`
			Index int        `json:"index"`
			Item  *ArrayItem `json:"item"`
			Dates []Path     `json:"$dates,omitempty"`
		}{c.Kind, c.Path, c.Index, c.Item, c.Dates})
	default:
		return nil, fmt.Errorf("unknown change kind %q", c.Kind)
	}
}

// UnmarshalJSON reads the wire shape, normalizing numeric path segments from
// float64 back to int. An OpArray record missing its index field decodes with
// Index = -1, which the patch engine rejects as an invalid change
func (c *Change) UnmarshalJSON(data []byte) error {
	aux := struct {
		Kind  Op         `json:"kind"`
		Path  Path       `json:"path"`
		Lhs   any        `json:"lhs"`
		Rhs   any        `json:"rhs"`
		Index *int       `json:"index"`
		Item  *ArrayItem `json:"item"`
		Dates []Path     `json:"$dates"`
	}{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.Kind = aux.Kind
	c.Path = normalizePath(aux.Path)
	c.Lhs = aux.Lhs
	c.Rhs = aux.Rhs
	c.Item = aux.Item
	switch {
	case aux.Index != nil:
		c.Index = *aux.Index
	case c.Kind == OpArray:
		c.Index = -1
	default:
		c.Index = 0
	}
	c.Dates = nil
	for _, p := range aux.Dates {
		if len(p) > 0 {
			c.Dates = append(c.Dates, normalizePath(p))
		}
	}
	return nil
}

// String renders a one-line description, mostly for debugging & test output
func (c *Change) String() string {
	switch c.Kind {
	case OpEdit:
		return fmt.Sprintf("edit %s: %v -> %v", c.Path, c.Lhs, c.Rhs)
	case OpAdded:
		return fmt.Sprintf("add %s: %v", c.Path, c.Rhs)
	case OpRemoved:
		return fmt.Sprintf("remove %s: %v", c.Path, c.Lhs)
	case OpArray:
		if c.Item != nil && c.Item.Kind == OpAdded {
			return fmt.Sprintf("array %s: insert %v at %s", c.Path, c.Item.Rhs, strconv.Itoa(c.Index))
		}
		if c.Item != nil {
			return fmt.Sprintf("array %s: delete %v at %s", c.Path, c.Item.Lhs, strconv.Itoa(c.Index))
		}
		return fmt.Sprintf("array %s: no item", c.Path)
	}
	return fmt.Sprintf("unknown change kind %q", c.Kind)
}
