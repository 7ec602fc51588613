package treediff

// Stats holds summary counts about a computed diff, populated through
// OptionSetStats
type Stats struct {
	Edits        int `json:"edits,omitempty"`        // scalar & type-change edits
	Adds         int `json:"adds,omitempty"`         // keys present only in the second tree
	Removes      int `json:"removes,omitempty"`      // keys present only in the first tree
	ArrayInserts int `json:"arrayInserts,omitempty"` // elements gained by arrays
	ArrayDeletes int `json:"arrayDeletes,omitempty"` // elements lost by arrays
}

// Total returns the number of change records counted
func (s Stats) Total() int {
	return s.Edits + s.Adds + s.Removes + s.ArrayInserts + s.ArrayDeletes
}

// NodeChange returns the net shift in element count between the two trees
func (s Stats) NodeChange() int {
	return (s.Adds + s.ArrayInserts) - (s.Removes + s.ArrayDeletes)
}

func (s *Stats) count(c *Change) {
	switch c.Kind {
	case OpEdit:
		s.Edits++
	case OpAdded:
		s.Adds++
	case OpRemoved:
		s.Removes++
	case OpArray:
		if c.Item != nil && c.Item.Kind == OpAdded {
			s.ArrayInserts++
		} else {
			s.ArrayDeletes++
		}
	}
}
