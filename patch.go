package treediff

import (
	"fmt"
	"reflect"
	"sort"
)

// ApplyChange mutates the tree pointed to by target one step toward the
// "new" side of c. target must be a non-nil pointer to the tree root,
// typically *any or *map[string]any; the pointee is mutated in place &
// exclusively owned by the caller for the duration of the call.
//
// Path traversal creates an empty map or slice for any absent intermediate,
// choosing by whether the following segment is numeric. Validation happens
// before any mutation: either the whole per-record effect lands or none of it
func ApplyChange(target any, c *Change) error {
	root, writeBack, err := patchRoot(target)
	if err != nil {
		return err
	}
	if err := validateChange(c); err != nil {
		return err
	}

	if debugEnabled() {
		debugf("apply %s", c)
	}

	switch c.Kind {
	case OpEdit, OpAdded:
		val := reviveDates(c.Rhs, c.Dates, Path{sideRhs})
		if len(c.Path) == 0 {
			*root = val
			return writeBack()
		}
		if err := editParent(root, c.Path, func(parent any, key any) (any, error) {
			return setChild(parent, key, val)
		}); err != nil {
			return err
		}
		return writeBack()

	case OpRemoved:
		if len(c.Path) == 0 {
			*root = nil
			return writeBack()
		}
		if err := editParent(root, c.Path, func(parent any, key any) (any, error) {
			return deleteChild(parent, key)
		}); err != nil {
			return err
		}
		return writeBack()

	case OpArray:
		if err := editArray(root, c.Path, c.Index, func(arr []any) ([]any, error) {
			if c.Item.Kind == OpAdded {
				val := reviveDates(c.Item.Rhs, c.Dates, Path{sideItem, sideRhs})
				return insertAt(arr, c.Index, val), nil
			}
			return removeAt(arr, c.Index), nil
		}); err != nil {
			return err
		}
		return writeBack()
	}
	return fmt.Errorf("%w: kind %q", ErrInvalidChange, c.Kind)
}

// RevertChange mutates the tree pointed to by target one step toward the
// "original" side of c, undoing what ApplyChange did. Root-level records
// cannot be reverted: there is no parent container to mutate
func RevertChange(target any, c *Change) error {
	root, writeBack, err := patchRoot(target)
	if err != nil {
		return err
	}
	if err := validateChange(c); err != nil {
		return err
	}
	if len(c.Path) == 0 {
		return ErrEmptyPath
	}

	if debugEnabled() {
		debugf("revert %s", c)
	}

	switch c.Kind {
	case OpEdit, OpRemoved:
		val := reviveDates(c.Lhs, c.Dates, Path{sideLhs})
		if err := editParent(root, c.Path, func(parent any, key any) (any, error) {
			return setChild(parent, key, val)
		}); err != nil {
			return err
		}
		return writeBack()

	case OpAdded:
		if err := editParent(root, c.Path, func(parent any, key any) (any, error) {
			return deleteChild(parent, key)
		}); err != nil {
			return err
		}
		return writeBack()

	case OpArray:
		if err := editArray(root, c.Path, c.Index, func(arr []any) ([]any, error) {
			if c.Item.Kind == OpAdded {
				return removeAt(arr, c.Index), nil
			}
			val := reviveDates(c.Item.Lhs, c.Dates, Path{sideItem, sideLhs})
			return insertAt(arr, c.Index, val), nil
		}); err != nil {
			return err
		}
		return writeBack()
	}
	return fmt.Errorf("%w: kind %q", ErrInvalidChange, c.Kind)
}

// ApplyDiff applies a whole change sequence to the tree pointed to by
// target. A nil target or a nil/empty sequence is a no-op, not an error.
//
// Records apply in their given order except that array deletions must land
// from the highest index down, otherwise earlier deletions would shift the
// indexes of later ones out from under the rest of the batch. When any are
// present the list is stably reordered: deletion pairs sort by descending
// index & every other pair keeps its original relative order.
//
// A per-record failure aborts the batch, leaving target patched by the
// earlier records of the (possibly reordered) sequence; callers needing
// atomicity should clone target first
func ApplyDiff(target any, cs Changes) error {
	if target == nil || len(cs) == 0 {
		return nil
	}
	for i, c := range orderForApply(cs) {
		if err := ApplyChange(target, c); err != nil {
			return fmt.Errorf("change %d: %w", i, err)
		}
	}
	return nil
}

// RevertDiff undoes a whole change sequence: RevertDiff on a copy of b with
// Diff(a, b) restores a. Records revert in reverse order, with the mirror of
// ApplyDiff's rule: reverting an array deletion re-inserts the element, so
// deletion pairs sort by ascending index instead
func RevertDiff(target any, cs Changes) error {
	if target == nil || len(cs) == 0 {
		return nil
	}
	for i, c := range orderForRevert(cs) {
		if err := RevertChange(target, c); err != nil {
			return fmt.Errorf("change %d: %w", i, err)
		}
	}
	return nil
}

func isArrayDelete(c *Change) bool {
	return c != nil && c.Kind == OpArray && c.Item != nil && c.Item.Kind == OpRemoved
}

func orderForApply(cs Changes) Changes {
	return reorderArrayDeletes(cs, false, func(a, b *Change) bool {
		return a.Index > b.Index
	})
}

func orderForRevert(cs Changes) Changes {
	return reorderArrayDeletes(cs, true, func(a, b *Change) bool {
		return a.Index < b.Index
	})
}

// reorderArrayDeletes re-sorts the array-deletion records among themselves,
// leaving every other record in place. Deletions must come highest index
// first on apply (lowest first on revert, where they re-insert), even when
// other records sit between them; all other pairs keep their relative order
func reorderArrayDeletes(cs Changes, reversed bool, less func(a, b *Change) bool) Changes {
	ordered := make(Changes, len(cs))
	if reversed {
		for i, c := range cs {
			ordered[len(cs)-1-i] = c
		}
	} else {
		copy(ordered, cs)
	}

	var slots []int
	for i, c := range ordered {
		if isArrayDelete(c) {
			slots = append(slots, i)
		}
	}
	if len(slots) < 2 {
		return ordered
	}

	deletes := make(Changes, len(slots))
	for i, s := range slots {
		deletes[i] = ordered[s]
	}
	sort.SliceStable(deletes, func(i, j int) bool { return less(deletes[i], deletes[j]) })
	for i, s := range slots {
		ordered[s] = deletes[i]
	}
	return ordered
}

// patchRoot checks the target contract & returns an addressable root slot
// plus a writeBack that propagates a replaced root into concrete pointer
// targets. For *any targets the slot is the pointee itself & writeBack is a
// no-op
func patchRoot(target any) (*any, func() error, error) {
	nop := func() error { return nil }
	if target == nil {
		return nil, nil, ErrInvalidTarget
	}
	if root, ok := target.(*any); ok {
		if root == nil {
			return nil, nil, ErrInvalidTarget
		}
		return root, nop, nil
	}

	// concrete pointers like *map[string]any or *[]any get their pointee
	// boxed into a slot; interior mutations land in the caller's tree through
	// the shared container header, whole-container replacement is copied back
	// on success
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return nil, nil, ErrInvalidTarget
	}
	elem := rv.Elem()
	switch elem.Kind() {
	case reflect.Map, reflect.Slice, reflect.Interface:
	default:
		return nil, nil, ErrInvalidTarget
	}
	boxed := elem.Interface()
	slot := &boxed
	writeBack := func() error {
		nv := reflect.ValueOf(*slot)
		if *slot == nil {
			elem.Set(reflect.Zero(elem.Type()))
			return nil
		}
		if !nv.Type().AssignableTo(elem.Type()) {
			return fmt.Errorf("%w: cannot store %T back into %T", ErrInvalidTarget, *slot, target)
		}
		elem.Set(nv)
		return nil
	}
	return slot, writeBack, nil
}

// validateChange checks the record shape eagerly, before any mutation. An
// array record deserialized without an index carries -1, which fails here
func validateChange(c *Change) error {
	if c == nil {
		return fmt.Errorf("%w: nil record", ErrInvalidChange)
	}
	switch c.Kind {
	case OpEdit, OpAdded, OpRemoved:
		return nil
	case OpArray:
		if c.Index < 0 {
			return fmt.Errorf("%w: array record missing index", ErrInvalidChange)
		}
		if c.Item == nil {
			return fmt.Errorf("%w: array record missing item", ErrInvalidChange)
		}
		if c.Item.Kind != OpAdded && c.Item.Kind != OpRemoved {
			return fmt.Errorf("%w: array item kind %q", ErrInvalidChange, c.Item.Kind)
		}
		return nil
	}
	return fmt.Errorf("%w: kind %q", ErrInvalidChange, c.Kind)
}

// editParent resolves the parent container of the last path segment &
// applies fn(parent, lastSegment), writing the resulting tree back into root
func editParent(root *any, path Path, fn func(parent any, key any) (any, error)) error {
	n := len(path)
	updated, err := walkTo(*root, path[:n-1], path[n-1], func(node any) (any, error) {
		return fn(node, path[n-1])
	})
	if err != nil {
		return err
	}
	*root = updated
	return nil
}

// editArray resolves the array addressed by the whole path, which may be the
// root itself, & applies fn to it, writing the reallocated slice back
func editArray(root *any, path Path, index int, fn func(arr []any) ([]any, error)) error {
	updated, err := walkTo(*root, path, index, func(node any) (any, error) {
		arr, ok := node.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not an array", ErrNotObject, path)
		}
		return fn(arr)
	})
	if err != nil {
		return err
	}
	*root = updated
	return nil
}

// walkTo descends segs from node & applies fn to the value found there,
// returning the possibly replaced node. Absent intermediates materialize as
// an empty slice or map, chosen by whether the following segment (or hint,
// after the last one) is numeric. Write-backs happen on the way out of a
// successful descent only, so a traversal failure leaves the tree untouched
func walkTo(node any, segs Path, hint any, fn func(node any) (any, error)) (any, error) {
	if len(segs) == 0 {
		if node == nil {
			node = newContainer(hint)
		}
		return fn(node)
	}

	seg := segs[0]
	nextHint := hint
	if len(segs) > 1 {
		nextHint = segs[1]
	}

	switch x := node.(type) {
	case nil:
		// an empty document root materializes on first touch
		return walkTo(newContainer(seg), segs, hint, fn)

	case map[string]any:
		key, ok := seg.(string)
		if !ok {
			return nil, fmt.Errorf("%w: numeric segment %v into map", ErrNotObject, seg)
		}
		// a typed-nil map is a valid empty mapping; writes need an allocation,
		// which the write-back below propagates into the parent
		if x == nil {
			x = map[string]any{}
		}
		child, present := x[key]
		if present && child == nil {
			return nil, fmt.Errorf("%w: null at %q", ErrInvalidPath, key)
		}
		if !present {
			child = newContainer(nextHint)
		}
		updated, err := walkTo(child, segs[1:], hint, fn)
		if err != nil {
			return nil, err
		}
		x[key] = updated
		return x, nil

	case []any:
		idx, ok := seg.(int)
		if !ok {
			return nil, fmt.Errorf("%w: string segment %v into array", ErrNotObject, seg)
		}
		if idx < 0 || idx > len(x) {
			return nil, fmt.Errorf("%w: index %d out of range", ErrInvalidPath, idx)
		}
		appending := idx == len(x)
		var child any
		if appending {
			child = newContainer(nextHint)
		} else {
			child = x[idx]
			if child == nil {
				return nil, fmt.Errorf("%w: null at index %d", ErrInvalidPath, idx)
			}
		}
		updated, err := walkTo(child, segs[1:], hint, fn)
		if err != nil {
			return nil, err
		}
		if appending {
			return append(x, updated), nil
		}
		x[idx] = updated
		return x, nil
	}
	return nil, fmt.Errorf("%w: %T at segment %v", ErrNotObject, node, seg)
}

func newContainer(seg any) any {
	if _, numeric := seg.(int); numeric {
		return []any{}
	}
	return map[string]any{}
}

// setChild writes val at key inside parent. A map key is set or created; a
// slice index must be in range or exactly one past the end, which appends
func setChild(parent any, key any, val any) (any, error) {
	switch x := parent.(type) {
	case map[string]any:
		k, ok := key.(string)
		if !ok {
			return nil, fmt.Errorf("%w: numeric key %v into map", ErrNotObject, key)
		}
		if x == nil {
			x = map[string]any{}
		}
		x[k] = val
		return x, nil
	case []any:
		i, ok := key.(int)
		if !ok {
			return nil, fmt.Errorf("%w: string key %v into array", ErrNotObject, key)
		}
		switch {
		case i < 0 || i > len(x):
			return nil, fmt.Errorf("%w: index %d out of range", ErrInvalidPath, i)
		case i == len(x):
			return append(x, val), nil
		default:
			x[i] = val
			return x, nil
		}
	}
	return nil, fmt.Errorf("%w: cannot set key in %T", ErrNotObject, parent)
}

func deleteChild(parent any, key any) (any, error) {
	switch x := parent.(type) {
	case map[string]any:
		k, ok := key.(string)
		if !ok {
			return nil, fmt.Errorf("%w: numeric key %v into map", ErrNotObject, key)
		}
		delete(x, k)
		return x, nil
	case []any:
		i, ok := key.(int)
		if !ok {
			return nil, fmt.Errorf("%w: string key %v into array", ErrNotObject, key)
		}
		return removeAt(x, i), nil
	}
	return nil, fmt.Errorf("%w: cannot delete key in %T", ErrNotObject, parent)
}

func insertAt(arr []any, idx int, val any) []any {
	if idx >= len(arr) {
		return append(arr, val)
	}
	out := make([]any, 0, len(arr)+1)
	out = append(out, arr[:idx]...)
	out = append(out, val)
	return append(out, arr[idx:]...)
}

func removeAt(arr []any, idx int) []any {
	if idx < 0 || idx >= len(arr) {
		return arr
	}
	return append(arr[:idx], arr[idx+1:]...)
}
