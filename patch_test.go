package treediff

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTree(t *testing.T, src string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(src), &v))
	return v
}

type RoundTripTestCase struct {
	description string
	src, dst    string
}

// round-trip property: applying Diff(a, b) to a copy of a yields b, &
// reverting the same changes from a copy of b yields a
func RunRoundTripTestCases(t *testing.T, cases []RoundTripTestCase) {
	t.Helper()
	for _, c := range cases {
		t.Run(c.description, func(t *testing.T) {
			src := mustTree(t, c.src)
			dst := mustTree(t, c.dst)
			changes := Diff(src, dst)

			target := mustTree(t, c.src)
			require.NoError(t, ApplyDiff(&target, changes))
			if diff := cmp.Diff(dst, target); diff != "" {
				t.Errorf("apply mismatch (-want +got):\n%s", diff)
			}

			back := mustTree(t, c.dst)
			require.NoError(t, RevertDiff(&back, changes))
			if diff := cmp.Diff(src, back); diff != "" {
				t.Errorf("revert mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyRevertRoundTrip(t *testing.T) {
	cases := []RoundTripTestCase{
		{
			"scalar edits",
			`{"a":1,"b":"x","c":true}`,
			`{"a":2,"b":"y","c":false}`,
		},
		{
			"added & removed keys",
			`{"keep":1,"gone":{"deep":[1,2]}}`,
			`{"keep":1,"new":{"deep":[3]}}`,
		},
		{
			"nested containers",
			`{"a":{"b":{"c":[1,{"d":false}]}}}`,
			`{"a":{"b":{"c":[2,{"d":true,"e":null}]}}}`,
		},
		{
			"type change",
			`{"a":[1,2]}`,
			`{"a":{"0":1,"1":2}}`,
		},
		{
			"array growth",
			`{"items":[1,2]}`,
			`{"items":[1,2,3,4,5]}`,
		},
		{
			"array shrink from end",
			`{"items":[1,2,3,4,5]}`,
			`{"items":[1,2,3]}`,
		},
		{
			"long array collapse must not corrupt surviving indexes",
			`{"items":[1,2,3,4,5,6,7,8,9,10,11,12]}`,
			`{"items":[1]}`,
		},
		{
			"array element edits & shrink together",
			`{"items":["a","b","c","d"],"n":1}`,
			`{"items":["A","b"],"n":2}`,
		},
		{
			"empty containers",
			`{"a":{},"b":[]}`,
			`{"a":{"k":1},"b":[1]}`,
		},
		{
			"null handling",
			`{"a":null,"b":1}`,
			`{"a":1,"c":null}`,
		},
	}
	RunRoundTripTestCases(t, cases)
}

func TestApplyDiffNoOp(t *testing.T) {
	target := mustTree(t, `{"a":1}`)
	require.NoError(t, ApplyDiff(&target, nil))
	require.NoError(t, ApplyDiff(&target, Changes{}))
	if diff := cmp.Diff(mustTree(t, `{"a":1}`), target); diff != "" {
		t.Errorf("target changed (-want +got):\n%s", diff)
	}

	// a nil target is a no-op, not an error
	changes := Diff(mustTree(t, `{"a":1}`), mustTree(t, `{"a":2}`))
	assert.NoError(t, ApplyDiff(nil, changes))
	assert.NoError(t, RevertDiff(nil, changes))
}

func TestApplyChangeRootLevel(t *testing.T) {
	var target any = map[string]any{"a": float64(1)}
	changes := Diff(map[string]any{"a": float64(1)}, float64(5))
	require.Len(t, changes, 1)
	require.Empty(t, changes[0].Path)

	require.NoError(t, ApplyChange(&target, changes[0]))
	assert.Equal(t, float64(5), target)

	// root-level records cannot be reverted
	assert.ErrorIs(t, RevertChange(&target, changes[0]), ErrEmptyPath)
}

func TestApplyChangeCreatesIntermediates(t *testing.T) {
	// apply & revert both materialize missing parents, map vs slice chosen
	// by the following segment
	var target any = map[string]any{}
	err := ApplyChange(&target, &Change{Kind: OpAdded, Path: Path{"a", 0, "b"}, Rhs: float64(1)})
	require.NoError(t, err)
	want := map[string]any{"a": []any{map[string]any{"b": float64(1)}}}
	if diff := cmp.Diff(want, target); diff != "" {
		t.Errorf("created shape mismatch (-want +got):\n%s", diff)
	}

	var back any = map[string]any{}
	err = RevertChange(&back, &Change{Kind: OpRemoved, Path: Path{"x", "y"}, Lhs: float64(2)})
	require.NoError(t, err)
	if diff := cmp.Diff(map[string]any{"x": map[string]any{"y": float64(2)}}, back); diff != "" {
		t.Errorf("revert-created shape mismatch (-want +got):\n%s", diff)
	}
}

func TestConcretePointerTargets(t *testing.T) {
	before := map[string]any{"a": float64(1)}
	after := map[string]any{"a": float64(2)}

	target := map[string]any{"a": float64(1)}
	require.NoError(t, ApplyDiff(&target, Diff(before, after)))
	if diff := cmp.Diff(after, target); diff != "" {
		t.Errorf("map target mismatch (-want +got):\n%s", diff)
	}

	slice := []any{float64(1), float64(2), float64(3)}
	require.NoError(t, ApplyDiff(&slice, Diff([]any{float64(1), float64(2), float64(3)}, []any{float64(1)})))
	if diff := cmp.Diff([]any{float64(1)}, slice); diff != "" {
		t.Errorf("slice target mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyIntoNilMapValues(t *testing.T) {
	// a typed-nil map is a valid empty mapping, same as the differ treats it;
	// writes allocate instead of panicking & the allocation propagates into
	// the parent through the usual write-back
	var target any = map[string]any{"a": map[string]any(nil)}
	changes := Diff(target, map[string]any{"a": map[string]any{"b": float64(1)}})
	require.Len(t, changes, 1)
	require.NoError(t, ApplyDiff(&target, changes))
	want := map[string]any{"a": map[string]any{"b": float64(1)}}
	if diff := cmp.Diff(want, target); diff != "" {
		t.Errorf("patched tree mismatch (-want +got):\n%s", diff)
	}

	// same for a typed-nil root
	var root any = map[string]any(nil)
	require.NoError(t, ApplyChange(&root, &Change{Kind: OpAdded, Path: Path{"k"}, Rhs: float64(2)}))
	if diff := cmp.Diff(map[string]any{"k": float64(2)}, root); diff != "" {
		t.Errorf("patched root mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyDiffOrdersSeparatedArrayDeletes(t *testing.T) {
	// deletions must land highest index first even when other records sit
	// between them, as in a hand-assembled or re-serialized change list
	changes := Changes{
		newArrayOp(Path{"items"}, 1, &ArrayItem{Kind: OpRemoved, Lhs: float64(1)}),
		newEdit(Path{"n"}, float64(1), float64(2)),
		newArrayOp(Path{"items"}, 3, &ArrayItem{Kind: OpRemoved, Lhs: float64(3)}),
	}

	target := mustTree(t, `{"items":[0,1,2,3,4],"n":1}`)
	require.NoError(t, ApplyDiff(&target, changes))
	if diff := cmp.Diff(mustTree(t, `{"items":[0,2,4],"n":2}`), target); diff != "" {
		t.Errorf("apply mismatch (-want +got):\n%s", diff)
	}

	back := mustTree(t, `{"items":[0,2,4],"n":2}`)
	require.NoError(t, RevertDiff(&back, changes))
	if diff := cmp.Diff(mustTree(t, `{"items":[0,1,2,3,4],"n":1}`), back); diff != "" {
		t.Errorf("revert mismatch (-want +got):\n%s", diff)
	}
}

func TestPatchValidationErrors(t *testing.T) {
	tree := func() any { return map[string]any{"a": float64(1), "items": []any{float64(1)}} }

	cases := []struct {
		description string
		target      any
		change      *Change
		revert      bool
		wantErr     error
	}{
		{
			"nil target",
			nil,
			&Change{Kind: OpEdit, Path: Path{"a"}, Lhs: float64(1), Rhs: float64(2)},
			false,
			ErrInvalidTarget,
		},
		{
			"non-pointer target",
			"scalar",
			&Change{Kind: OpEdit, Path: Path{"a"}, Lhs: float64(1), Rhs: float64(2)},
			false,
			ErrInvalidTarget,
		},
		{
			"unknown kind",
			ptrTree(tree()),
			&Change{Kind: Op("X"), Path: Path{"a"}},
			false,
			ErrInvalidChange,
		},
		{
			"nil record",
			ptrTree(tree()),
			nil,
			false,
			ErrInvalidChange,
		},
		{
			"array record missing item",
			ptrTree(tree()),
			&Change{Kind: OpArray, Path: Path{"items"}, Index: 0},
			false,
			ErrInvalidChange,
		},
		{
			"array record missing index",
			ptrTree(tree()),
			&Change{Kind: OpArray, Path: Path{"items"}, Index: -1, Item: &ArrayItem{Kind: OpAdded, Rhs: float64(9)}},
			false,
			ErrInvalidChange,
		},
		{
			"array item with edit kind",
			ptrTree(tree()),
			&Change{Kind: OpArray, Path: Path{"items"}, Index: 0, Item: &ArrayItem{Kind: OpEdit}},
			false,
			ErrInvalidChange,
		},
		{
			"revert without path",
			ptrTree(tree()),
			&Change{Kind: OpEdit, Lhs: float64(1), Rhs: float64(2)},
			true,
			ErrEmptyPath,
		},
		{
			"traversal through a scalar",
			ptrTree(tree()),
			&Change{Kind: OpEdit, Path: Path{"a", "b"}, Lhs: float64(1), Rhs: float64(2)},
			false,
			ErrNotObject,
		},
		{
			"traversal through an explicit null",
			ptrTree(map[string]any{"a": nil}),
			&Change{Kind: OpEdit, Path: Path{"a", "b"}, Lhs: float64(1), Rhs: float64(2)},
			false,
			ErrInvalidPath,
		},
		{
			"index far out of range",
			ptrTree(tree()),
			&Change{Kind: OpEdit, Path: Path{"items", 5}, Lhs: float64(1), Rhs: float64(2)},
			false,
			ErrInvalidPath,
		},
	}

	for _, c := range cases {
		t.Run(c.description, func(t *testing.T) {
			var err error
			if c.revert {
				err = RevertChange(c.target, c.change)
			} else {
				err = ApplyChange(c.target, c.change)
			}
			assert.ErrorIs(t, err, c.wantErr)
		})
	}
}

func ptrTree(v any) *any { return &v }

func TestFailedTraversalLeavesTreeUntouched(t *testing.T) {
	// a mid-walk failure must not leave half-created intermediates behind
	var target any = map[string]any{"a": map[string]any{"b": "scalar"}}
	err := ApplyChange(&target, &Change{Kind: OpAdded, Path: Path{"a", "b", "c", "d"}, Rhs: float64(1)})
	require.ErrorIs(t, err, ErrNotObject)
	if diff := cmp.Diff(map[string]any{"a": map[string]any{"b": "scalar"}}, target.(map[string]any)); diff != "" {
		t.Errorf("target mutated by failed apply (-want +got):\n%s", diff)
	}
}

func TestApplyDiffAbortsOnMalformedRecord(t *testing.T) {
	target := mustTree(t, `{"a":1}`)
	err := ApplyDiff(&target, Changes{
		{Kind: OpEdit, Path: Path{"a"}, Lhs: float64(1), Rhs: float64(2)},
		{Kind: Op("X")},
	})
	require.ErrorIs(t, err, ErrInvalidChange)
	// the earlier record already landed; batches are not atomic
	assert.Equal(t, float64(2), target.(map[string]any)["a"])
}
