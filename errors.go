package treediff

import "errors"

// Error kinds returned by the patch engine. All are local, synchronous &
// recoverable; callers test with errors.Is
var (
	// ErrInvalidTarget means the apply/revert target is nil or not a pointer
	// to a container tree
	ErrInvalidTarget = errors.New("treediff: invalid patch target")
	// ErrInvalidChange means a record has an unrecognized kind, or an array
	// record is missing its index or item
	ErrInvalidChange = errors.New("treediff: invalid change record")
	// ErrEmptyPath means a revert was attempted on a root-level record;
	// there is no parent container to mutate
	ErrEmptyPath = errors.New("treediff: change has no path")
	// ErrNotObject means path traversal hit a scalar where a container was
	// expected
	ErrNotObject = errors.New("treediff: path traverses a non-container value")
	// ErrInvalidPath means a path segment resolved to an explicit null or an
	// out-of-range index that traversal will not create over
	ErrInvalidPath = errors.New("treediff: path resolves to an absent value")
)
