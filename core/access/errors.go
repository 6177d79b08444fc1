package access

import "github.com/pkg/errors"

var (
	// ErrUnauthenticated: no verified identity; no policy logic ran.
	ErrUnauthenticated = errors.New("user not authenticated")
	// ErrForbidden: the role has no permission for this operation class.
	ErrForbidden = errors.New("permission denied")
	// ErrNotFound covers both absent records and records outside the caller's
	// resolved scope, so out-of-scope ids cannot be probed for existence.
	ErrNotFound = errors.New("not found")
)
