package comments

import "errors"

// Expected failure modes, surfaced directly to the HTTP layer. Anything
// else coming out of the service is a storage failure and gets wrapped.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("not authorized")
	ErrNotFound        = errors.New("not found")
	ErrInvalidVote     = errors.New("invalid vote type")
	ErrEmptyText       = errors.New("comment cannot be empty")
	ErrTextTooLong     = errors.New("comment is too long")
)
