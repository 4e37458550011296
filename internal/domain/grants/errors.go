package grants

import "errors"

var (
	// ErrNotFound means no grant exists with the given id.
	ErrNotFound = errors.New("grant not found")

	// ErrInvalidPermission means a requested permission is outside the enum.
	ErrInvalidPermission = errors.New("invalid permission")

	// ErrInvalidDuration means the requested duration is outside the
	// configured bounds.
	ErrInvalidDuration = errors.New("invalid grant duration")

	// ErrAccessDenied means the grant is expired or revoked. Callers are
	// never told which beyond the audit trail.
	ErrAccessDenied = errors.New("access denied")

	// ErrUnauthorized means the actor is not allowed to perform the
	// operation, such as a non-owner attempting revoke.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrStorageConflict means a concurrent write on the same grant
	// interfered. The operation may be retried.
	ErrStorageConflict = errors.New("storage conflict")
)
