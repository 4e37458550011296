package grants

import (
	"context"
	"time"
)

// Store persists grants and their redemption history. Grants are
// independent of each other; implementations need per-grant atomicity
// only, never cross-grant locking.
type Store interface {
	// Create inserts a new grant.
	Create(ctx context.Context, g *AccessGrant) error

	// Get returns the grant with its redemption history, or ErrNotFound.
	Get(ctx context.Context, id string) (*AccessGrant, error)

	// ListByOwner returns every grant for the owner, newest first,
	// without redemption histories.
	ListByOwner(ctx context.Context, ownerID string) ([]*AccessGrant, error)

	// AppendRedemption atomically appends a redemption entry unless the
	// grant has been revoked in the meantime, in which case it returns
	// ErrStorageConflict and appends nothing.
	AppendRedemption(ctx context.Context, grantID string, r Redemption) error

	// SetRevoked marks the grant revoked at the given instant. It reports
	// whether the call changed state; revoking an already-revoked grant
	// returns changed=false with no error.
	SetRevoked(ctx context.Context, grantID string, at time.Time) (changed bool, err error)
}
