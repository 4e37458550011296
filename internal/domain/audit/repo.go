package audit

import (
	"context"
)

// Ledger persists audit entries. Implementations must provide append-only
// semantics: no update or delete operations exist on this interface by
// design of the audit trail, and none may be added.
type Ledger interface {
	Append(ctx context.Context, e *Entry) error
	// ListBySubject returns entries for a subject record id in ascending
	// recorded-at order, with the total count before paging.
	ListBySubject(ctx context.Context, subjectID string, limit, offset int) ([]*Entry, int, error)
}
