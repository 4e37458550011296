package records

import "context"

type Repository interface {
	Upsert(ctx context.Context, s *Section) error
	Get(ctx context.Context, ownerID, section string) (*Section, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Section, error)
}
