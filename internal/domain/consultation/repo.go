package consultation

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("consultation not found")
	ErrInvalidObservation = errors.New("invalid observation")
)

type Repository interface {
	Create(ctx context.Context, c *Consultation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*Consultation, int, error)
}
