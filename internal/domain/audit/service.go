package audit

import (
	"context"
	"fmt"

	"github.com/caregate/caregate/internal/platform/clock"
)

type Service struct {
	ledger Ledger
	clk    clock.Clock
}

func NewService(ledger Ledger, clk clock.Clock) *Service {
	return &Service{ledger: ledger, clk: clk}
}

// Record validates and appends one audit entry, stamping it with the
// service clock.
func (s *Service) Record(ctx context.Context, actorID, action, subjectID, outcome, detail string) error {
	if !validActions[action] {
		return fmt.Errorf("invalid audit action: %s", action)
	}
	if !validOutcomes[outcome] {
		return fmt.Errorf("invalid audit outcome: %s", outcome)
	}
	if subjectID == "" {
		return fmt.Errorf("subject_id is required")
	}

	return s.ledger.Append(ctx, &Entry{
		RecordedAt: s.clk.Now(),
		ActorID:    actorID,
		Action:     action,
		SubjectID:  subjectID,
		Outcome:    outcome,
		Detail:     detail,
	})
}

// ListBySubject returns the time-ordered trail for one subject record.
func (s *Service) ListBySubject(ctx context.Context, subjectID string, limit, offset int) ([]*Entry, int, error) {
	return s.ledger.ListBySubject(ctx, subjectID, limit, offset)
}
