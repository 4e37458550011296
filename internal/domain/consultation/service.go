package consultation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/caregate/caregate/internal/domain/grants"
	"github.com/caregate/caregate/internal/domain/triage"
	"github.com/caregate/caregate/internal/platform/clock"
)

// GrantRedeemer resolves a grant id into the owner it opens and the
// permissions it carries.
type GrantRedeemer interface {
	Redeem(ctx context.Context, grantID, redeemerID string) (*grants.RedeemResult, error)
}

// AuditRecorder appends entries to the audit trail.
type AuditRecorder interface {
	Record(ctx context.Context, actorID, action, subjectID, outcome, detail string) error
}

const (
	actionDiagnosisRun = "DIAGNOSIS_RUN"

	outcomeSuccess = "SUCCESS"
	outcomeDenied  = "DENIED"
)

var validGenders = map[string]bool{"": true, "male": true, "female": true, "other": true}

// SubmitRequest is one consultation intake: who it is about, the grant
// that authorizes it when a provider submits, and the clinical input.
type SubmitRequest struct {
	OwnerID     string             `json:"owner_id,omitempty"`
	GrantID     string             `json:"grant_id,omitempty"`
	Observation triage.Observation `json:"observation"`
}

type Service struct {
	repo   Repository
	engine *triage.Engine
	grants GrantRedeemer
	aud    AuditRecorder
	clk    clock.Clock
	log    zerolog.Logger
}

func NewService(repo Repository, engine *triage.Engine, gr GrantRedeemer, aud AuditRecorder, clk clock.Clock, log zerolog.Logger) *Service {
	return &Service{repo: repo, engine: engine, grants: gr, aud: aud, clk: clk, log: log}
}

// Submit runs the diagnostic pipeline for one observation and persists
// the consultation. Owners submit about themselves without a grant; any
// other actor must present a grant carrying create_consultation.
func (s *Service) Submit(ctx context.Context, actorID string, req SubmitRequest) (*Consultation, error) {
	if err := validateObservation(req.Observation); err != nil {
		return nil, err
	}

	ownerID := req.OwnerID
	if req.GrantID == "" {
		if ownerID != "" && ownerID != actorID {
			return nil, grants.ErrAccessDenied
		}
		ownerID = actorID
	} else {
		res, err := s.grants.Redeem(ctx, req.GrantID, actorID)
		if err != nil {
			return nil, err
		}
		ownerID = res.OwnerID
		if !hasPermission(res.Permissions, grants.PermCreateConsultation) {
			s.audit(ctx, actorID, ownerID, outcomeDenied, "grant lacks create_consultation")
			return nil, grants.ErrAccessDenied
		}
	}

	result := s.engine.Run(req.Observation)

	c := &Consultation{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		ProviderID:  actorID,
		GrantID:     req.GrantID,
		Observation: req.Observation,
		Result:      result,
		CreatedAt:   s.clk.Now(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("storing consultation: %w", err)
	}

	s.audit(ctx, actorID, ownerID, outcomeSuccess, "urgency: "+string(result.Urgency))
	return c, nil
}

// ListByOwner returns an owner's consultations. Owners read their own;
// other actors present a grant carrying the consultations permission.
func (s *Service) ListByOwner(ctx context.Context, actorID, grantID string, limit, offset int) ([]*Consultation, int, error) {
	ownerID := actorID
	if grantID != "" {
		res, err := s.resolveRead(ctx, grantID, actorID)
		if err != nil {
			return nil, 0, err
		}
		ownerID = res.OwnerID
	}
	return s.repo.ListByOwner(ctx, ownerID, limit, offset)
}

// GetByID returns one consultation, subject to the same access rules as
// ListByOwner.
func (s *Service) GetByID(ctx context.Context, actorID, grantID string, id uuid.UUID) (*Consultation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.OwnerID == actorID {
		return c, nil
	}
	if grantID == "" {
		return nil, grants.ErrAccessDenied
	}
	res, err := s.resolveRead(ctx, grantID, actorID)
	if err != nil {
		return nil, err
	}
	if res.OwnerID != c.OwnerID {
		return nil, grants.ErrAccessDenied
	}
	return c, nil
}

func (s *Service) resolveRead(ctx context.Context, grantID, actorID string) (*grants.RedeemResult, error) {
	res, err := s.grants.Redeem(ctx, grantID, actorID)
	if err != nil {
		return nil, err
	}
	if !hasPermission(res.Permissions, grants.PermConsultations) {
		return nil, grants.ErrAccessDenied
	}
	return res, nil
}

func (s *Service) audit(ctx context.Context, actorID, subjectID, outcome, detail string) {
	if err := s.aud.Record(ctx, actorID, actionDiagnosisRun, subjectID, outcome, detail); err != nil {
		s.log.Error().Err(err).Str("actor_id", actorID).Msg("audit append failed")
	}
}

func validateObservation(obs triage.Observation) error {
	if obs.Age < 0 || obs.Age > 150 {
		return fmt.Errorf("%w: age %d out of range", ErrInvalidObservation, obs.Age)
	}
	if !validGenders[obs.Gender] {
		return fmt.Errorf("%w: unknown gender %q", ErrInvalidObservation, obs.Gender)
	}
	for key, v := range obs.Vitals {
		if v < 0 {
			return fmt.Errorf("%w: vital %s must be non-negative", ErrInvalidObservation, key)
		}
	}
	return nil
}

func hasPermission(perms []grants.Permission, want grants.Permission) bool {
	for _, p := range perms {
		if p == want {
			return true
		}
	}
	return false
}
