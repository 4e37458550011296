package records

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/caregate/caregate/internal/domain/grants"
	"github.com/caregate/caregate/internal/platform/clock"
)

// GrantRedeemer resolves a grant id into the owner it opens and the
// permissions it carries.
type GrantRedeemer interface {
	Redeem(ctx context.Context, grantID, redeemerID string) (*grants.RedeemResult, error)
}

type Service struct {
	repo   Repository
	grants GrantRedeemer
	clk    clock.Clock
}

func NewService(repo Repository, gr GrantRedeemer, clk clock.Clock) *Service {
	return &Service{repo: repo, grants: gr, clk: clk}
}

// ReadSection returns one section of an owner's record. Owners read
// their own sections freely; any other actor must present a grant from
// that owner carrying the section's permission. A denied read returns
// no data at all, never a partial section.
func (s *Service) ReadSection(ctx context.Context, actorID, grantID, ownerID, section string) (*Section, error) {
	if _, ok := sectionPermissions[section]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSection, section)
	}
	if actorID != ownerID {
		if err := s.authorize(ctx, actorID, grantID, ownerID, sectionPermissions[section]); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, ownerID, section)
}

// Export returns every stored section of an owner's record as one
// document. Gated by the export permission for non-owners.
func (s *Service) Export(ctx context.Context, actorID, grantID, ownerID string) (map[string]json.RawMessage, error) {
	if actorID != ownerID {
		if err := s.authorize(ctx, actorID, grantID, ownerID, grants.PermExport); err != nil {
			return nil, err
		}
	}

	sections, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(sections))
	for _, sec := range sections {
		out[sec.Section] = sec.Content
	}
	return out, nil
}

// WriteSection stores one section of the actor's own record. There is
// no grant-gated write path for record sections.
func (s *Service) WriteSection(ctx context.Context, actorID, section string, content json.RawMessage) (*Section, error) {
	if _, ok := sectionPermissions[section]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSection, section)
	}
	if !json.Valid(content) {
		return nil, fmt.Errorf("%w: content is not valid JSON", ErrInvalidSection)
	}

	sec := &Section{
		OwnerID:   actorID,
		Section:   section,
		Content:   content,
		UpdatedAt: s.clk.Now(),
	}
	if err := s.repo.Upsert(ctx, sec); err != nil {
		return nil, fmt.Errorf("storing record section: %w", err)
	}
	return sec, nil
}

func (s *Service) authorize(ctx context.Context, actorID, grantID, ownerID string, want grants.Permission) error {
	if grantID == "" {
		return grants.ErrAccessDenied
	}
	res, err := s.grants.Redeem(ctx, grantID, actorID)
	if err != nil {
		return err
	}
	if res.OwnerID != ownerID {
		return grants.ErrAccessDenied
	}
	for _, p := range res.Permissions {
		if p == want {
			return nil
		}
	}
	return grants.ErrAccessDenied
}
