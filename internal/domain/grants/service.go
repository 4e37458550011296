package grants

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/caregate/caregate/internal/platform/clock"
)

// AuditRecorder appends entries to the audit trail. Every redemption,
// revocation, and denied attempt produces exactly one entry.
type AuditRecorder interface {
	Record(ctx context.Context, actorID, action, subjectID, outcome, detail string) error
}

const (
	actionGrantIssued   = "GRANT_ISSUED"
	actionGrantRedeemed = "GRANT_REDEEMED"
	actionGrantRevoked  = "GRANT_REVOKED"

	outcomeSuccess = "SUCCESS"
	outcomeDenied  = "DENIED"
	outcomeExpired = "EXPIRED"
)

// RedeemResult is what a successful redemption returns to the caller:
// whose record the grant opens and which sections it opens.
type RedeemResult struct {
	OwnerID     string       `json:"owner_id"`
	Permissions []Permission `json:"permissions"`
}

type Service struct {
	store Store
	aud   AuditRecorder
	clk   clock.Clock
	log   zerolog.Logger

	minDuration time.Duration
	maxDuration time.Duration
}

func NewService(store Store, aud AuditRecorder, clk clock.Clock, log zerolog.Logger, minDuration, maxDuration time.Duration) *Service {
	return &Service{
		store:       store,
		aud:         aud,
		clk:         clk,
		log:         log,
		minDuration: minDuration,
		maxDuration: maxDuration,
	}
}

// newGrantID returns 128 bits from crypto/rand, hex-encoded. Any shorter
// human-readable form is a presentation concern, not this layer's.
func newGrantID() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generating grant id: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

// Issue creates a grant for the owner's record covering the requested
// permissions for the requested number of hours.
func (s *Service) Issue(ctx context.Context, ownerID string, rawPerms []string, durationHours int) (*AccessGrant, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", ErrUnauthorized)
	}
	perms, err := ParsePermissions(rawPerms)
	if err != nil {
		return nil, err
	}

	d := time.Duration(durationHours) * time.Hour
	if d < s.minDuration || d > s.maxDuration {
		return nil, fmt.Errorf("%w: %dh outside [%s, %s]",
			ErrInvalidDuration, durationHours, s.minDuration, s.maxDuration)
	}

	id, err := newGrantID()
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	g := &AccessGrant{
		ID:          id,
		OwnerID:     ownerID,
		Permissions: perms,
		IssuedAt:    now,
		ExpiresAt:   now.Add(d),
	}
	if err := s.store.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("creating grant: %w", err)
	}

	s.audit(ctx, ownerID, actionGrantIssued, ownerID, outcomeSuccess, permDetail(perms))
	return g, nil
}

// Redeem exchanges a grant id for the owner's id and the permission set.
// Grants are reusable: the same or different redeemers may redeem
// repeatedly until expiry or revocation.
func (s *Service) Redeem(ctx context.Context, grantID, redeemerID string) (*RedeemResult, error) {
	res, err := s.redeemOnce(ctx, grantID, redeemerID)
	if errors.Is(err, ErrStorageConflict) {
		// A revoke landed between the status check and the append.
		// Recompute once; the second pass sees the revoked status.
		res, err = s.redeemOnce(ctx, grantID, redeemerID)
	}
	return res, err
}

func (s *Service) redeemOnce(ctx context.Context, grantID, redeemerID string) (*RedeemResult, error) {
	g, err := s.store.Get(ctx, grantID)
	if errors.Is(err, ErrNotFound) {
		s.audit(ctx, redeemerID, actionGrantRedeemed, grantID, outcomeDenied, "grant not found")
		return nil, ErrAccessDenied
	}
	if err != nil {
		return nil, fmt.Errorf("loading grant: %w", err)
	}

	now := s.clk.Now()
	switch g.EffectiveStatus(now) {
	case StatusExpired:
		s.audit(ctx, redeemerID, actionGrantRedeemed, g.OwnerID, outcomeExpired, "grant expired")
		return nil, ErrAccessDenied
	case StatusRevoked:
		s.audit(ctx, redeemerID, actionGrantRedeemed, g.OwnerID, outcomeDenied, "grant revoked")
		return nil, ErrAccessDenied
	}

	err = s.store.AppendRedemption(ctx, grantID, Redemption{RedeemerID: redeemerID, RedeemedAt: now})
	if errors.Is(err, ErrStorageConflict) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("recording redemption: %w", err)
	}

	s.audit(ctx, redeemerID, actionGrantRedeemed, g.OwnerID, outcomeSuccess, permDetail(g.Permissions))
	return &RedeemResult{OwnerID: g.OwnerID, Permissions: g.Permissions}, nil
}

// Revoke marks the grant revoked. Only the owner may revoke; revoking an
// already-revoked or expired grant succeeds silently and records nothing.
func (s *Service) Revoke(ctx context.Context, grantID, requesterID string) error {
	g, err := s.store.Get(ctx, grantID)
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("loading grant: %w", err)
	}

	if requesterID != g.OwnerID {
		s.audit(ctx, requesterID, actionGrantRevoked, g.OwnerID, outcomeDenied, "requester is not the owner")
		return ErrUnauthorized
	}

	changed, err := s.store.SetRevoked(ctx, grantID, s.clk.Now())
	if err != nil {
		return fmt.Errorf("revoking grant: %w", err)
	}
	if changed {
		s.audit(ctx, requesterID, actionGrantRevoked, g.OwnerID, outcomeSuccess, "")
	}
	return nil
}

// ListActive returns the owner's grants whose effective status is ACTIVE
// right now. Expiry is always a read-time computation; no sweep is needed
// for correctness.
func (s *Service) ListActive(ctx context.Context, ownerID string) ([]*AccessGrant, error) {
	all, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing grants: %w", err)
	}

	now := s.clk.Now()
	active := make([]*AccessGrant, 0, len(all))
	for _, g := range all {
		if g.EffectiveStatus(now) == StatusActive {
			active = append(active, g)
		}
	}
	return active, nil
}

// audit appends one entry, logging rather than failing the operation if
// the append itself errors. State changes are already durable by the
// time audit runs; the trail must never turn a success into a failure.
func (s *Service) audit(ctx context.Context, actorID, action, subjectID, outcome, detail string) {
	if err := s.aud.Record(ctx, actorID, action, subjectID, outcome, detail); err != nil {
		s.log.Error().Err(err).
			Str("action", action).
			Str("actor_id", actorID).
			Msg("audit append failed")
	}
}

func permDetail(perms []Permission) string {
	parts := make([]string, len(perms))
	for i, p := range perms {
		parts[i] = string(p)
	}
	return "permissions: " + strings.Join(parts, ",")
}
