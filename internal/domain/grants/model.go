package grants

import (
	"fmt"
	"time"
)

// Permission names one readable section of an owner's record, or one
// write capability.
type Permission string

const (
	PermBasicInfo          Permission = "basic_info"
	PermVitalSigns         Permission = "vital_signs"
	PermMedicalHistory     Permission = "medical_history"
	PermMedications        Permission = "medications"
	PermLabResults         Permission = "lab_results"
	PermConsultations      Permission = "consultations"
	PermCreateConsultation Permission = "create_consultation"
	PermExport             Permission = "export"
)

var validPermissions = map[Permission]bool{
	PermBasicInfo:          true,
	PermVitalSigns:         true,
	PermMedicalHistory:     true,
	PermMedications:        true,
	PermLabResults:         true,
	PermConsultations:      true,
	PermCreateConsultation: true,
	PermExport:             true,
}

// ParsePermissions converts raw strings into a deduplicated permission set,
// rejecting anything outside the enum.
func ParsePermissions(raw []string) ([]Permission, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty permission set", ErrInvalidPermission)
	}
	seen := make(map[Permission]bool, len(raw))
	perms := make([]Permission, 0, len(raw))
	for _, r := range raw {
		p := Permission(r)
		if !validPermissions[p] {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPermission, r)
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		perms = append(perms, p)
	}
	return perms, nil
}

// Status is computed from stored fields and the current time. REVOKED is
// the only stored transition; EXPIRED is always derived at read time.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusRevoked Status = "REVOKED"
	StatusExpired Status = "EXPIRED"
)

// Redemption is one append-only entry in a grant's redemption history.
type Redemption struct {
	RedeemerID string    `db:"redeemer_id" json:"redeemer_id"`
	RedeemedAt time.Time `db:"redeemed_at" json:"redeemed_at"`
}

// AccessGrant authorizes holders of its id to read a subset of the owner's
// record until it expires or the owner revokes it. Grants are never
// deleted; expired and revoked grants remain for the audit trail.
type AccessGrant struct {
	ID          string       `db:"id" json:"id"`
	OwnerID     string       `db:"owner_id" json:"owner_id"`
	Permissions []Permission `db:"permissions" json:"permissions"`
	IssuedAt    time.Time    `db:"issued_at" json:"issued_at"`
	ExpiresAt   time.Time    `db:"expires_at" json:"expires_at"`
	Revoked     bool         `db:"revoked" json:"-"`
	RevokedAt   *time.Time   `db:"revoked_at" json:"revoked_at,omitempty"`
	Redemptions []Redemption `db:"-" json:"redemptions,omitempty"`
}

// EffectiveStatus derives the grant's status at the given instant.
// Revocation wins over expiry.
func (g *AccessGrant) EffectiveStatus(now time.Time) Status {
	if g.Revoked {
		return StatusRevoked
	}
	if !now.Before(g.ExpiresAt) {
		return StatusExpired
	}
	return StatusActive
}

// Has reports whether the grant carries the given permission.
func (g *AccessGrant) Has(p Permission) bool {
	for _, gp := range g.Permissions {
		if gp == p {
			return true
		}
	}
	return false
}
