package records

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/caregate/caregate/internal/domain/grants"
)

var (
	ErrNotFound       = errors.New("record section not found")
	ErrInvalidSection = errors.New("invalid record section")
)

// SectionExport returns the whole record and is gated by the export
// permission rather than a section permission.
const SectionExport = "export"

// sectionPermissions maps each readable record section to the grant
// permission that opens it.
var sectionPermissions = map[string]grants.Permission{
	"basic_info":      grants.PermBasicInfo,
	"vital_signs":     grants.PermVitalSigns,
	"medical_history": grants.PermMedicalHistory,
	"medications":     grants.PermMedications,
	"lab_results":     grants.PermLabResults,
}

// Section is one named part of an owner's record, stored as an opaque
// JSON document.
type Section struct {
	OwnerID   string          `db:"owner_id" json:"owner_id"`
	Section   string          `db:"section" json:"section"`
	Content   json.RawMessage `db:"content" json:"content"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
