package audit

import (
	"time"

	"github.com/google/uuid"
)

// Actions recorded in the ledger.
const (
	ActionGrantIssued   = "GRANT_ISSUED"
	ActionGrantRedeemed = "GRANT_REDEEMED"
	ActionGrantRevoked  = "GRANT_REVOKED"
	ActionDiagnosisRun  = "DIAGNOSIS_RUN"
)

// Outcomes of an audited action. Denied attempts are recorded too; a failed
// operation without a ledger entry is a bug.
const (
	OutcomeSuccess = "SUCCESS"
	OutcomeDenied  = "DENIED"
	OutcomeExpired = "EXPIRED"
)

// Entry maps to the audit_entry table. Entries are append-only: nothing in
// this module updates or deletes one after Append.
type Entry struct {
	ID         uuid.UUID `db:"id" json:"id"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
	ActorID    string    `db:"actor_id" json:"actor_id"`
	Action     string    `db:"action" json:"action"`
	SubjectID  string    `db:"subject_id" json:"subject_id"`
	Outcome    string    `db:"outcome" json:"outcome"`
	Detail     string    `db:"detail" json:"detail,omitempty"`
}

var validActions = map[string]bool{
	ActionGrantIssued:   true,
	ActionGrantRedeemed: true,
	ActionGrantRevoked:  true,
	ActionDiagnosisRun:  true,
}

var validOutcomes = map[string]bool{
	OutcomeSuccess: true,
	OutcomeDenied:  true,
	OutcomeExpired: true,
}
