package consultation

import (
	"time"

	"github.com/google/uuid"

	"github.com/caregate/caregate/internal/domain/triage"
)

// Consultation records one submitted observation and the triage result
// it produced. Both are immutable once stored; a result is never
// recomputed against a newer knowledge base.
type Consultation struct {
	ID          uuid.UUID           `db:"id" json:"id"`
	OwnerID     string              `db:"owner_id" json:"owner_id"`
	ProviderID  string              `db:"provider_id" json:"provider_id"`
	GrantID     string              `db:"grant_id" json:"grant_id,omitempty"`
	Observation triage.Observation  `db:"observation" json:"observation"`
	Result      triage.TriageResult `db:"result" json:"result"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
}
