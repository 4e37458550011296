package triage

// Urgency is the triage outcome level. Higher ranks dominate when
// multiple signals apply.
type Urgency string

const (
	UrgencyNonUrgent  Urgency = "NON_URGENT"
	UrgencyLessUrgent Urgency = "LESS_URGENT"
	UrgencyUrgent     Urgency = "URGENT"
	UrgencyEmergency  Urgency = "EMERGENCY"
)

var urgencyRank = map[Urgency]int{
	UrgencyNonUrgent:  0,
	UrgencyLessUrgent: 1,
	UrgencyUrgent:     2,
	UrgencyEmergency:  3,
}

func maxUrgency(a, b Urgency) Urgency {
	if urgencyRank[b] > urgencyRank[a] {
		return b
	}
	return a
}

// Observation is a single consultation's clinical input. Symptoms carry
// set semantics: duplicates collapse and order never affects scoring.
// The chief complaint is kept for the audit trail only.
type Observation struct {
	Age            int                `json:"age"`
	Gender         string             `json:"gender"`
	Symptoms       []string           `json:"symptoms"`
	Vitals         map[string]float64 `json:"vitals,omitempty"`
	ChiefComplaint string             `json:"chief_complaint,omitempty"`
}

// SymptomSet returns the deduplicated symptom set.
func (o Observation) SymptomSet() map[string]bool {
	set := make(map[string]bool, len(o.Symptoms))
	for _, s := range o.Symptoms {
		set[s] = true
	}
	return set
}

// ConditionMatch scores one condition against one observation. It is
// always recomputed, never stored apart from the observation that
// produced it.
type ConditionMatch struct {
	ConditionID     string   `json:"condition_id"`
	Name            string   `json:"name"`
	Confidence      float64  `json:"confidence"`
	MatchedSymptoms []string `json:"matched_symptoms"`
	DangerSigns     []string `json:"danger_signs,omitempty"`
	Referral        bool     `json:"referral"`
	Chronic         bool     `json:"chronic"`
}

// TriageResult is the classifier's output for one observation.
type TriageResult struct {
	Urgency          Urgency          `json:"urgency"`
	Matches          []ConditionMatch `json:"matches"`
	DangerSigns      []string         `json:"danger_signs"`
	ReferralNeeded   bool             `json:"referral_needed"`
	FollowUpRequired bool             `json:"follow_up_required"`
	Note             string           `json:"note,omitempty"`
}
