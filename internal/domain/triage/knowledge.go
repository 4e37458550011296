package triage

import (
	"errors"
	"fmt"
)

// ErrUnknownCondition is returned by lookups that miss. The scorer never
// raises it; a miss during scoring is logged and skipped.
var ErrUnknownCondition = errors.New("unknown condition")

// Vital sign keys the scorer and classifier understand. Anything else in
// an observation's vitals map is logged and ignored.
const (
	VitalTemperature      = "temperature"
	VitalHeartRate        = "heart_rate"
	VitalRespiratoryRate  = "respiratory_rate"
	VitalSystolicBP       = "systolic_bp"
	VitalDiastolicBP      = "diastolic_bp"
	VitalOxygenSaturation = "oxygen_saturation"
)

var knownVitals = map[string]bool{
	VitalTemperature:      true,
	VitalHeartRate:        true,
	VitalRespiratoryRate:  true,
	VitalSystolicBP:       true,
	VitalDiastolicBP:      true,
	VitalOxygenSaturation: true,
}

// Comparison operators for vital rules.
const (
	OpGTE = "gte"
	OpGT  = "gt"
	OpLTE = "lte"
	OpLT  = "lt"
)

var validOps = map[string]bool{OpGTE: true, OpGT: true, OpLTE: true, OpLT: true}

// SymptomWeight pairs a symptom identifier with its contribution to a
// condition's raw score.
type SymptomWeight struct {
	Symptom string  `json:"symptom"`
	Weight  float64 `json:"weight"`
}

// VitalRule adjusts a condition's score when a vital sign crosses a
// threshold. Bonus is added first, then Multiplier applied if non-zero.
type VitalRule struct {
	Vital      string  `json:"vital"`
	Op         string  `json:"op"`
	Threshold  float64 `json:"threshold"`
	Bonus      float64 `json:"bonus,omitempty"`
	Multiplier float64 `json:"multiplier,omitempty"`
}

func (r VitalRule) applies(value float64) bool {
	switch r.Op {
	case OpGTE:
		return value >= r.Threshold
	case OpGT:
		return value > r.Threshold
	case OpLTE:
		return value <= r.Threshold
	case OpLT:
		return value < r.Threshold
	}
	return false
}

// DemographicRule scales a condition's score for an age band and
// optionally a gender. MaxAge zero means unbounded above; Gender empty
// means any.
type DemographicRule struct {
	MinAge     int     `json:"min_age"`
	MaxAge     int     `json:"max_age,omitempty"`
	Gender     string  `json:"gender,omitempty"`
	Multiplier float64 `json:"multiplier"`
}

func (r DemographicRule) applies(age int, gender string) bool {
	if age < r.MinAge {
		return false
	}
	if r.MaxAge > 0 && age > r.MaxAge {
		return false
	}
	if r.Gender != "" && r.Gender != gender {
		return false
	}
	return true
}

// ConditionDefinition is one knowledge-base entry. Immutable after load;
// updated only by deploying new knowledge-base data.
type ConditionDefinition struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	SymptomWeights    []SymptomWeight   `json:"symptom_weights"`
	VitalRules        []VitalRule       `json:"vital_rules,omitempty"`
	DemographicRules  []DemographicRule `json:"demographic_rules,omitempty"`
	DangerSigns       []string          `json:"danger_signs,omitempty"`
	Treatments        []string          `json:"treatments,omitempty"`
	ReferralThreshold float64           `json:"referral_threshold"`
	Chronic           bool              `json:"chronic,omitempty"`
}

func (d *ConditionDefinition) maxWeight() float64 {
	var sum float64
	for _, sw := range d.SymptomWeights {
		sum += sw.Weight
	}
	return sum
}

// SchemaVersion is the knowledge-base format this build understands.
const SchemaVersion = 1

// KnowledgeBase holds validated condition definitions in their load
// order. Definition order is the tie-break for equal confidences, so it
// is preserved exactly.
type KnowledgeBase struct {
	conditions []*ConditionDefinition
	byID       map[string]*ConditionDefinition
}

// NewKnowledgeBase validates definitions once at load time so scoring
// never has to re-check them.
func NewKnowledgeBase(schemaVersion int, defs []*ConditionDefinition) (*KnowledgeBase, error) {
	if schemaVersion != SchemaVersion {
		return nil, fmt.Errorf("unsupported knowledge base schema version %d (want %d)", schemaVersion, SchemaVersion)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("knowledge base has no condition definitions")
	}

	kb := &KnowledgeBase{
		conditions: make([]*ConditionDefinition, 0, len(defs)),
		byID:       make(map[string]*ConditionDefinition, len(defs)),
	}
	for i, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("condition %d: missing id", i)
		}
		if _, dup := kb.byID[d.ID]; dup {
			return nil, fmt.Errorf("condition %s: duplicate id", d.ID)
		}
		if len(d.SymptomWeights) == 0 {
			return nil, fmt.Errorf("condition %s: no symptom weights", d.ID)
		}
		for _, sw := range d.SymptomWeights {
			if sw.Symptom == "" || sw.Weight <= 0 {
				return nil, fmt.Errorf("condition %s: symptom %q must have a positive weight", d.ID, sw.Symptom)
			}
		}
		for _, r := range d.VitalRules {
			if !knownVitals[r.Vital] {
				return nil, fmt.Errorf("condition %s: unknown vital %q in rule", d.ID, r.Vital)
			}
			if !validOps[r.Op] {
				return nil, fmt.Errorf("condition %s: unknown operator %q in rule", d.ID, r.Op)
			}
			if r.Bonus == 0 && r.Multiplier == 0 {
				return nil, fmt.Errorf("condition %s: vital rule on %s adjusts nothing", d.ID, r.Vital)
			}
		}
		for _, r := range d.DemographicRules {
			if r.Multiplier <= 0 {
				return nil, fmt.Errorf("condition %s: demographic multiplier must be positive", d.ID)
			}
			if r.MaxAge > 0 && r.MaxAge < r.MinAge {
				return nil, fmt.Errorf("condition %s: demographic age band inverted", d.ID)
			}
		}
		if d.ReferralThreshold < 0 || d.ReferralThreshold > 1 {
			return nil, fmt.Errorf("condition %s: referral threshold %.2f outside [0,1]", d.ID, d.ReferralThreshold)
		}
		kb.conditions = append(kb.conditions, d)
		kb.byID[d.ID] = d
	}
	return kb, nil
}

// Conditions returns the definitions in load order.
func (kb *KnowledgeBase) Conditions() []*ConditionDefinition {
	return kb.conditions
}

// Condition returns one definition by id, or ErrUnknownCondition.
func (kb *KnowledgeBase) Condition(id string) (*ConditionDefinition, error) {
	d, ok := kb.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCondition, id)
	}
	return d, nil
}

// Len returns the number of loaded conditions.
func (kb *KnowledgeBase) Len() int { return len(kb.conditions) }
