package triage

import "sort"

// Danger signs are a fixed table evaluated independently of condition
// matching. Each carries an urgency floor; the final urgency can never
// fall below a triggered floor.
var symptomDangerSigns = map[string]Urgency{
	"respiratory_distress": UrgencyEmergency,
	"unconsciousness":      UrgencyEmergency,
	"convulsions":          UrgencyEmergency,
	"severe_bleeding":      UrgencyEmergency,
	"chest_pain":           UrgencyUrgent,
	"severe_dehydration":   UrgencyUrgent,
	"stiff_neck":           UrgencyUrgent,
}

type vitalDangerSign struct {
	vital string
	op    string
	value float64
	floor Urgency
	label string
}

var vitalDangerSigns = []vitalDangerSign{
	{VitalOxygenSaturation, OpLT, 90, UrgencyEmergency, "oxygen_saturation<90"},
	{VitalTemperature, OpGT, 40, UrgencyEmergency, "temperature>40"},
	{VitalTemperature, OpLT, 35, UrgencyEmergency, "temperature<35"},
	{VitalSystolicBP, OpGT, 180, UrgencyEmergency, "systolic_bp>180"},
	{VitalSystolicBP, OpLT, 90, UrgencyEmergency, "systolic_bp<90"},
	{VitalTemperature, OpGTE, 39, UrgencyUrgent, "temperature>=39"},
	{VitalHeartRate, OpGT, 130, UrgencyUrgent, "heart_rate>130"},
	{VitalHeartRate, OpLT, 40, UrgencyUrgent, "heart_rate<40"},
	{VitalRespiratoryRate, OpGT, 30, UrgencyUrgent, "respiratory_rate>30"},
}

const noteInsufficientInformation = "insufficient information"

// Classify derives the triage result from an observation and its
// condition matches. Pure and deterministic: identical inputs always
// produce an identical result, and EMERGENCY is reachable only through
// a triggered danger sign, never through confidence alone.
func (e *Engine) Classify(obs Observation, matches []ConditionMatch) TriageResult {
	symptoms := obs.SymptomSet()

	urgency := UrgencyNonUrgent
	dangerSet := make(map[string]bool)

	for symptom, floor := range symptomDangerSigns {
		if symptoms[symptom] {
			urgency = maxUrgency(urgency, floor)
			dangerSet[symptom] = true
		}
	}
	for _, ds := range vitalDangerSigns {
		value, present := obs.Vitals[ds.vital]
		if present && (VitalRule{Vital: ds.vital, Op: ds.op, Threshold: ds.value}).applies(value) {
			urgency = maxUrgency(urgency, ds.floor)
			dangerSet[ds.label] = true
		}
	}
	for _, m := range matches {
		for _, ds := range m.DangerSigns {
			urgency = maxUrgency(urgency, UrgencyUrgent)
			dangerSet[ds] = true
		}
	}

	// Confidence-derived urgency caps at URGENT.
	if len(matches) > 0 {
		top := matches[0]
		switch {
		case top.Referral:
			urgency = maxUrgency(urgency, UrgencyUrgent)
		case top.Confidence >= 0.5:
			urgency = maxUrgency(urgency, UrgencyLessUrgent)
		}
	}

	danger := make([]string, 0, len(dangerSet))
	for ds := range dangerSet {
		danger = append(danger, ds)
	}
	sort.Strings(danger)

	referral := urgency == UrgencyEmergency || urgency == UrgencyUrgent
	if !referral && len(matches) > 0 && matches[0].Referral {
		referral = true
	}

	followUp := urgency != UrgencyNonUrgent
	if !followUp {
		for _, m := range matches {
			if m.Chronic {
				followUp = true
				break
			}
		}
	}

	result := TriageResult{
		Urgency:          urgency,
		Matches:          matches,
		DangerSigns:      danger,
		ReferralNeeded:   referral,
		FollowUpRequired: followUp,
	}
	if len(matches) == 0 && len(danger) == 0 {
		result.Note = noteInsufficientInformation
	}
	return result
}

// Run scores and classifies in one call.
func (e *Engine) Run(obs Observation) TriageResult {
	return e.Classify(obs, e.Score(obs))
}
