package triage

import (
	"sort"

	"github.com/rs/zerolog"
)

// Engine scores observations against the knowledge base and classifies
// the results. It is stateless apart from the immutable knowledge base,
// so it is safe for unlimited concurrent use.
type Engine struct {
	kb  *KnowledgeBase
	log zerolog.Logger
}

func NewEngine(kb *KnowledgeBase, log zerolog.Logger) *Engine {
	return &Engine{kb: kb, log: log}
}

// Score matches the observation against every condition definition and
// returns matches ordered by descending confidence, ties broken by
// definition order. Conditions with no matched symptoms are omitted.
// An observation with no symptoms yields an empty list, not an error.
func (e *Engine) Score(obs Observation) []ConditionMatch {
	symptoms := obs.SymptomSet()

	for key := range obs.Vitals {
		if !knownVitals[key] {
			e.log.Warn().Str("vital", key).Msg("ignoring unknown vital sign key")
		}
	}

	var matches []ConditionMatch
	for _, def := range e.kb.Conditions() {
		m, ok := e.scoreCondition(def, obs, symptoms)
		if ok {
			matches = append(matches, m)
		}
	}

	// Stable sort preserves definition order among equal confidences.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

func (e *Engine) scoreCondition(def *ConditionDefinition, obs Observation, symptoms map[string]bool) (ConditionMatch, bool) {
	var raw float64
	var matched []string
	for _, sw := range def.SymptomWeights {
		if symptoms[sw.Symptom] {
			raw += sw.Weight
			matched = append(matched, sw.Symptom)
		}
	}
	if len(matched) == 0 {
		return ConditionMatch{}, false
	}

	confidence := clamp01(raw / def.maxWeight())

	for _, rule := range def.VitalRules {
		value, present := obs.Vitals[rule.Vital]
		if !present || !rule.applies(value) {
			continue
		}
		confidence += rule.Bonus
		if rule.Multiplier != 0 {
			confidence *= rule.Multiplier
		}
	}
	confidence = clamp01(confidence)

	for _, rule := range def.DemographicRules {
		if rule.applies(obs.Age, obs.Gender) {
			confidence *= rule.Multiplier
		}
	}
	confidence = clamp01(confidence)

	var danger []string
	for _, ds := range def.DangerSigns {
		if symptoms[ds] {
			danger = append(danger, ds)
		}
	}

	return ConditionMatch{
		ConditionID:     def.ID,
		Name:            def.Name,
		Confidence:      confidence,
		MatchedSymptoms: matched,
		DangerSigns:     danger,
		Referral:        confidence >= def.ReferralThreshold,
		Chronic:         def.Chronic,
	}, true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
