package triage

import (
	"reflect"
	"testing"
)

func TestClassify_TemperatureDangerSign(t *testing.T) {
	e := testEngine(t)

	obs := Observation{
		Age:      34,
		Symptoms: []string{"fever", "chills", "headache"},
		Vitals:   map[string]float64{VitalTemperature: 39.2},
	}
	res := e.Run(obs)

	if res.Urgency != UrgencyUrgent {
		t.Errorf("expected URGENT, got %s", res.Urgency)
	}
	if !res.ReferralNeeded {
		t.Error("expected referral")
	}
	if !res.FollowUpRequired {
		t.Error("expected follow-up")
	}
	found := false
	for _, ds := range res.DangerSigns {
		if ds == "temperature>=39" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected temperature danger sign, got %v", res.DangerSigns)
	}
}

func TestClassify_EmergencyOnlyViaDangerSigns(t *testing.T) {
	e := testEngine(t)

	// Perfect-confidence match with no danger signs caps at URGENT.
	res := e.Run(Observation{Symptoms: []string{"fever", "chills", "headache"}})
	if res.Urgency != UrgencyUrgent {
		t.Errorf("expected URGENT from confidence alone, got %s", res.Urgency)
	}

	// A vital extreme escalates to EMERGENCY.
	res = e.Run(Observation{
		Symptoms: []string{"fever", "chills", "headache"},
		Vitals:   map[string]float64{VitalOxygenSaturation: 85},
	})
	if res.Urgency != UrgencyEmergency {
		t.Errorf("expected EMERGENCY with SpO2 85, got %s", res.Urgency)
	}
}

func TestClassify_SymptomDangerSigns(t *testing.T) {
	e := testEngine(t)

	cases := []struct {
		symptom string
		want    Urgency
	}{
		{"respiratory_distress", UrgencyEmergency},
		{"unconsciousness", UrgencyEmergency},
		{"severe_bleeding", UrgencyEmergency},
		{"chest_pain", UrgencyUrgent},
		{"stiff_neck", UrgencyUrgent},
	}
	for _, tc := range cases {
		res := e.Run(Observation{Symptoms: []string{tc.symptom}})
		if res.Urgency != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.symptom, tc.want, res.Urgency)
		}
	}
}

func TestClassify_ConditionDangerSign(t *testing.T) {
	e := testEngine(t)

	// Convulsions is a fixed danger sign (EMERGENCY) and also listed on
	// the malaria definition; the higher floor wins.
	res := e.Run(Observation{Symptoms: []string{"fever", "convulsions"}})
	if res.Urgency != UrgencyEmergency {
		t.Errorf("expected EMERGENCY, got %s", res.Urgency)
	}
}

func TestClassify_DangerSignMonotonicity(t *testing.T) {
	e := testEngine(t)

	base := []string{"headache"}
	without := e.Run(Observation{Symptoms: base})

	for symptom := range symptomDangerSigns {
		with := e.Run(Observation{Symptoms: append([]string{symptom}, base...)})
		if urgencyRank[with.Urgency] < urgencyRank[without.Urgency] {
			t.Errorf("adding %s decreased urgency from %s to %s", symptom, without.Urgency, with.Urgency)
		}
	}
}

func TestClassify_InsufficientInformation(t *testing.T) {
	e := testEngine(t)

	res := e.Run(Observation{})
	if res.Urgency != UrgencyNonUrgent {
		t.Errorf("expected NON_URGENT, got %s", res.Urgency)
	}
	if res.Note != noteInsufficientInformation {
		t.Errorf("expected insufficient information note, got %q", res.Note)
	}
	if res.ReferralNeeded || res.FollowUpRequired {
		t.Error("expected no referral or follow-up")
	}
}

func TestClassify_ChronicConditionForcesFollowUp(t *testing.T) {
	e := testEngine(t)

	// Dizziness alone scores hypertension at 0.5 with no danger signs:
	// LESS_URGENT, but the chronic flag still forces follow-up.
	res := e.Run(Observation{Age: 30, Symptoms: []string{"dizziness"}})
	if res.Urgency == UrgencyNonUrgent && !res.FollowUpRequired {
		t.Error("expected follow-up for chronic condition match")
	}
	if !res.FollowUpRequired {
		t.Error("expected follow-up")
	}
}

func TestClassify_Deterministic(t *testing.T) {
	e := testEngine(t)
	obs := Observation{
		Age:      70,
		Symptoms: []string{"headache", "dizziness", "chest_pain"},
		Vitals:   map[string]float64{VitalSystolicBP: 185, VitalHeartRate: 135},
	}

	first := e.Run(obs)
	for i := 0; i < 5; i++ {
		if got := e.Run(obs); !reflect.DeepEqual(first, got) {
			t.Fatalf("run %d differed from first run", i)
		}
	}
}
