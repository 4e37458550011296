package consultation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/caregate/caregate/internal/domain/grants"
	"github.com/caregate/caregate/internal/domain/triage"
	"github.com/caregate/caregate/internal/platform/clock"
)

type mockAudit struct {
	mu      sync.Mutex
	entries []string
}

func (m *mockAudit) Record(_ context.Context, _, action, _, outcome, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, action+":"+outcome)
	return nil
}

func (m *mockAudit) count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e == key {
			n++
		}
	}
	return n
}

type fixture struct {
	svc    *Service
	repo   *MemoryRepository
	grants *grants.Service
	aud    *mockAudit
	clk    *clock.Fake
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	kb, err := triage.NewKnowledgeBase(triage.SchemaVersion, []*triage.ConditionDefinition{
		{
			ID:   "malaria",
			Name: "Malaria",
			SymptomWeights: []triage.SymptomWeight{
				{Symptom: "fever", Weight: 0.4},
				{Symptom: "chills", Weight: 0.3},
				{Symptom: "headache", Weight: 0.2},
			},
			VitalRules: []triage.VitalRule{
				{Vital: triage.VitalTemperature, Op: triage.OpGTE, Threshold: 39.0, Bonus: 0.1},
			},
			ReferralThreshold: 0.7,
		},
	})
	if err != nil {
		t.Fatalf("building knowledge base: %v", err)
	}

	clk := clock.NewFake(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	aud := &mockAudit{}
	grantSvc := grants.NewService(grants.NewMemoryStore(), aud, clk, zerolog.Nop(), time.Hour, 168*time.Hour)
	repo := NewMemoryRepository()
	svc := NewService(repo, triage.NewEngine(kb, zerolog.Nop()), grantSvc, aud, clk, zerolog.Nop())
	return &fixture{svc: svc, repo: repo, grants: grantSvc, aud: aud, clk: clk}
}

func TestSubmit_SelfWithoutGrant(t *testing.T) {
	f := newFixture(t)

	c, err := f.svc.Submit(context.Background(), "P1", SubmitRequest{
		Observation: triage.Observation{
			Age:      34,
			Symptoms: []string{"fever", "chills", "headache"},
			Vitals:   map[string]float64{triage.VitalTemperature: 39.2},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.OwnerID != "P1" || c.ProviderID != "P1" {
		t.Errorf("expected self-submission, got owner=%s provider=%s", c.OwnerID, c.ProviderID)
	}
	if c.Result.Urgency != triage.UrgencyUrgent {
		t.Errorf("expected URGENT, got %s", c.Result.Urgency)
	}
	if n := f.aud.count("DIAGNOSIS_RUN:SUCCESS"); n != 1 {
		t.Errorf("expected 1 DIAGNOSIS_RUN entry, got %d", n)
	}
}

func TestSubmit_SelfCannotNameAnotherOwner(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), "P1", SubmitRequest{
		OwnerID:     "P2",
		Observation: triage.Observation{Symptoms: []string{"fever"}},
	})
	if !errors.Is(err, grants.ErrAccessDenied) {
		t.Errorf("expected ErrAccessDenied, got %v", err)
	}
}

func TestSubmit_ProviderWithGrant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, err := f.grants.Issue(ctx, "P1", []string{"create_consultation"}, 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, err := f.svc.Submit(ctx, "DR9", SubmitRequest{
		GrantID:     g.ID,
		Observation: triage.Observation{Age: 34, Symptoms: []string{"fever"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.OwnerID != "P1" || c.ProviderID != "DR9" {
		t.Errorf("expected owner from grant, got owner=%s provider=%s", c.OwnerID, c.ProviderID)
	}
	if c.GrantID != g.ID {
		t.Error("expected grant id recorded on consultation")
	}
}

func TestSubmit_GrantWithoutCreatePermission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, _ := f.grants.Issue(ctx, "P1", []string{"basic_info"}, 24)

	_, err := f.svc.Submit(ctx, "DR9", SubmitRequest{
		GrantID:     g.ID,
		Observation: triage.Observation{Symptoms: []string{"fever"}},
	})
	if !errors.Is(err, grants.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if n := f.aud.count("DIAGNOSIS_RUN:DENIED"); n != 1 {
		t.Errorf("expected denied run to be audited, got %d entries", n)
	}
}

func TestSubmit_RevokedGrant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, _ := f.grants.Issue(ctx, "P1", []string{"create_consultation"}, 24)
	f.grants.Revoke(ctx, g.ID, "P1")

	_, err := f.svc.Submit(ctx, "DR9", SubmitRequest{
		GrantID:     g.ID,
		Observation: triage.Observation{Symptoms: []string{"fever"}},
	})
	if !errors.Is(err, grants.ErrAccessDenied) {
		t.Errorf("expected ErrAccessDenied, got %v", err)
	}
}

func TestSubmit_InvalidObservation(t *testing.T) {
	f := newFixture(t)

	cases := []triage.Observation{
		{Age: -1},
		{Age: 200},
		{Gender: "unknown"},
		{Vitals: map[string]float64{"temperature": -2}},
	}
	for _, obs := range cases {
		if _, err := f.svc.Submit(context.Background(), "P1", SubmitRequest{Observation: obs}); !errors.Is(err, ErrInvalidObservation) {
			t.Errorf("observation %+v: expected ErrInvalidObservation, got %v", obs, err)
		}
	}
}

func TestGetByID_GrantScopedToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, _ := f.svc.Submit(ctx, "P1", SubmitRequest{
		Observation: triage.Observation{Symptoms: []string{"fever"}},
	})

	// A grant from a different owner never opens P1's consultation.
	other, _ := f.grants.Issue(ctx, "P2", []string{"consultations"}, 24)
	if _, err := f.svc.GetByID(ctx, "DR9", other.ID, c.ID); !errors.Is(err, grants.ErrAccessDenied) {
		t.Errorf("expected ErrAccessDenied, got %v", err)
	}

	g, _ := f.grants.Issue(ctx, "P1", []string{"consultations"}, 24)
	got, err := f.svc.GetByID(ctx, "DR9", g.ID, c.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != c.ID {
		t.Error("expected same consultation back")
	}
}

func TestListByOwner_WithGrant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.Submit(ctx, "P1", SubmitRequest{Observation: triage.Observation{Symptoms: []string{"fever"}}})
	f.clk.Advance(time.Minute)
	f.svc.Submit(ctx, "P1", SubmitRequest{Observation: triage.Observation{Symptoms: []string{"chills"}}})
	f.svc.Submit(ctx, "P2", SubmitRequest{Observation: triage.Observation{Symptoms: []string{"fever"}}})

	g, _ := f.grants.Issue(ctx, "P1", []string{"consultations"}, 24)
	items, total, err := f.svc.ListByOwner(ctx, "DR9", g.ID, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("expected 2 consultations for P1, got %d", total)
	}
	for _, c := range items {
		if c.OwnerID != "P1" {
			t.Errorf("leaked consultation for owner %s", c.OwnerID)
		}
	}
}

func TestListByOwner_SelfWithoutGrant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.Submit(ctx, "P1", SubmitRequest{Observation: triage.Observation{Symptoms: []string{"fever"}}})

	items, total, err := f.svc.ListByOwner(ctx, "P1", "", 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || items[0].OwnerID != "P1" {
		t.Errorf("expected own consultation, got total=%d", total)
	}
}
