package clock

import (
	"testing"
	"time"
)

func TestSystem_NowIsUTC(t *testing.T) {
	now := System{}.Now()
	if now.Location() != time.UTC {
		t.Errorf("expected UTC time, got %v", now.Location())
	}
}

func TestFake_AdvanceAndSet(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := NewFake(base)

	if !f.Now().Equal(base) {
		t.Errorf("expected %v, got %v", base, f.Now())
	}

	f.Advance(2 * time.Hour)
	if !f.Now().Equal(base.Add(2 * time.Hour)) {
		t.Errorf("expected clock advanced by 2h, got %v", f.Now())
	}

	target := base.Add(48 * time.Hour)
	f.Set(target)
	if !f.Now().Equal(target) {
		t.Errorf("expected %v, got %v", target, f.Now())
	}
}
