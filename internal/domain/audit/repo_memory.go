package audit

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryLedger is an in-memory Ledger for tests and single-process
// deployments. Safe for concurrent use; appends never block readers of
// other subjects.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries []*Entry
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (l *MemoryLedger) Append(_ context.Context, e *Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	cp := *e
	l.entries = append(l.entries, &cp)
	return nil
}

func (l *MemoryLedger) ListBySubject(_ context.Context, subjectID string, limit, offset int) ([]*Entry, int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var matched []*Entry
	for _, e := range l.entries {
		if e.SubjectID == subjectID {
			cp := *e
			matched = append(matched, &cp)
		}
	}

	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return matched[offset:end], total, nil
}
