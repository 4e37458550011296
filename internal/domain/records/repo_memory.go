package records

import (
	"context"
	"sort"
	"sync"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]map[string]*Section
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]map[string]*Section)}
}

func (r *MemoryRepository) Upsert(_ context.Context, s *Section) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byOwner, ok := r.items[s.OwnerID]
	if !ok {
		byOwner = make(map[string]*Section)
		r.items[s.OwnerID] = byOwner
	}
	cp := *s
	byOwner[s.Section] = &cp
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, ownerID, section string) (*Section, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.items[ownerID][section]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *MemoryRepository) ListByOwner(_ context.Context, ownerID string) ([]*Section, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Section
	for _, s := range r.items[ownerID] {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Section < out[j].Section })
	return out, nil
}
