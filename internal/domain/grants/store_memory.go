package grants

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and single-process
// deployments. A single mutex per store is enough at this scale; the
// Store contract only requires per-grant atomicity.
type MemoryStore struct {
	mu     sync.RWMutex
	grants map[string]*AccessGrant
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{grants: make(map[string]*AccessGrant)}
}

func (s *MemoryStore) Create(_ context.Context, g *AccessGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.grants[g.ID]; ok {
		return fmt.Errorf("grant %s already exists", g.ID)
	}
	s.grants[g.ID] = copyGrant(g)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*AccessGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grants[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyGrant(g), nil
}

func (s *MemoryStore) ListByOwner(_ context.Context, ownerID string) ([]*AccessGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*AccessGrant
	for _, g := range s.grants {
		if g.OwnerID != ownerID {
			continue
		}
		cp := copyGrant(g)
		cp.Redemptions = nil
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].IssuedAt.Equal(out[j].IssuedAt) {
			return out[i].IssuedAt.After(out[j].IssuedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) AppendRedemption(_ context.Context, grantID string, r Redemption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[grantID]
	if !ok {
		return ErrNotFound
	}
	if g.Revoked {
		return ErrStorageConflict
	}
	g.Redemptions = append(g.Redemptions, r)
	return nil
}

func (s *MemoryStore) SetRevoked(_ context.Context, grantID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[grantID]
	if !ok {
		return false, ErrNotFound
	}
	if g.Revoked {
		return false, nil
	}
	g.Revoked = true
	t := at
	g.RevokedAt = &t
	return true, nil
}

func copyGrant(g *AccessGrant) *AccessGrant {
	cp := *g
	cp.Permissions = append([]Permission(nil), g.Permissions...)
	cp.Redemptions = append([]Redemption(nil), g.Redemptions...)
	if g.RevokedAt != nil {
		t := *g.RevokedAt
		cp.RevokedAt = &t
	}
	return &cp
}
