// internal/store/store.go
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/civbuilder/civdraft/internal/models"
)

// ErrNotFound is the distinguished "no such draft" outcome. Every
// implementation returns it for missing keys and for persisted content that
// cannot be decoded; callers match it with errors.Is and surface a typed
// "draft not found" event instead of crashing.
var ErrNotFound = errors.New("draft not found")

// DraftStore is durable keyed storage for draft aggregates. Get and Put are
// total: no lookup ever panics or returns a nil draft without ErrNotFound.
type DraftStore interface {
	Get(ctx context.Context, id string) (*models.Draft, error)
	Put(ctx context.Context, draft *models.Draft) error
	Delete(ctx context.Context, id string) error
}

// wellFormed reports whether a decoded draft satisfies the structural
// invariants the engine divides and indexes by: at least one seat, one
// player per seat, and a full seating order once picking has begun.
// Normalization repairs per-player fields; a draft that fails these checks
// is not repairable and is treated as missing.
func wellFormed(d *models.Draft) bool {
	if d.Preset.Slots < 1 || len(d.Players) != d.Preset.Slots {
		return false
	}
	if d.Gamestate.Phase == models.PhasePicking && len(d.Gamestate.Order) != d.Preset.Slots {
		return false
	}
	return true
}

// MemoryStore keeps drafts in a map. Used in tests and single-node
// deployments that accept losing sessions on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[string]*models.Draft
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[string]*models.Draft)}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

func (s *MemoryStore) Put(ctx context.Context, draft *models.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[draft.ID] = draft
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, id)
	return nil
}
