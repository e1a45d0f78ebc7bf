package visit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// repoMem is the in-memory visit store. It preserves creation order and
// returns clones so callers cannot bypass the Service's serialization.
type repoMem struct {
	mu     sync.RWMutex
	visits map[uuid.UUID]*Visit
	order  []uuid.UUID
}

func NewMemRepo() Repository {
	return &repoMem{visits: make(map[uuid.UUID]*Visit)}
}

func (r *repoMem) Create(_ context.Context, v *Visit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	r.visits[v.ID] = v.Clone()
	r.order = append(r.order, v.ID)
	return nil
}

func (r *repoMem) GetByID(_ context.Context, id uuid.UUID) (*Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.visits[id]
	if !ok {
		return nil, fmt.Errorf("%w: visit %s", ErrNotFound, id)
	}
	return v.Clone(), nil
}

func (r *repoMem) Update(_ context.Context, v *Visit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.visits[v.ID]; !ok {
		return fmt.Errorf("%w: visit %s", ErrNotFound, v.ID)
	}
	v.UpdatedAt = time.Now().UTC()
	r.visits[v.ID] = v.Clone()
	return nil
}

func (r *repoMem) List(_ context.Context) ([]*Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*Visit, 0, len(r.order))
	for _, id := range r.order {
		all = append(all, r.visits[id].Clone())
	}
	return all, nil
}

func (r *repoMem) ListByPatient(_ context.Context, mrNumber string) ([]*Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Visit
	for _, id := range r.order {
		if r.visits[id].MRNumber == mrNumber {
			result = append(result, r.visits[id].Clone())
		}
	}
	return result, nil
}
