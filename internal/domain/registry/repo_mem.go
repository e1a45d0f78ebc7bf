package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// repoMem is the in-memory patient store used when the server runs
// without Postgres. Insertion order is preserved for listing.
type repoMem struct {
	mu       sync.RWMutex
	patients map[string]*Patient
	order    []string
}

func NewMemRepo() Repository {
	return &repoMem{patients: make(map[string]*Patient)}
}

func (r *repoMem) Upsert(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	existing, ok := r.patients[p.MRNumber]
	if ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
		r.order = append(r.order, p.MRNumber)
	}
	p.UpdatedAt = now

	stored := *p
	r.patients[p.MRNumber] = &stored
	return nil
}

func (r *repoMem) GetByMRN(_ context.Context, mrNumber string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[mrNumber]
	if !ok {
		return nil, fmt.Errorf("patient %s not found", mrNumber)
	}
	copy := *p
	return &copy, nil
}

func (r *repoMem) Search(_ context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(query)
	var matched []*Patient
	for _, mrn := range r.order {
		p := r.patients[mrn]
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Phone), q) ||
			strings.Contains(strings.ToLower(p.MRNumber), q) {
			copy := *p
			matched = append(matched, &copy)
		}
	}
	return window(matched, limit, offset), len(matched), nil
}

func (r *repoMem) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*Patient, 0, len(r.order))
	for _, mrn := range r.order {
		copy := *r.patients[mrn]
		all = append(all, &copy)
	}
	return window(all, limit, offset), len(all), nil
}

func window(ps []*Patient, limit, offset int) []*Patient {
	if offset >= len(ps) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(ps) {
		end = len(ps)
	}
	return ps[offset:end]
}
