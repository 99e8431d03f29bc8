package assessment

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository for
// testing and single-node deployments.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*Assessment
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		items: make(map[string]*Assessment),
	}
}

// Create stores a new assessment.
func (r *InMemoryRepository) Create(ctx context.Context, a *Assessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *a
	r.items[a.ID] = &copied
	return nil
}

// GetByOperatorAndID retrieves an assessment scoped to an operator.
func (r *InMemoryRepository) GetByOperatorAndID(ctx context.Context, operatorID, id string) (*Assessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.items[id]
	if !ok || a.OperatorID != operatorID {
		return nil, ErrAssessmentNotFound
	}

	copied := *a
	return &copied, nil
}

// List retrieves assessments for an operator, newest first.
func (r *InMemoryRepository) List(ctx context.Context, operatorID string, opts ListOptions) (*ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	var cursor time.Time
	if opts.Cursor != "" {
		t, err := time.Parse(time.RFC3339Nano, opts.Cursor)
		if err != nil {
			return nil, err
		}
		cursor = t
	}

	var all []*Assessment
	for _, a := range r.items {
		if a.OperatorID != operatorID {
			continue
		}
		if !cursor.IsZero() && !a.CreatedAt.Before(cursor) {
			continue
		}
		all = append(all, a)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	result := &ListResult{}
	for i, a := range all {
		if i == limit {
			result.NextCursor = all[i-1].CreatedAt.Format(time.RFC3339Nano)
			break
		}
		copied := *a
		result.Items = append(result.Items, &copied)
	}

	return result, nil
}

// Delete removes an assessment scoped to an operator.
func (r *InMemoryRepository) Delete(ctx context.Context, operatorID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[id]
	if !ok || a.OperatorID != operatorID {
		return ErrAssessmentNotFound
	}

	delete(r.items, id)
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
