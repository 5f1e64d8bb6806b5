package inmem

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/yaegashi/botpressops/domain"
	"github.com/yaegashi/botpressops/domain/model"
)

// ResourceRepository is a thread-safe in-memory implementation.
type ResourceRepository struct {
	mu    sync.RWMutex
	items map[string]map[string]*model.ResourceState // stack -> urn -> state
}

func NewResourceRepository() *ResourceRepository {
	return &ResourceRepository{items: make(map[string]map[string]*model.ResourceState)}
}

func clone(s *model.ResourceState) *model.ResourceState {
	cp := *s
	cp.Outputs = maps.Clone(s.Outputs)
	return &cp
}

func (r *ResourceRepository) Get(_ context.Context, stack, urn string) (*model.ResourceState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.items[stack][urn]
	if !ok {
		return nil, model.ErrResourceStateNotFound
	}
	return clone(s), nil
}

func (r *ResourceRepository) List(_ context.Context, stack string) ([]*model.ResourceState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.ResourceState, 0, len(r.items[stack]))
	for _, s := range r.items[stack] {
		out = append(out, clone(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (r *ResourceRepository) Put(_ context.Context, s *model.ResourceState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byURN, ok := r.items[s.Stack]
	if !ok {
		byURN = make(map[string]*model.ResourceState)
		r.items[s.Stack] = byURN
	}
	cp := clone(s)
	now := time.Now()
	if prev, ok := byURN[s.URN]; ok {
		cp.CreatedAt = prev.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	byURN[s.URN] = cp
	return nil
}

func (r *ResourceRepository) Delete(_ context.Context, stack, urn string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[stack][urn]; !ok {
		return model.ErrResourceStateNotFound
	}
	delete(r.items[stack], urn)
	return nil
}

var _ domain.ResourceStateRepository = (*ResourceRepository)(nil)
