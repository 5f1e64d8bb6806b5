package domain

import (
	"context"

	"github.com/yaegashi/botpressops/domain/model"
)

// ResourceStateRepository persists what the engine applied, per stack.
// Get returns model.ErrResourceStateNotFound when no record exists.
type ResourceStateRepository interface {
	Get(ctx context.Context, stack, urn string) (*model.ResourceState, error)
	// List returns the records of a stack ordered by Seq.
	List(ctx context.Context, stack string) ([]*model.ResourceState, error)
	// Put creates or replaces a record.
	Put(ctx context.Context, st *model.ResourceState) error
	Delete(ctx context.Context, stack, urn string) error
}
