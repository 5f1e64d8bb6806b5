package model

import "time"

// ResourceState is the persisted record of an applied resource.
type ResourceState struct {
	Stack     string
	URN       string
	Kind      Kind
	ID        string
	Outputs   map[string]string
	Seq       int // apply order within the stack
	CreatedAt time.Time
	UpdatedAt time.Time
}
