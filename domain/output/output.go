// Package output models deferred values: values that become known only after
// the resource producing them has been applied.
//
// An Output never blocks. Reading it reports whether the value is resolved,
// and every transformation (Apply, Sprintf, All) yields another Output that
// stays pending until all of its sources resolve. Each Output remembers the
// URNs of the resources it derives from so that consumers can infer graph edges.
package output

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrPending is returned by Value when an output is not yet resolved.
var ErrPending = errors.New("output is pending")

// Input is the type-erased view of an Output used for dependency inference.
type Input interface {
	Deps() []string
	Resolved() bool
	resolveAny() (any, bool)
}

// Output is a deferred value of type T. The zero value is pending forever.
type Output[T any] struct {
	get  func() (T, bool)
	deps []string
}

// Of returns an already resolved output with no dependencies.
func Of[T any](v T) Output[T] {
	return Output[T]{get: func() (T, bool) { return v, true }}
}

// Get returns the value and whether it is resolved.
func (o Output[T]) Get() (T, bool) {
	if o.get == nil {
		var zero T
		return zero, false
	}
	return o.get()
}

// Value returns the value or ErrPending.
func (o Output[T]) Value() (T, error) {
	v, ok := o.Get()
	if !ok {
		return v, ErrPending
	}
	return v, nil
}

// Resolved reports whether the value is known.
func (o Output[T]) Resolved() bool {
	_, ok := o.Get()
	return ok
}

// Or returns the value if resolved, otherwise fallback.
func (o Output[T]) Or(fallback T) T {
	if v, ok := o.Get(); ok {
		return v
	}
	return fallback
}

// Deps returns the URNs of the resources this output derives from.
func (o Output[T]) Deps() []string { return slices.Clone(o.deps) }

func (o Output[T]) resolveAny() (any, bool) { return o.Get() }

// String implements fmt.Stringer for logs; it never forces resolution.
func (o Output[T]) String() string {
	if v, ok := o.Get(); ok {
		return fmt.Sprint(v)
	}
	return "<pending>"
}

// Apply transforms an output. fn runs only once the source is resolved and
// must be pure since it may run on every read.
func Apply[T, U any](o Output[T], fn func(T) U) Output[U] {
	return Output[U]{
		deps: o.deps,
		get: func() (U, bool) {
			v, ok := o.Get()
			if !ok {
				var zero U
				return zero, false
			}
			return fn(v), true
		},
	}
}

// Apply2 combines two outputs.
func Apply2[A, B, U any](a Output[A], b Output[B], fn func(A, B) U) Output[U] {
	return Output[U]{
		deps: mergeDeps(a.deps, b.deps),
		get: func() (U, bool) {
			va, ok := a.Get()
			if !ok {
				var zero U
				return zero, false
			}
			vb, ok := b.Get()
			if !ok {
				var zero U
				return zero, false
			}
			return fn(va, vb), true
		},
	}
}

// All resolves once every input has resolved, yielding their values in order.
func All(in ...Input) Output[[]any] {
	var deps []string
	for _, i := range in {
		deps = mergeDeps(deps, i.Deps())
	}
	return Output[[]any]{
		deps: deps,
		get: func() ([]any, bool) {
			vals := make([]any, len(in))
			for n, i := range in {
				v, ok := i.resolveAny()
				if !ok {
					return nil, false
				}
				vals[n] = v
			}
			return vals, true
		},
	}
}

// Sprintf formats like fmt.Sprintf. Arguments implementing Input are
// substituted by their resolved values; the result is pending until all are.
func Sprintf(format string, args ...any) Output[string] {
	var inputs []Input
	for _, a := range args {
		if i, ok := a.(Input); ok {
			inputs = append(inputs, i)
		}
	}
	all := All(inputs...)
	return Apply(all, func(vals []any) string {
		resolved := make([]any, len(args))
		n := 0
		for k, a := range args {
			if _, ok := a.(Input); ok {
				resolved[k] = vals[n]
				n++
				continue
			}
			resolved[k] = a
		}
		return fmt.Sprintf(format, resolved...)
	})
}

// Pending reports the inputs that are not resolved yet.
func Pending(in ...Input) []Input {
	var out []Input
	for _, i := range in {
		if i != nil && !i.Resolved() {
			out = append(out, i)
		}
	}
	return out
}

func mergeDeps(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	out := slices.Clone(a)
	for _, d := range b {
		if !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	return out
}

// Cell is the write side of an output owned by one resource. The engine
// resolves it after applying that resource. Cells are safe for concurrent use.
type Cell[T any] struct {
	mu  sync.RWMutex
	urn string
	v   T
	ok  bool
}

// NewCell returns an unresolved cell owned by the resource urn.
func NewCell[T any](urn string) *Cell[T] {
	return &Cell[T]{urn: urn}
}

// Resolve sets the value. Later calls overwrite it.
func (c *Cell[T]) Resolve(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v, c.ok = v, true
}

// Reset returns the cell to the pending state.
func (c *Cell[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	c.v, c.ok = zero, false
}

func (c *Cell[T]) load() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v, c.ok
}

// Output returns the read side, depending on the owning resource.
func (c *Cell[T]) Output() Output[T] {
	return Output[T]{get: c.load, deps: []string{c.urn}}
}
