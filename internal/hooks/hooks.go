// Package hooks provides an ordered pipeline of named interceptors.
//
// The host platform's extension points are modeled as explicit chains: each
// interceptor has a name and a priority, and Apply runs them in ascending
// priority order (registration order breaks ties). The set of interceptors
// and their order is inspectable, so wiring is testable rather than implicit.
package hooks

import (
	"context"
	"sort"
)

// Interceptor transforms a value of type T. Interceptors must be total:
// they return their input unchanged when they decline to act.
type Interceptor[T any] func(ctx context.Context, v T) T

type entry[T any] struct {
	name     string
	priority int
	seq      int
	fn       Interceptor[T]
}

// Chain is an ordered pipeline of interceptors over values of type T.
// Register all interceptors at startup; Apply is safe for concurrent use
// once registration is complete. Register keeps the chain sorted, so
// concurrent Apply calls only read it.
type Chain[T any] struct {
	entries []entry[T]
}

// NewChain returns an empty chain.
func NewChain[T any]() *Chain[T] {
	return &Chain[T]{}
}

// Register adds a named interceptor at the given priority.
func (c *Chain[T]) Register(name string, priority int, fn Interceptor[T]) {
	c.entries = append(c.entries, entry[T]{
		name:     name,
		priority: priority,
		seq:      len(c.entries),
		fn:       fn,
	})
	sort.SliceStable(c.entries, func(i, j int) bool {
		if c.entries[i].priority != c.entries[j].priority {
			return c.entries[i].priority < c.entries[j].priority
		}
		return c.entries[i].seq < c.entries[j].seq
	})
}

// Apply runs the value through every interceptor in order.
func (c *Chain[T]) Apply(ctx context.Context, v T) T {
	for _, e := range c.entries {
		v = e.fn(ctx, v)
	}
	return v
}

// Names returns the interceptor names in execution order.
func (c *Chain[T]) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.name
	}
	return names
}

// Len returns the number of registered interceptors.
func (c *Chain[T]) Len() int {
	return len(c.entries)
}
