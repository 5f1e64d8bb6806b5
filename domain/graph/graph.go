// Package graph holds the declared resources and the edges between them.
//
// Edges come from two sources: explicit dependencies passed to Add and
// implicit ones derived from the deferred inputs of a resource. A resource may
// only depend on resources declared before it.
package graph

import (
	"fmt"
	"slices"

	"github.com/yaegashi/botpressops/domain/model"
)

// Node is a declared resource and the URNs it depends on.
type Node struct {
	URN       string
	Resource  model.Resource
	DependsOn []string
	index     int
}

// Kind returns the kind of the node's resource.
func (n *Node) Kind() model.Kind { return n.Resource.Metadata().Kind() }

// Graph is an append-only resource graph.
type Graph struct {
	nodes []*Node
	byURN map[string]*Node
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{byURN: map[string]*Node{}}
}

// Add declares res. Dependencies are the union of dependsOn and the URNs
// referenced by res.Inputs().
func (g *Graph) Add(res model.Resource, dependsOn ...model.Resource) (*Node, error) {
	urn := res.Metadata().URN()
	if _, exists := g.byURN[urn]; exists {
		return nil, fmt.Errorf("add %s: %w", urn, model.ErrDuplicateResource)
	}

	var deps []string
	add := func(d string) error {
		if d == urn || slices.Contains(deps, d) {
			return nil
		}
		if _, ok := g.byURN[d]; !ok {
			return fmt.Errorf("add %s: depends on %s: %w", urn, d, model.ErrUnknownDependency)
		}
		deps = append(deps, d)
		return nil
	}
	for _, d := range dependsOn {
		if d == nil {
			continue
		}
		if err := add(d.Metadata().URN()); err != nil {
			return nil, err
		}
	}
	for _, in := range res.Inputs() {
		for _, d := range in.Deps() {
			if err := add(d); err != nil {
				return nil, err
			}
		}
	}

	n := &Node{URN: urn, Resource: res, DependsOn: deps, index: len(g.nodes)}
	g.nodes = append(g.nodes, n)
	g.byURN[urn] = n
	return n, nil
}

// Has reports whether urn is declared.
func (g *Graph) Has(urn string) bool {
	_, ok := g.byURN[urn]
	return ok
}

// Node returns the node for urn.
func (g *Graph) Node(urn string) (*Node, bool) {
	n, ok := g.byURN[urn]
	return n, ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Nodes returns the nodes in declaration order.
func (g *Graph) Nodes() []*Node { return slices.Clone(g.nodes) }

// OfKind returns the nodes of the given kind in declaration order.
func (g *Graph) OfKind(kind model.Kind) []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if n.Kind() == kind {
			out = append(out, n)
		}
	}
	return out
}

// Sorted returns a topological order. Among ready nodes the one declared
// first wins, so the order is stable across runs.
func (g *Graph) Sorted() ([]*Node, error) {
	indeg := make(map[string]int, len(g.nodes))
	children := make(map[string][]*Node, len(g.nodes))
	for _, n := range g.nodes {
		indeg[n.URN] = len(n.DependsOn)
		for _, d := range n.DependsOn {
			children[d] = append(children[d], n)
		}
	}

	var ready []*Node
	for _, n := range g.nodes {
		if indeg[n.URN] == 0 {
			ready = append(ready, n)
		}
	}

	out := make([]*Node, 0, len(g.nodes))
	for len(ready) > 0 {
		slices.SortFunc(ready, func(a, b *Node) int { return a.index - b.index })
		n := ready[0]
		ready = ready[1:]
		out = append(out, n)
		for _, c := range children[n.URN] {
			indeg[c.URN]--
			if indeg[c.URN] == 0 {
				ready = append(ready, c)
			}
		}
	}
	if len(out) != len(g.nodes) {
		return nil, fmt.Errorf("resource graph has a cycle (%d of %d nodes sorted)", len(out), len(g.nodes))
	}
	return out, nil
}

// Levels groups the sorted nodes so that every node's dependencies lie in
// earlier levels. Nodes in one level can be applied concurrently.
func (g *Graph) Levels() ([][]*Node, error) {
	sorted, err := g.Sorted()
	if err != nil {
		return nil, err
	}
	level := make(map[string]int, len(sorted))
	var levels [][]*Node
	for _, n := range sorted {
		l := 0
		for _, d := range n.DependsOn {
			if level[d]+1 > l {
				l = level[d] + 1
			}
		}
		level[n.URN] = l
		for len(levels) <= l {
			levels = append(levels, nil)
		}
		levels[l] = append(levels[l], n)
	}
	return levels, nil
}

// Reverse returns the destroy order: dependents before their dependencies.
func (g *Graph) Reverse() ([]*Node, error) {
	sorted, err := g.Sorted()
	if err != nil {
		return nil, err
	}
	slices.Reverse(sorted)
	return sorted, nil
}

// Dependents returns every node that transitively depends on urn, in
// declaration order.
func (g *Graph) Dependents(urn string) []*Node {
	seen := map[string]bool{urn: true}
	var out []*Node
	for _, n := range g.nodes {
		for _, d := range n.DependsOn {
			if seen[d] && !seen[n.URN] {
				seen[n.URN] = true
				out = append(out, n)
				break
			}
		}
	}
	return out
}
