package mindmap

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownNode is returned when an id does not exist in the graph.
	ErrUnknownNode = errors.New("unknown node")
	// ErrHiddenNode is returned when toggling a node below a collapsed ancestor.
	ErrHiddenNode = errors.New("node is not visible")
)

// ExpandedSet is the set of node ids whose children are shown. It is an
// immutable value: every transition returns a new set.
type ExpandedSet struct {
	ids map[NodeID]struct{}
}

func newSet(ids ...NodeID) ExpandedSet {
	m := make(map[NodeID]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return ExpandedSet{ids: m}
}

// Has reports whether id is expanded.
func (s ExpandedSet) Has(id NodeID) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of expanded ids.
func (s ExpandedSet) Len() int {
	return len(s.ids)
}

// IDs returns the expanded ids in ascending order.
func (s ExpandedSet) IDs() []NodeID {
	out := make([]NodeID, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s ExpandedSet) clone() ExpandedSet {
	m := make(map[NodeID]struct{}, len(s.ids)+1)
	for id := range s.ids {
		m[id] = struct{}{}
	}
	return ExpandedSet{ids: m}
}

// Initial is the state of a freshly built graph: only the root is expanded.
func (g *Graph) Initial() ExpandedSet {
	return newSet(RootID)
}

// CollapseAll is identical to Initial.
func (g *Graph) CollapseAll() ExpandedSet {
	return g.Initial()
}

// ExpandAll expands every node.
func (g *Graph) ExpandAll() ExpandedSet {
	ids := make([]NodeID, 0, len(g.nodes))
	for _, n := range g.nodes {
		ids = append(ids, n.ID)
	}
	return newSet(ids...)
}

// Restore rebuilds a set from stored ids. Ids the graph does not have and
// ids below a collapsed ancestor are dropped.
func (g *Graph) Restore(ids []NodeID) ExpandedSet {
	stored := newSet()
	for _, id := range ids {
		if _, ok := g.Node(id); ok {
			stored.ids[id] = struct{}{}
		}
	}
	kept := newSet()
	for id := range stored.ids {
		if g.reachable(stored, id) {
			kept.ids[id] = struct{}{}
		}
	}
	return kept
}

// reachable reports whether every ancestor of id is expanded in s, which is
// exactly when id is visible.
func (g *Graph) reachable(s ExpandedSet, id NodeID) bool {
	for p := g.nodes[id-1].Parent; p != 0; p = g.nodes[p-1].Parent {
		if !s.Has(p) {
			return false
		}
	}
	return true
}

// Toggle expands a collapsed node or collapses an expanded one. Only visible
// nodes can be toggled. Collapsing also removes every transitive descendant
// so nothing stays expanded below a hidden subtree. Toggling a leaf returns
// the set unchanged.
func (g *Graph) Toggle(s ExpandedSet, id NodeID) (ExpandedSet, error) {
	n, ok := g.Node(id)
	if !ok {
		return s, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	if !g.reachable(s, id) {
		return s, fmt.Errorf("%w: %d", ErrHiddenNode, id)
	}
	if !n.HasChildren() {
		return s, nil
	}
	next := s.clone()
	if !s.Has(id) {
		next.ids[id] = struct{}{}
		return next, nil
	}
	delete(next.ids, id)
	for _, d := range g.Descendants(id) {
		delete(next.ids, d)
	}
	return next, nil
}
