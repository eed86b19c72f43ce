// Package mindmap turns a roadmap tree into a node/edge graph and computes
// which part of it is visible for a given expansion state.
package mindmap

import (
	"fmt"

	"careermap-backend/internal/roadmaps"
)

// NodeID identifies a node within one Graph. IDs are assigned by a single
// pre-order counter starting at RootID; they are not stable across builds.
type NodeID int

// RootID is the id of the tree root in every graph.
const RootID NodeID = 1

// Kind names the variant of a node payload.
type Kind string

const (
	KindRoot     Kind = "root"
	KindStage    Kind = "stage"
	KindItem     Kind = "item"
	KindResource Kind = "resource"
)

// Payload is the per-kind data of a node. The set of implementations is closed.
type Payload interface {
	payload()
}

type RootPayload struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type StagePayload struct {
	Name        string             `json:"name"`
	Type        roadmaps.StageType `json:"type"`
	Description string             `json:"description,omitempty"`
}

type ItemPayload struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type ResourcePayload struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Category    roadmaps.Category `json:"category"`
	URL         string            `json:"url,omitempty"`
}

func (RootPayload) payload()     {}
func (StagePayload) payload()    {}
func (ItemPayload) payload()     {}
func (ResourcePayload) payload() {}

// Node is one vertex of the graph.
type Node struct {
	ID       NodeID
	Key      string // path-derived, stable across builds of the same shape
	Parent   NodeID // zero for the root
	Depth    int
	Children []NodeID
	Payload  Payload
}

// HasChildren reports whether the node can be expanded.
func (n Node) HasChildren() bool {
	return len(n.Children) > 0
}

// Kind returns the payload variant.
func (n Node) Kind() Kind {
	return describe(n.Payload).kind
}

// Label returns the display text.
func (n Node) Label() string {
	return describe(n.Payload).label
}

// Color returns the fill color as a hex string.
func (n Node) Color() string {
	return describe(n.Payload).color
}

// Edge is a directed parent→child tree edge.
type Edge struct {
	From NodeID `json:"source"`
	To   NodeID `json:"target"`
}

// Graph is the flattened tree. Nodes are indexed by id-1.
type Graph struct {
	nodes []Node
	edges []Edge
}

// Build flattens tree in one pre-order pass.
func Build(tree roadmaps.Tree) *Graph {
	b := &builder{g: &Graph{}}
	root := b.add(0, "r", RootPayload{Title: tree.Title, Description: tree.Description})
	for si, stage := range tree.Stages {
		sid := b.add(root, fmt.Sprintf("r/s%d", si), StagePayload{
			Name:        stage.Name,
			Type:        stage.Type,
			Description: stage.Description,
		})
		for ii, item := range stage.Items {
			iid := b.add(sid, fmt.Sprintf("r/s%d/i%d", si, ii), ItemPayload{
				Name:        item.Name,
				Description: item.Description,
			})
			for xi, res := range item.Resources {
				b.add(iid, fmt.Sprintf("r/s%d/i%d/x%d", si, ii, xi), ResourcePayload{
					Name:        res.Name,
					Description: res.Description,
					Category:    res.Category,
					URL:         res.URL,
				})
			}
		}
	}
	return b.g
}

type builder struct {
	g    *Graph
	next NodeID
}

func (b *builder) add(parent NodeID, key string, p Payload) NodeID {
	b.next++
	id := b.next
	depth := 0
	if parent != 0 {
		pn := &b.g.nodes[parent-1]
		pn.Children = append(pn.Children, id)
		depth = pn.Depth + 1
		b.g.edges = append(b.g.edges, Edge{From: parent, To: id})
	}
	b.g.nodes = append(b.g.nodes, Node{ID: id, Key: key, Parent: parent, Depth: depth, Payload: p})
	return id
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) (Node, bool) {
	if id < RootID || int(id) > len(g.nodes) {
		return Node{}, false
	}
	return g.nodes[id-1], true
}

// Nodes returns every node in id order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns every tree edge in creation order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Descendants returns every node reachable below id, excluding id itself.
func (g *Graph) Descendants(id NodeID) []NodeID {
	n, ok := g.Node(id)
	if !ok {
		return nil
	}
	var out []NodeID
	stack := append([]NodeID(nil), n.Children...)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, cur)
		stack = append(stack, g.nodes[cur-1].Children...)
	}
	return out
}
