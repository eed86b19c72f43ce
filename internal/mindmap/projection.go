package mindmap

import (
	"encoding/json"
	"fmt"
)

// VisibleNode is a node as shown in one projection.
type VisibleNode struct {
	ID          NodeID  `json:"id"`
	Key         string  `json:"key"`
	Parent      NodeID  `json:"parent,omitempty"`
	Depth       int     `json:"depth"`
	Kind        Kind    `json:"kind"`
	Label       string  `json:"label"`
	Color       string  `json:"color"`
	HasChildren bool    `json:"hasChildren"`
	Expanded    bool    `json:"expanded"`
	Data        Payload `json:"data"`
}

// UnmarshalJSON decodes Data into the payload variant named by Kind.
func (n *VisibleNode) UnmarshalJSON(raw []byte) error {
	type plain VisibleNode
	var wire struct {
		plain
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return err
	}
	*n = VisibleNode(wire.plain)
	n.Data = nil
	if len(wire.Data) == 0 || string(wire.Data) == "null" {
		return nil
	}
	p, err := decodePayload(n.Kind, wire.Data)
	if err != nil {
		return fmt.Errorf("node %d: %w", n.ID, err)
	}
	n.Data = p
	return nil
}

func decodePayload(kind Kind, raw json.RawMessage) (Payload, error) {
	switch kind {
	case KindRoot:
		var p RootPayload
		err := json.Unmarshal(raw, &p)
		return p, err
	case KindStage:
		var p StagePayload
		err := json.Unmarshal(raw, &p)
		return p, err
	case KindItem:
		var p ItemPayload
		err := json.Unmarshal(raw, &p)
		return p, err
	case KindResource:
		var p ResourcePayload
		err := json.Unmarshal(raw, &p)
		return p, err
	default:
		return nil, fmt.Errorf("unknown node kind %q", kind)
	}
}

// Projection is the visible subgraph for one expansion state.
type Projection struct {
	Nodes      []VisibleNode `json:"nodes"`
	Edges      []Edge        `json:"edges"`
	Expanded   []NodeID      `json:"expanded"`
	TotalNodes int           `json:"totalNodes"`
}

// Project computes the visible subgraph from scratch with a breadth-first
// walk from the root. A child is visible only when its parent is visible and
// expanded. The root is always visible.
func (g *Graph) Project(s ExpandedSet) Projection {
	p := Projection{
		Nodes:      []VisibleNode{},
		Edges:      []Edge{},
		Expanded:   s.IDs(),
		TotalNodes: len(g.nodes),
	}
	if len(g.nodes) == 0 {
		return p
	}
	queue := []NodeID{RootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n := g.nodes[id-1]
		st := describe(n.Payload)
		expanded := s.Has(id) && n.HasChildren()
		p.Nodes = append(p.Nodes, VisibleNode{
			ID:          n.ID,
			Key:         n.Key,
			Parent:      n.Parent,
			Depth:       n.Depth,
			Kind:        st.kind,
			Label:       st.label,
			Color:       st.color,
			HasChildren: n.HasChildren(),
			Expanded:    expanded,
			Data:        n.Payload,
		})
		if !expanded {
			continue
		}
		for _, child := range n.Children {
			p.Edges = append(p.Edges, Edge{From: id, To: child})
			queue = append(queue, child)
		}
	}
	return p
}

// Visible reports whether id is part of the projection.
func (p Projection) Visible(id NodeID) bool {
	for _, n := range p.Nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}
