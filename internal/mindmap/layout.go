package mindmap

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-graphviz"
)

// Layouter assigns coordinates to the nodes of a projection.
type Layouter interface {
	Layout(ctx context.Context, p Projection) (Layout, error)
}

// Placement is the box of one visible node. X and Y are the box center,
// measured from the top-left corner of the layout.
type Placement struct {
	ID     NodeID  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Layout is a positioned projection. Width and Height bound every box.
type Layout struct {
	Nodes  []Placement `json:"nodes"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
}

// Placement returns the box for id.
func (l Layout) Placement(id NodeID) (Placement, bool) {
	for _, p := range l.Nodes {
		if p.ID == id {
			return p, true
		}
	}
	return Placement{}, false
}

// Default box and spacing in points, top-to-bottom.
const (
	DefaultNodeWidth  = 220
	DefaultNodeHeight = 80
	DefaultRankSep    = 100
	DefaultNodeSep    = 50
)

const pointsPerInch = 72

// DotLayout lays a projection out with Graphviz dot: ranks top to bottom,
// fixed node boxes, children kept in tree order.
type DotLayout struct {
	NodeWidth  float64
	NodeHeight float64
	RankSep    float64
	NodeSep    float64
}

// NewDotLayout returns a DotLayout with the default dimensions.
func NewDotLayout() DotLayout {
	return DotLayout{
		NodeWidth:  DefaultNodeWidth,
		NodeHeight: DefaultNodeHeight,
		RankSep:    DefaultRankSep,
		NodeSep:    DefaultNodeSep,
	}
}

func (l DotLayout) withDefaults() DotLayout {
	if l.NodeWidth <= 0 {
		l.NodeWidth = DefaultNodeWidth
	}
	if l.NodeHeight <= 0 {
		l.NodeHeight = DefaultNodeHeight
	}
	if l.RankSep <= 0 {
		l.RankSep = DefaultRankSep
	}
	if l.NodeSep <= 0 {
		l.NodeSep = DefaultNodeSep
	}
	return l
}

// The Graphviz runtime is a WebAssembly module; one instance is shared by
// every DotLayout and calls into it are serialized.
var engine struct {
	once sync.Once
	mu   sync.Mutex
	gv   *graphviz.Graphviz
	err  error
}

func dotEngine() (*graphviz.Graphviz, error) {
	engine.once.Do(func() {
		engine.gv, engine.err = graphviz.New(context.Background())
	})
	if engine.err != nil {
		return nil, fmt.Errorf("start graphviz: %w", engine.err)
	}
	return engine.gv, nil
}

// Layout positions every node of p.
func (l DotLayout) Layout(ctx context.Context, p Projection) (Layout, error) {
	l = l.withDefaults()
	out := Layout{Nodes: make([]Placement, 0, len(p.Nodes))}
	if len(p.Nodes) == 0 {
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return Layout{}, err
	}

	gv, err := dotEngine()
	if err != nil {
		return Layout{}, err
	}
	engine.mu.Lock()
	defer engine.mu.Unlock()

	raw, err := l.run(ctx, gv, p)
	if err != nil {
		return Layout{}, err
	}
	placed, err := graphviz.ParseBytes(raw)
	if err != nil {
		return Layout{}, fmt.Errorf("parse dot output: %w", err)
	}
	defer placed.Close()

	bb, err := parseFloats(placed.GetStr("bb"), 4)
	if err != nil {
		return Layout{}, fmt.Errorf("dot bounding box: %w", err)
	}
	left, bottom, right, top := bb[0], bb[1], bb[2], bb[3]
	for _, vn := range p.Nodes {
		n, err := placed.NodeByName(dotName(vn.ID))
		if err != nil {
			return Layout{}, fmt.Errorf("dot node %d: %w", vn.ID, err)
		}
		if n == nil {
			return Layout{}, fmt.Errorf("dot node %d missing from output", vn.ID)
		}
		pos, err := parseFloats(n.GetStr("pos"), 2)
		if err != nil {
			return Layout{}, fmt.Errorf("dot node %d position: %w", vn.ID, err)
		}
		// dot puts the origin bottom-left.
		out.Nodes = append(out.Nodes, Placement{
			ID:     vn.ID,
			X:      pos[0] - left,
			Y:      top - pos[1],
			Width:  l.NodeWidth,
			Height: l.NodeHeight,
		})
	}
	out.Width = right - left
	out.Height = top - bottom
	return out, nil
}

// run builds the dot graph for p and returns the laid-out graph in dot syntax.
func (l DotLayout) run(ctx context.Context, gv *graphviz.Graphviz, p Projection) ([]byte, error) {
	graph, err := gv.Graph()
	if err != nil {
		return nil, fmt.Errorf("new dot graph: %w", err)
	}
	defer graph.Close()

	graph.SetRankDir(graphviz.TBRank).
		SetNodeSeparator(l.NodeSep / pointsPerInch).
		SetRankSeparator(l.RankSep / pointsPerInch)
	if err := graph.SafeSet("ordering", "out", ""); err != nil {
		return nil, fmt.Errorf("dot ordering: %w", err)
	}

	nodes := make(map[NodeID]*graphviz.Node, len(p.Nodes))
	for _, vn := range p.Nodes {
		n, err := graph.CreateNodeByName(dotName(vn.ID))
		if err != nil {
			return nil, fmt.Errorf("dot node %d: %w", vn.ID, err)
		}
		n.SetShape(graphviz.BoxShape).
			SetFixedSize(true).
			SetWidth(l.NodeWidth / pointsPerInch).
			SetHeight(l.NodeHeight / pointsPerInch).
			SetLabel("")
		nodes[vn.ID] = n
	}
	for i, e := range p.Edges {
		from, to := nodes[e.From], nodes[e.To]
		if from == nil || to == nil {
			return nil, fmt.Errorf("edge %d->%d references a hidden node", e.From, e.To)
		}
		if _, err := graph.CreateEdgeByName("e"+strconv.Itoa(i), from, to); err != nil {
			return nil, fmt.Errorf("dot edge %d->%d: %w", e.From, e.To, err)
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return nil, fmt.Errorf("dot layout: %w", err)
	}
	return buf.Bytes(), nil
}

func dotName(id NodeID) string {
	return "n" + strconv.Itoa(int(id))
}

// parseFloats reads a comma-separated point list such as "27,18" or a bounding box.
func parseFloats(raw string, want int) ([]float64, error) {
	parts := strings.Split(strings.TrimSpace(raw), ",")
	if len(parts) != want {
		return nil, fmt.Errorf("expected %d values, got %q", want, raw)
	}
	out := make([]float64, want)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number in %q", raw)
		}
		out[i] = v
	}
	return out, nil
}
