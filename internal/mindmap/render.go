package mindmap

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fogleman/gg"
)

// ErrImageTooLarge is returned when a layout exceeds the maximum canvas size.
var ErrImageTooLarge = errors.New("image too large")

const maxCanvasSide = 16384

// RenderOptions controls PNG output.
type RenderOptions struct {
	Padding    float64
	Scale      float64
	Background string
	// FontPath is an optional TrueType font; the built-in bitmap face is used otherwise.
	FontPath string
	FontSize float64
}

func (o RenderOptions) withDefaults() RenderOptions {
	if o.Padding <= 0 {
		o.Padding = 40
	}
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.Background == "" {
		o.Background = "#f8fafc"
	}
	if o.FontSize <= 0 {
		o.FontSize = 14
	}
	return o
}

// RenderPNG draws a laid-out projection and writes it to w as PNG.
func RenderPNG(w io.Writer, p Projection, l Layout, opts RenderOptions) error {
	opts = opts.withDefaults()
	width := int((l.Width + 2*opts.Padding) * opts.Scale)
	height := int((l.Height + 2*opts.Padding) * opts.Scale)
	if width > maxCanvasSide || height > maxCanvasSide {
		return fmt.Errorf("%w: %dx%d", ErrImageTooLarge, width, height)
	}
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	dc := gg.NewContext(width, height)
	dc.Scale(opts.Scale, opts.Scale)
	dc.SetHexColor(opts.Background)
	dc.Clear()
	if opts.FontPath != "" {
		if err := dc.LoadFontFace(opts.FontPath, opts.FontSize); err != nil {
			return fmt.Errorf("load font: %w", err)
		}
	}

	boxes := make(map[NodeID]Placement, len(l.Nodes))
	for _, pl := range l.Nodes {
		pl.X += opts.Padding
		pl.Y += opts.Padding
		boxes[pl.ID] = pl
	}

	dc.SetHexColor("#94a3b8")
	dc.SetLineWidth(2)
	for _, e := range p.Edges {
		from, ok1 := boxes[e.From]
		to, ok2 := boxes[e.To]
		if !ok1 || !ok2 {
			continue
		}
		x1, y1 := from.X, from.Y+from.Height/2
		x2, y2 := to.X, to.Y-to.Height/2
		midY := (y1 + y2) / 2
		dc.MoveTo(x1, y1)
		dc.CubicTo(x1, midY, x2, midY, x2, y2)
		dc.Stroke()
	}

	for _, n := range p.Nodes {
		box, ok := boxes[n.ID]
		if !ok {
			continue
		}
		left := box.X - box.Width/2
		top := box.Y - box.Height/2
		dc.DrawRoundedRectangle(left, top, box.Width, box.Height, 10)
		dc.SetHexColor(n.Color)
		dc.FillPreserve()
		if n.HasChildren && !n.Expanded {
			dc.SetHexColor("#f59e0b")
			dc.SetLineWidth(3)
		} else {
			dc.SetHexColor("#0f172a")
			dc.SetLineWidth(1)
		}
		dc.Stroke()

		dc.SetHexColor("#ffffff")
		lines := fitLines(dc, n.Label, box.Width-20, 3)
		_, lineHeight := dc.MeasureString("Hg")
		lineHeight *= 1.3
		y := box.Y - lineHeight*float64(len(lines)-1)/2
		for _, line := range lines {
			dc.DrawStringAnchored(line, box.X, y, 0.5, 0.35)
			y += lineHeight
		}
	}

	return dc.EncodePNG(w)
}

// fitLines wraps s to width and keeps at most maxLines lines, marking truncation.
func fitLines(dc *gg.Context, s string, width float64, maxLines int) []string {
	lines := dc.WordWrap(strings.TrimSpace(s), width)
	if len(lines) == 0 {
		return []string{""}
	}
	if len(lines) <= maxLines {
		return lines
	}
	lines = lines[:maxLines]
	last := []rune(strings.TrimSpace(lines[maxLines-1]))
	for len(last) > 0 {
		if w, _ := dc.MeasureString(string(last) + "..."); w <= width {
			break
		}
		last = last[:len(last)-1]
	}
	lines[maxLines-1] = string(last) + "..."
	return lines
}
