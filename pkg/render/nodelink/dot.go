package nodelink

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/portalcore/pkg/dag"
)

// DOTOptions sets the geometry written into a DOT description. Sizes
// are in inches, the unit Graphviz uses.
type DOTOptions struct {
	CanvasSize    float64 // Width and height of the drawing area
	Ratio         float64 // Aspect ratio of the drawing
	NodeWidth     float64 // Minimum node box width
	NodeHeight    float64 // Minimum node box height
	MaxLabelChars int     // Characters per wrapped label line
}

// DefaultDOTOptions returns the dictionary viewer's geometry.
func DefaultDOTOptions() DOTOptions {
	return DOTOptions{
		CanvasSize:    5,
		Ratio:         1,
		NodeWidth:     1.2,
		NodeHeight:    0.8,
		MaxLabelChars: 16,
	}
}

func (o DOTOptions) withDefaults() DOTOptions {
	d := DefaultDOTOptions()
	if o.CanvasSize <= 0 {
		o.CanvasSize = d.CanvasSize
	}
	if o.Ratio <= 0 {
		o.Ratio = d.Ratio
	}
	if o.NodeWidth <= 0 {
		o.NodeWidth = d.NodeWidth
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = d.NodeHeight
	}
	if o.MaxLabelChars <= 0 {
		o.MaxLabelChars = d.MaxLabelChars
	}
	return o
}

// Approximate glyph metrics of the label font, in inches.
const (
	charWidth  = 0.07
	lineHeight = 0.2
	boxPadding = 0.2
)

// ToDOT describes g in Graphviz DOT. Nodes are fixed-size rectangles big
// enough for their wrapped title, edges carry no arrowheads, and each
// entry of levels becomes a same-rank group.
//
//	digraph dictionary {
//	size="5, 5"
//	ratio=1
//	"case" [type="administrative" label="Case" fixedsize=true width=1.2 height=0.8 shape=rectangle
//	]
//	"sample" -> "case"[arrowhead=none tailport=s ]
//	{rank=same "case"}
//	{rank=same "sample"}
//	}
func ToDOT(g *dag.DAG, levels [][]string, opts DOTOptions) string {
	opts = opts.withDefaults()

	var buf bytes.Buffer
	buf.WriteString("digraph dictionary {\n")
	fmt.Fprintf(&buf, "size=\"%s, %s\"\n", num(opts.CanvasSize), num(opts.CanvasSize))
	fmt.Fprintf(&buf, "ratio=%s\n", num(opts.Ratio))

	for _, n := range g.Nodes() {
		w, h := boxSize(WrapLabel(label(n), opts.MaxLabelChars), opts)
		fmt.Fprintf(&buf, "%s [type=%s label=%s fixedsize=true width=%s height=%s shape=rectangle\n]\n",
			quote(n.ID), quote(n.Category), quote(label(n)), num(w), num(h))
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "%s -> %s[arrowhead=none tailport=s ]\n", quote(e.Source), quote(e.Target))
	}
	for _, ids := range levels {
		if len(ids) == 0 {
			continue
		}
		quoted := make([]string, len(ids))
		for i, id := range ids {
			quoted[i] = quote(id)
		}
		fmt.Fprintf(&buf, "{rank=same %s}\n", strings.Join(quoted, " "))
	}

	buf.WriteString("}")
	return buf.String()
}

func label(n *dag.Node) string {
	if n.Title != "" {
		return n.Title
	}
	return n.ID
}

func boxSize(lines []string, opts DOTOptions) (float64, float64) {
	longest := 0
	for _, l := range lines {
		longest = max(longest, len([]rune(l)))
	}
	w := max(opts.NodeWidth, round2(float64(longest)*charWidth+boxPadding))
	h := max(opts.NodeHeight, round2(float64(len(lines))*lineHeight+boxPadding))
	return w, h
}

// WrapLabel breaks a label into lines of at most max characters, on word
// boundaries where possible. Words longer than a line are split.
func WrapLabel(label string, max int) []string {
	if max <= 0 {
		return []string{label}
	}
	var lines []string
	var cur []rune
	for _, word := range strings.Fields(label) {
		w := []rune(word)
		for len(w) > max {
			if len(cur) > 0 {
				lines = append(lines, string(cur))
				cur = nil
			}
			lines = append(lines, string(w[:max]))
			w = w[max:]
		}
		switch {
		case len(w) == 0:
		case len(cur) == 0:
			cur = w
		case len(cur)+1+len(w) <= max:
			cur = append(append(cur, ' '), w...)
		default:
			lines = append(lines, string(cur))
			cur = w
		}
	}
	if len(cur) > 0 {
		lines = append(lines, string(cur))
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func quote(s string) string {
	return `"` + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `"`, `\"`) + `"`
}
