package nodelink

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/portalcore/pkg/dag"
)

// BoundingBox is an axis-aligned box in Graphviz points.
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Node is a drawn dictionary type, ready for a rendering layer.
type Node struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	BoundingBox BoundingBox `json:"boundingBox"`
	TopCenterX  float64     `json:"topCenterX"`
	TopCenterY  float64     `json:"topCenterY"`
	Width       float64     `json:"width"`
	Height      float64     `json:"height"`
	Color       string      `json:"color"`
	IconRadius  float64     `json:"iconRadius"`
	TextPadding float64     `json:"textPadding"`
	FontSize    float64     `json:"fontSize"`
	TextLineGap float64     `json:"textLineGap"`
	Names       []string    `json:"names"`
	Label       string      `json:"label"`
	Level       int         `json:"level"`
	OutLinks    []string    `json:"outLinks"`
	InLinks     []string    `json:"inLinks"`
	GVID        int         `json:"_gvid"`

	RequiredPropertiesCount int `json:"requiredPropertiesCount"`
	OptionalPropertiesCount int `json:"optionalPropertiesCount"`
}

// Edge is a drawn link between two types.
type Edge struct {
	Source        string       `json:"source"`
	Target        string       `json:"target"`
	ControlPoints [][2]float64 `json:"controlPoints"`
	PathString    string       `json:"pathString"`
	Required      bool         `json:"required"`
}

// Layout is the drawn dictionary graph.
type Layout struct {
	Nodes            []Node       `json:"nodes"`
	Edges            []Edge       `json:"edges"`
	GraphBoundingBox [][2]float64 `json:"graphBoundingBox"`
}

// Style holds the text metrics used to size drawn nodes, in points.
type Style struct {
	IconRadius    float64
	TextPadding   float64
	FontSize      float64
	TextLineGap   float64
	MaxLabelChars int
}

// DefaultStyle returns the dictionary viewer's text metrics.
func DefaultStyle() Style {
	return Style{
		IconRadius:    10,
		TextPadding:   12,
		FontSize:      10,
		TextLineGap:   4,
		MaxLabelChars: 16,
	}
}

// Graphviz -Tjson output, reduced to the fields read here.
type (
	drawOp struct {
		Op     string       `json:"op"`
		Points [][2]float64 `json:"points"`
	}
	gvObject struct {
		GVID  int             `json:"_gvid"`
		Name  string          `json:"name"`
		Label string          `json:"label"`
		Type  string          `json:"type"`
		Rank  json.RawMessage `json:"rank"`
		Nodes []int           `json:"nodes"`
		Draw  []drawOp        `json:"_draw_"`
	}
	gvEdge struct {
		Tail int      `json:"tail"`
		Head int      `json:"head"`
		Draw []drawOp `json:"_draw_"`
	}
	gvGraph struct {
		Draw    []drawOp   `json:"_draw_"`
		Objects []gvObject `json:"objects"`
		Edges   []gvEdge   `json:"edges"`
	}
)

// Convert combines Graphviz JSON output for g with g's semantics: levels
// come from levels (the same tree levels the DOT ranks were built from),
// link lists and property counts from the graph. Nodes missing from levels
// report level -1. Rank groups are skipped.
func Convert(g *dag.DAG, drawn []byte, levels map[string]int, style Style) (*Layout, error) {
	var gv gvGraph
	if err := json.Unmarshal(drawn, &gv); err != nil {
		return nil, &LayoutError{Stage: "decode", Err: err}
	}

	edges := g.Edges()
	out := &Layout{Nodes: []Node{}, Edges: []Edge{}, GraphBoundingBox: [][2]float64{}}
	byGVID := map[int]int{}

	for _, obj := range gv.Objects {
		if len(obj.Rank) > 0 || obj.Nodes != nil {
			continue
		}
		n, ok := g.Node(obj.Name)
		if !ok {
			return nil, &LayoutError{Stage: "decode", Err: fmt.Errorf("unknown node %q", obj.Name)}
		}
		shape := firstOp(obj.Draw, "p", "P")
		if shape == nil {
			return nil, &LayoutError{Stage: "decode", Err: fmt.Errorf("node %q has no shape", obj.Name)}
		}
		byGVID[obj.GVID] = len(out.Nodes)
		level, ok := levels[n.ID]
		if !ok {
			level = -1
		}
		out.Nodes = append(out.Nodes, drawNode(n, obj, bounds(shape.Points), level, edges, style))
	}

	for _, e := range gv.Edges {
		si, sok := byGVID[e.Tail]
		ti, tok := byGVID[e.Head]
		if !sok || !tok {
			return nil, &LayoutError{Stage: "decode", Err: fmt.Errorf("edge %d->%d has an unknown endpoint", e.Tail, e.Head)}
		}
		src, tgt := out.Nodes[si], out.Nodes[ti]
		var points [][2]float64
		if op := firstOp(e.Draw, "b", "B"); op != nil {
			points = op.Points
		}
		out.Edges = append(out.Edges, Edge{
			Source:        src.ID,
			Target:        tgt.ID,
			ControlPoints: points,
			PathString:    edgePath(src, tgt, points),
			Required:      required(edges, src.ID, tgt.ID),
		})
	}

	if op := firstOp(gv.Draw, "P"); op != nil {
		out.GraphBoundingBox = op.Points
	}
	return out, nil
}

func drawNode(n *dag.Node, obj gvObject, box BoundingBox, level int, edges []dag.Edge, style Style) Node {
	label := obj.Label
	if label == "" {
		label = n.Title
	}
	names := WrapLabel(label, style.MaxLabelChars)
	height := box.Y2 - box.Y1
	height = max(height, style.TextPadding*2+float64(len(names))*(style.FontSize+style.TextLineGap))

	typ := strings.ToLower(obj.Type)
	if typ == "" {
		typ = strings.ToLower(n.Category)
	}

	required := len(n.Required)
	optional := 0
	if n.Properties != nil {
		optional = len(n.Properties) - required
	}

	out, in := []string{}, []string{}
	for _, e := range edges {
		if e.Source == n.ID {
			out = append(out, e.Target)
		}
		if e.Target == n.ID {
			in = append(in, e.Source)
		}
	}

	return Node{
		ID:                      n.ID,
		Type:                    typ,
		BoundingBox:             box,
		TopCenterX:              (box.X1 + box.X2) / 2,
		TopCenterY:              box.Y1,
		Width:                   box.X2 - box.X1,
		Height:                  height,
		Color:                   CategoryColor(typ),
		IconRadius:              style.IconRadius,
		TextPadding:             style.TextPadding,
		FontSize:                style.FontSize,
		TextLineGap:             style.TextLineGap,
		Names:                   names,
		Label:                   label,
		Level:                   level,
		OutLinks:                out,
		InLinks:                 in,
		GVID:                    obj.GVID,
		RequiredPropertiesCount: required,
		OptionalPropertiesCount: optional,
	}
}

// edgePath draws a straight segment between a node and its parent one
// level up, and the Graphviz spline otherwise.
func edgePath(src, tgt Node, points [][2]float64) string {
	if src.Level == tgt.Level+1 {
		sx := (src.BoundingBox.X1 + src.BoundingBox.X2) / 2
		tx := (tgt.BoundingBox.X1 + tgt.BoundingBox.X2) / 2
		return fmt.Sprintf("M%s %s L %s %s", num(sx), num(src.BoundingBox.Y1), num(tx), num(tgt.BoundingBox.Y2))
	}
	if len(points) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "M%s,%sC", num(points[0][0]), num(points[0][1]))
	for i, p := range points[1:] {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s,%s", num(p[0]), num(p[1]))
	}
	return b.String()
}

func required(edges []dag.Edge, source, target string) bool {
	for _, e := range edges {
		if e.Source == source && e.Target == target {
			return e.Required
		}
	}
	return false
}

func bounds(points [][2]float64) BoundingBox {
	box := BoundingBox{X1: math.Inf(1), Y1: math.Inf(1), X2: math.Inf(-1), Y2: math.Inf(-1)}
	for _, p := range points {
		box.X1 = min(box.X1, p[0])
		box.Y1 = min(box.Y1, p[1])
		box.X2 = max(box.X2, p[0])
		box.Y2 = max(box.Y2, p[1])
	}
	return box
}

func firstOp(ops []drawOp, names ...string) *drawOp {
	for i := range ops {
		for _, name := range names {
			if ops[i].Op == name {
				return &ops[i]
			}
		}
	}
	return nil
}

var categoryColors = map[string]string{
	"administrative": "#AD91FF",
	"analysis":       "#FF7ABC",
	"biospecimen":    "#1AC6FF",
	"clinical":       "#05B8EE",
	"data_file":      "#00B998",
	"index_file":     "#26D9B1",
	"metadata_file":  "#F4B940",
	"notation":       "#E74C3C",
	"study_setup":    "#9B59B6",
}

// CategoryColor returns the fill color for a lowercase dictionary
// category, or a neutral grey for unknown ones.
func CategoryColor(category string) string {
	if c, ok := categoryColors[category]; ok {
		return c
	}
	return "#9B9B9B"
}
