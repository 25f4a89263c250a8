package dictionary

import (
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/portalcore/pkg/dag"
	"github.com/matzehuels/portalcore/pkg/errors"
)

const sample = `{
  "_settings": {"version": "1"},
  "_terms": ["x"],
  "program": {"id": "program", "type": "object", "category": "administrative"},
  "project": {"id": "project", "type": "object", "category": "administrative",
    "links": [{"name": "programs", "target_type": "program", "required": true}]},
  "subject": {"id": "subject", "title": "Subject", "type": "object", "category": "clinical",
    "links": [{"name": "projects", "target_type": "project", "required": true}]},
  "metaschema": {"type": "object", "category": "internal"},
  "definitions": "not an entry"
}`

func mustRead(t *testing.T, doc string) *Dictionary {
	t.Helper()
	d, err := Read(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	return d
}

func ids(g *dag.DAG) []string { return g.NodeIDs() }

func edges(g *dag.DAG) [][2]string {
	var out [][2]string
	for _, e := range g.Edges() {
		out = append(out, [2]string{e.Source, e.Target})
	}
	return out
}

func TestRead(t *testing.T) {
	d := mustRead(t, sample)
	want := []string{"program", "project", "subject", "metaschema"}
	if got := d.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	e, _ := d.Get("metaschema")
	if e.ID != "metaschema" {
		t.Errorf("entry ID = %q, want key", e.ID)
	}
}

func TestReadRejectsNonObject(t *testing.T) {
	_, err := Read(strings.NewReader(`[1,2]`))
	if !errors.Is(err, errors.ErrCodeInvalidDictionary) {
		t.Errorf("Read(array) error = %v, want INVALID_DICTIONARY", err)
	}
}

func TestBuildGraph(t *testing.T) {
	d := mustRead(t, sample)

	tests := []struct {
		name      string
		counts    Counts
		links     Links
		opts      BuildOptions
		wantNodes []string
		wantEdges [][2]string
	}{
		{
			name:      "no data",
			counts:    Counts{},
			wantNodes: []string{},
			wantEdges: nil,
		},
		{
			name:      "populated subject pulls in its link target",
			counts:    Counts{CountKey("subject"): 3},
			wantNodes: []string{"project", "subject"},
			wantEdges: [][2]string{{"subject", "project"}},
		},
		{
			name:      "create all",
			opts:      BuildOptions{CreateAll: true},
			wantNodes: []string{"project", "subject"},
			wantEdges: [][2]string{{"subject", "project"}},
		},
		{
			name:      "nothing hidden",
			opts:      BuildOptions{CreateAll: true, Hidden: []string{}},
			wantNodes: []string{"program", "project", "subject"},
			wantEdges: [][2]string{{"project", "program"}, {"subject", "project"}},
		},
		{
			name:      "observed empty link is dropped",
			counts:    Counts{CountKey("subject"): 3},
			links:     Links{LinkKey("subject", "projects", "project"): 0},
			wantNodes: []string{"project", "subject"},
			wantEdges: nil,
		},
		{
			name:      "create all keeps empty links",
			links:     Links{LinkKey("subject", "projects", "project"): 0},
			opts:      BuildOptions{CreateAll: true},
			wantNodes: []string{"project", "subject"},
			wantEdges: [][2]string{{"subject", "project"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := BuildGraph(d, tt.counts, tt.links, tt.opts)
			got := ids(g)
			if len(got) == 0 {
				got = []string{}
			}
			if !reflect.DeepEqual(got, tt.wantNodes) {
				t.Errorf("nodes = %v, want %v", got, tt.wantNodes)
			}
			if e := edges(g); !reflect.DeepEqual(e, tt.wantEdges) {
				t.Errorf("edges = %v, want %v", e, tt.wantEdges)
			}
		})
	}
}

func TestBuildGraphEdgeFields(t *testing.T) {
	d := mustRead(t, sample)
	g := BuildGraph(d, Counts{CountKey("subject"): 1}, Links{LinkKey("subject", "projects", "project"): 4}, BuildOptions{})

	es := g.Edges()
	if len(es) != 1 {
		t.Fatalf("edges = %d, want 1", len(es))
	}
	e := es[0]
	if e.Name != "projects" || !e.Required {
		t.Errorf("edge = %+v", e)
	}
	if e.Exists == nil || !*e.Exists {
		t.Errorf("Exists = %v, want true", e.Exists)
	}
	n, _ := g.Node("subject")
	if n.Title != "Subject" || n.Count != 1 {
		t.Errorf("node = %+v", n)
	}
}

func TestFlatten(t *testing.T) {
	req := true
	links := []Link{
		{Name: "direct", TargetType: "a"},
		{Name: "group", Required: &req, Subgroup: []Link{
			{TargetType: "b"},
			{Name: "own", TargetType: "c", Subgroup: []Link{{TargetType: "d"}}},
		}},
	}
	want := []dag.Link{
		{Name: "direct", Target: "a"},
		{Name: "group", Target: "b", Required: true},
		{Name: "own", Target: "c", Required: true},
		{Name: "own", Target: "d", Required: true},
	}
	if got := Flatten(links); !reflect.DeepEqual(got, want) {
		t.Errorf("Flatten() = %+v, want %+v", got, want)
	}
}

func TestLinksExists(t *testing.T) {
	l := Links{"a_x_to_b_link": 2, "a_y_to_b_link": 0}
	if got := l.Exists("a", "x", "b"); got == nil || !*got {
		t.Error("populated link should exist")
	}
	if got := l.Exists("a", "y", "b"); got == nil || *got {
		t.Error("empty link should not exist")
	}
	if got := l.Exists("a", "z", "b"); got != nil {
		t.Error("unobserved link should be unknown")
	}
}
