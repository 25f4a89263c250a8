package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/portalcore/pkg/cache"
	"github.com/matzehuels/portalcore/pkg/config"
	"github.com/matzehuels/portalcore/pkg/dag"
	"github.com/matzehuels/portalcore/pkg/dictionary"
	"github.com/matzehuels/portalcore/pkg/errors"
	"github.com/matzehuels/portalcore/pkg/filter"
	"github.com/matzehuels/portalcore/pkg/render/nodelink"
)

const drawn = `{
  "_draw_": [{"op": "P", "points": [[0,0],[0,200],[100,200],[100,0]]}],
  "objects": [
    {"_gvid": 0, "name": "case", "_draw_": [{"op": "p", "points": [[10,150],[90,150],[90,190],[10,190]]}]},
    {"_gvid": 1, "name": "sample", "_draw_": [{"op": "p", "points": [[10,10],[90,10],[90,50],[10,50]]}]}
  ],
  "edges": [
    {"_gvid": 0, "tail": 1, "head": 0, "_draw_": [{"op": "b", "points": [[50,50],[50,80],[50,120],[50,150]]}]}
  ]
}`

func boolPtr(b bool) *bool { return &b }

func sampleDictionary() *dictionary.Dictionary {
	return dictionary.New(
		dictionary.Entry{ID: "program", Type: "object", Category: "administrative"},
		dictionary.Entry{ID: "case", Title: "Case", Type: "object", Category: "administrative",
			Links: []dictionary.Link{{Name: "programs", TargetType: "program"}}},
		dictionary.Entry{ID: "sample", Title: "Sample", Type: "object", Category: "biospecimen",
			Links: []dictionary.Link{{Name: "cases", TargetType: "case", Required: boolPtr(true)}}},
	)
}

type fakeProvider struct {
	calls atomic.Int32
	err   error
}

func (p *fakeProvider) Layout(ctx context.Context, dot string) ([]byte, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return []byte(drawn), nil
}

func newTestRunner(t *testing.T, c cache.Cache, p nodelink.Provider) *Runner {
	t.Helper()
	r := NewRunner(c, nil, log.New(io.Discard))
	r.Provider = p
	return r
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	if r.Cache == nil || r.Keyer == nil || r.Logger == nil {
		t.Fatalf("NewRunner left nil fields: %+v", r)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestOptionsValidation(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); errors.GetCode(err) != errors.ErrCodeInvalidInput {
		t.Errorf("missing dictionary: got %v", err)
	}

	opts = Options{Dictionary: sampleDictionary()}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error: %v", err)
	}
	if opts.Engine != DefaultEngine || opts.TTL != DefaultTTL || opts.Style != nodelink.DefaultStyle() {
		t.Errorf("defaults not applied: %+v", opts)
	}

	opts.Engine = "bogus"
	if err := opts.ValidateForLayout(); err == nil {
		t.Error("unknown engine should fail")
	}
	opts.Engine = "dot"
	opts.RowSize = -1
	if err := opts.ValidateForLayout(); err == nil {
		t.Error("negative row size should fail")
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Graph.RowSize = 3
	cfg.Layout.Engine = "neato"
	opts := FromConfig(cfg)
	if opts.RowSize != 3 || opts.Engine != "neato" || opts.DOT.CanvasSize != 5 {
		t.Errorf("FromConfig() = %+v", opts)
	}
	if !reflect.DeepEqual(opts.Hidden, []string{"program"}) {
		t.Errorf("hidden = %v", opts.Hidden)
	}
}

func TestExecute(t *testing.T) {
	p := &fakeProvider{}
	r := newTestRunner(t, nil, p)

	res, err := r.Execute(context.Background(), Options{Dictionary: sampleDictionary(), CreateAll: true})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if got := res.Graph.NodeIDs(); !reflect.DeepEqual(got, []string{"case", "sample"}) {
		t.Errorf("nodes = %v", got)
	}
	if want := [][]string{{"case"}, {"sample"}}; !reflect.DeepEqual(res.Levels.LevelsToIDs, want) {
		t.Errorf("levels = %v, want %v", res.Levels.LevelsToIDs, want)
	}
	if !strings.HasPrefix(res.DOT, "digraph dictionary {\n") || !strings.Contains(res.DOT, `"sample" -> "case"`) {
		t.Errorf("dot = %q", res.DOT)
	}
	if len(res.Layout.Nodes) != 2 || len(res.Layout.Edges) != 1 {
		t.Fatalf("layout = %+v", res.Layout)
	}
	if res.Layout.Engine != "dot" || res.Layout.DOT != res.DOT {
		t.Errorf("layout provenance = %q", res.Layout.Engine)
	}
	if e := res.Layout.Edges[0]; e.PathString != "M50 10 L 50 190" || !e.Required {
		t.Errorf("edge = %+v", e)
	}
	if res.GraphHash == "" || res.Stats.NodeCount != 2 || res.Stats.EdgeCount != 1 {
		t.Errorf("result = %+v", res.Stats)
	}
	if res.CacheInfo.GraphHit || res.CacheInfo.LayoutHit {
		t.Errorf("null cache reported a hit: %+v", res.CacheInfo)
	}
	if p.calls.Load() != 1 {
		t.Errorf("provider calls = %d, want 1", p.calls.Load())
	}
}

func TestExecuteCaches(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	p := &fakeProvider{}
	r := newTestRunner(t, c, p)
	opts := Options{Dictionary: sampleDictionary(), CreateAll: true}

	first, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("first Execute() error: %v", err)
	}
	second, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Execute() error: %v", err)
	}
	if !second.CacheInfo.GraphHit || !second.CacheInfo.LayoutHit {
		t.Errorf("cache info = %+v, want hits", second.CacheInfo)
	}
	if p.calls.Load() != 1 {
		t.Errorf("provider calls = %d, want 1", p.calls.Load())
	}
	if !reflect.DeepEqual(first.Layout, second.Layout) {
		t.Error("cached layout differs from computed layout")
	}

	opts.Refresh = true
	if _, err := r.Execute(context.Background(), opts); err != nil {
		t.Fatalf("refresh Execute() error: %v", err)
	}
	if p.calls.Load() != 2 {
		t.Errorf("provider calls after refresh = %d, want 2", p.calls.Load())
	}
}

func TestExecuteLayoutUnavailable(t *testing.T) {
	p := &fakeProvider{err: &nodelink.LayoutError{Stage: "render", Err: stderrors.New("no runtime")}}
	r := newTestRunner(t, nil, p)

	_, err := r.Execute(context.Background(), Options{Dictionary: sampleDictionary(), CreateAll: true})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := errors.GetCode(err); got != errors.ErrCodeLayoutUnavailable {
		t.Errorf("code = %q, want %q", got, errors.ErrCodeLayoutUnavailable)
	}
}

func TestExecuteCountGating(t *testing.T) {
	r := newTestRunner(t, nil, &fakeProvider{})
	g, err := r.Build(context.Background(), Options{Dictionary: sampleDictionary()})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if g.NodeCount() != 0 {
		t.Errorf("nodes = %v, want none without counts", g.NodeIDs())
	}

	g, err = r.Build(context.Background(), Options{
		Dictionary: sampleDictionary(),
		Counts:     dictionary.Counts{dictionary.CountKey("sample"): 4},
	})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if got := g.NodeIDs(); !reflect.DeepEqual(got, []string{"case", "sample"}) {
		t.Errorf("nodes = %v, want [case sample]", got)
	}
}

func TestLevelGrid(t *testing.T) {
	g := dag.New(nil)
	for _, id := range []string{"root", "a", "b", "c"} {
		g.AddNode(dag.Node{ID: id})
	}
	for _, id := range []string{"a", "b", "c"} {
		g.AddEdge(dag.Edge{Source: id, Target: "root"})
	}

	r := newTestRunner(t, nil, nil)
	r.Level(g, Options{RowSize: 2})
	c, _ := g.Node("c")
	if c.PositionIndex != [2]int{0, 2} {
		t.Errorf("c positionIndex = %v, want [0 2]", c.PositionIndex)
	}
}

func TestExecuteGridReportsTreeLevels(t *testing.T) {
	d := dictionary.New(
		dictionary.Entry{ID: "case", Type: "object"},
		dictionary.Entry{ID: "sample", Type: "object", Links: []dictionary.Link{{Name: "cases", TargetType: "case"}}},
		dictionary.Entry{ID: "diagnosis", Type: "object", Links: []dictionary.Link{{Name: "cases", TargetType: "case"}}},
		dictionary.Entry{ID: "exposure", Type: "object", Links: []dictionary.Link{{Name: "cases", TargetType: "case"}}},
	)
	p := nodelink.ProviderFunc(func(context.Context, string) ([]byte, error) {
		var objs []string
		for i, id := range []string{"case", "sample", "diagnosis", "exposure"} {
			objs = append(objs, fmt.Sprintf(`{"_gvid": %d, "name": %q, "_draw_": [{"op": "p", "points": [[0,0],[10,10]]}]}`, i, id))
		}
		return []byte(`{"objects": [` + strings.Join(objs, ",") + `]}`), nil
	})
	r := newTestRunner(t, nil, p)

	res, err := r.Execute(context.Background(), Options{Dictionary: d, CreateAll: true, RowSize: 1})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if n, _ := res.Graph.Node("exposure"); n.PositionIndex[1] != 3 {
		t.Fatalf("exposure grid row = %d, want 3", n.PositionIndex[1])
	}
	for _, n := range res.Layout.Nodes {
		if want := res.Levels.IDToLevel[n.ID]; n.Level != want {
			t.Errorf("%s level = %d, want tree level %d", n.ID, n.Level, want)
		}
	}
}

func TestSummarize(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := newTestRunner(t, c, nil)
	g, err := r.Build(ctx, Options{Dictionary: sampleDictionary(), CreateAll: true})
	if err != nil {
		t.Fatal(err)
	}

	s, err := r.Summarize(ctx, g, "sample", nil, Options{})
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if s == nil || len(s.Structure) != 2 || s.Structure[1].NodeID != "sample" {
		t.Fatalf("summary = %+v", s)
	}
	if want := [][]string{{"sample", "case"}}; !reflect.DeepEqual(s.Routes, want) {
		t.Errorf("routes = %v, want %v", s.Routes, want)
	}

	again, err := r.Summarize(ctx, g, "sample", nil, Options{})
	if err != nil || !reflect.DeepEqual(again, s) {
		t.Errorf("cached summary = %+v, %v", again, err)
	}

	if _, err := r.Summarize(ctx, g, "missing", nil, Options{}); errors.GetCode(err) != errors.ErrCodeNotFound {
		t.Errorf("unknown start: got %v", err)
	}
}

func TestSummarizeCycle(t *testing.T) {
	g := dag.New(nil)
	g.AddNode(dag.Node{ID: "a"})
	g.AddNode(dag.Node{ID: "b"})
	g.AddEdge(dag.Edge{Source: "a", Target: "b"})
	g.AddEdge(dag.Edge{Source: "b", Target: "a"})

	s, err := newTestRunner(t, nil, nil).Summarize(context.Background(), g, "a", []string{"a", "b"}, Options{})
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if s != nil {
		t.Errorf("summary = %+v, want nil for a cycle", s)
	}
}

func TestCompile(t *testing.T) {
	r := newTestRunner(t, nil, nil)
	f, err := r.Compile(context.Background(), filter.State{}, filter.CombineAnd)
	if err != nil || f != nil {
		t.Errorf("empty state = %v, %v", f, err)
	}

	s := filter.NewState(filter.Entry{Key: "gender", Value: filter.Option{SelectedValues: []string{"female"}}})
	f, err = r.Compile(context.Background(), s, filter.CombineAnd)
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	data, _ := f.MarshalJSON()
	if string(data) != `{"AND":[{"IN":{"gender":["female"]}}]}` {
		t.Errorf("compiled = %s", data)
	}
}
