// Package pipeline provides the dictionary visualization pipeline.
//
// This package implements the complete build -> level -> describe -> layout
// pipeline used by both the CLI and the HTTP API. Centralizing it keeps
// caching, logging and instrumentation identical for every entry point.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Build: turn a dictionary plus observed counts and links into a graph
//  2. Level: arrange the graph breadth-first and assign unit positions
//  3. Describe: serialize the graph as a DOT description
//  4. Layout: hand the description to a layout engine and convert the
//     drawn coordinates into rendered nodes and edges
//
// Structure summaries and filter compilation are exposed on the same
// [Runner] so that callers share one cache and one logger.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	defer runner.Close()
//	result, err := runner.Execute(ctx, pipeline.Options{Dictionary: dict, Counts: counts})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(len(result.Layout.Nodes))
//
// Run individual stages:
//
//	g, err := runner.Build(ctx, opts)
//	levels := runner.Level(g, opts)
//	layout, err := runner.Layout(ctx, g, levels, opts)
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/portalcore/pkg/config"
	"github.com/matzehuels/portalcore/pkg/dag"
	"github.com/matzehuels/portalcore/pkg/dag/transform"
	"github.com/matzehuels/portalcore/pkg/dictionary"
	"github.com/matzehuels/portalcore/pkg/errors"
	"github.com/matzehuels/portalcore/pkg/graph"
	"github.com/matzehuels/portalcore/pkg/render/nodelink"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultEngine is the Graphviz layout engine.
	DefaultEngine = "dot"

	// DefaultTTL is how long cached results live when Options.TTL is zero.
	DefaultTTL = 24 * time.Hour
)

// ValidEngines is the set of supported Graphviz layout engines.
var ValidEngines = map[string]bool{
	"dot":   true,
	"neato": true,
	"fdp":   true,
	"sfdp":  true,
	"circo": true,
	"twopi": true,
}

// =============================================================================
// Options - Unified Configuration
// =============================================================================

// Options configures a pipeline run.
type Options struct {
	// Build
	Dictionary *dictionary.Dictionary
	Counts     dictionary.Counts
	Links      dictionary.Links
	CreateAll  bool
	Hidden     []string // nil means dictionary.DefaultHidden

	// Level
	RowSize int // grid mode when positive

	// Describe and layout
	DOT    nodelink.DOTOptions
	Style  nodelink.Style
	Engine string

	// Caching
	Refresh bool          // skip cache reads
	TTL     time.Duration // cache entry lifetime

	Logger *log.Logger

	// Progress, when set, is called with a short description as each
	// stage starts.
	Progress func(stage string)
}

func (o Options) progress(stage string) {
	if o.Progress != nil {
		o.Progress(stage)
	}
}

// FromConfig returns options populated from cfg. The dictionary and
// observed data are left for the caller.
func FromConfig(cfg config.Config) Options {
	return Options{
		CreateAll: cfg.Graph.CreateAll,
		Hidden:    cfg.Graph.HiddenNodes,
		RowSize:   cfg.Graph.RowSize,
		DOT: nodelink.DOTOptions{
			CanvasSize:    cfg.Layout.CanvasSize,
			Ratio:         cfg.Layout.Ratio,
			NodeWidth:     cfg.Layout.NodeWidth,
			NodeHeight:    cfg.Layout.NodeHeight,
			MaxLabelChars: cfg.Layout.MaxLabelChars,
		},
		Engine: cfg.Layout.Engine,
		TTL:    cfg.Cache.TTL(),
	}
}

// ValidateAndSetDefaults checks options for a full run and fills defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if err := o.ValidateForBuild(); err != nil {
		return err
	}
	return o.ValidateForLayout()
}

// ValidateForBuild checks the options the build stage needs.
func (o *Options) ValidateForBuild() error {
	if o.Dictionary == nil {
		return errors.New(errors.ErrCodeInvalidInput, "dictionary is required")
	}
	return nil
}

// ValidateForLayout checks the options the layout stage needs and fills
// defaults.
func (o *Options) ValidateForLayout() error {
	if o.Engine == "" {
		o.Engine = DefaultEngine
	}
	if !ValidEngines[o.Engine] {
		return errors.New(errors.ErrCodeInvalidInput, "unknown layout engine %q", o.Engine)
	}
	if o.RowSize < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "row size must not be negative")
	}
	if o.Style == (nodelink.Style{}) {
		o.Style = nodelink.DefaultStyle()
	}
	if o.TTL == 0 {
		o.TTL = DefaultTTL
	}
	return nil
}

// =============================================================================
// Result - Pipeline Output
// =============================================================================

// Result holds the outputs of a full pipeline run.
type Result struct {
	Graph     *dag.DAG
	GraphHash string
	Levels    transform.Levels
	DOT       string
	Layout    graph.Layout
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats records timings and sizes of a run.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	Crossings  int // between adjacent levels, before layout
	BuildTime  time.Duration
	LayoutTime time.Duration
}

// CacheInfo reports which stages were served from cache.
type CacheInfo struct {
	GraphHit  bool
	LayoutHit bool
}
