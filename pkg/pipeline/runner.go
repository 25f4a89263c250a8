package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/portalcore/pkg/cache"
	"github.com/matzehuels/portalcore/pkg/dag"
	"github.com/matzehuels/portalcore/pkg/render/nodelink"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, the logger and the layout
// providers it creates. Multiple goroutines can safely use the same Runner
// with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Provider lays out DOT descriptions. When nil, a Graphviz provider
	// is created per engine on first use and released by Close.
	Provider nodelink.Provider

	mu        sync.Mutex
	providers map[string]*nodelink.Graphviz
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete build -> level -> describe -> layout pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: Build
	opts.progress("building graph")
	buildStart := time.Now()
	g, hit, err := r.BuildWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Graph = g
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()
	result.CacheInfo.GraphHit = hit
	result.GraphHash = GraphHash(g)

	r.Logger.Info("built graph",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"duration", result.Stats.BuildTime)

	// Stage 2: Level
	opts.progress("leveling graph")
	result.Levels = r.Level(g, opts)
	if len(result.Levels.Order) == 0 && g.NodeCount() > 0 {
		r.Logger.Warn("no root found, graph left unleveled", "nodes", g.NodeCount())
	}
	result.Stats.Crossings = dag.CountCrossings(g, result.Levels.LevelsToIDs)

	// Stage 3: Describe
	result.DOT = nodelink.ToDOT(g, result.Levels.LevelsToIDs, opts.DOT)

	// Stage 4: Layout
	opts.progress("running " + opts.Engine + " layout")
	layoutStart := time.Now()
	layout, hit, err := r.layoutDOT(ctx, g, result.Levels, result.DOT, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = layout
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = hit

	r.Logger.Info("computed layout",
		"engine", opts.Engine,
		"nodes", len(layout.Nodes),
		"cached", hit,
		"duration", result.Stats.LayoutTime)

	return result, nil
}

// provider returns the layout provider for engine.
func (r *Runner) provider(engine string) nodelink.Provider {
	if r.Provider != nil {
		return r.Provider
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.providers == nil {
		r.providers = make(map[string]*nodelink.Graphviz)
	}
	p, ok := r.providers[engine]
	if !ok {
		p = nodelink.NewGraphviz(engine, r.Logger)
		r.providers[engine] = p
	}
	return p
}

// Close releases resources held by the runner: the layout runtimes it
// created and the cache.
func (r *Runner) Close() error {
	r.mu.Lock()
	providers := r.providers
	r.providers = nil
	r.mu.Unlock()

	var firstErr error
	for engine, p := range providers {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s runtime: %w", engine, err)
		}
	}
	if r.Cache != nil {
		if err := r.Cache.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
