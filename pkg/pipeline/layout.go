package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/portalcore/pkg/cache"
	"github.com/matzehuels/portalcore/pkg/dag"
	"github.com/matzehuels/portalcore/pkg/dag/transform"
	"github.com/matzehuels/portalcore/pkg/graph"
	"github.com/matzehuels/portalcore/pkg/observability"
	"github.com/matzehuels/portalcore/pkg/render/nodelink"
)

// Describe returns the DOT description of g arranged by levels.
func (r *Runner) Describe(g *dag.DAG, levels transform.Levels, opts Options) string {
	return nodelink.ToDOT(g, levels.LevelsToIDs, opts.DOT)
}

// LayoutWithCacheInfo lays out a leveled graph and reports whether the
// drawing came from the cache.
//
// The cache holds the engine's drawn output keyed by the DOT description,
// so identical descriptions are laid out once no matter which graph
// produced them. Conversion into rendered nodes and edges always runs
// against g.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, g *dag.DAG, levels transform.Levels, opts Options) (graph.Layout, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return graph.Layout{}, false, err
	}
	r.applyLogger(&opts)
	return r.layoutDOT(ctx, g, levels, r.Describe(g, levels, opts), opts)
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, g *dag.DAG, levels transform.Levels, opts Options) (graph.Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, g, levels, opts)
	return l, err
}

func (r *Runner) layoutDOT(ctx context.Context, g *dag.DAG, levels transform.Levels, dot string, opts Options) (graph.Layout, bool, error) {
	cacheKey := r.Keyer.LayoutKey(cache.Hash([]byte(dot)), cache.LayoutKeyOpts{Engine: opts.Engine})

	var drawn []byte
	hit := false
	if !opts.Refresh {
		if data, ok, err := r.Cache.Get(ctx, cacheKey); err == nil && ok {
			drawn, hit = data, true
			observability.Cache().OnCacheHit(ctx, "layout")
		} else {
			observability.Cache().OnCacheMiss(ctx, "layout")
		}
	}

	if !hit {
		hooks := observability.Pipeline()
		hooks.OnLayoutStart(ctx, opts.Engine, g.NodeCount())
		start := time.Now()
		data, err := r.provider(opts.Engine).Layout(ctx, dot)
		hooks.OnLayoutComplete(ctx, opts.Engine, time.Since(start), err)
		if err != nil {
			return graph.Layout{}, false, err
		}
		drawn = data
		if err := r.Cache.Set(ctx, cacheKey, drawn, opts.TTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(drawn))
		}
	}

	rendered, err := nodelink.Convert(g, drawn, levels.IDToLevel, opts.Style)
	if err != nil {
		if hit {
			// A stale or corrupt entry; drop it and lay out again.
			opts.Logger.Debug("discarding cached layout", "error", err)
			_ = r.Cache.Delete(ctx, cacheKey)
			opts.Refresh = true
			return r.layoutDOT(ctx, g, levels, dot, opts)
		}
		return graph.Layout{}, false, err
	}
	return graph.FromRendered(rendered, opts.Engine, dot, levels.LevelsToIDs), hit, nil
}
