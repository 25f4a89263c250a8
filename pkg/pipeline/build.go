package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/portalcore/pkg/cache"
	"github.com/matzehuels/portalcore/pkg/dag"
	"github.com/matzehuels/portalcore/pkg/dag/transform"
	"github.com/matzehuels/portalcore/pkg/dictionary"
	"github.com/matzehuels/portalcore/pkg/graph"
	"github.com/matzehuels/portalcore/pkg/observability"
)

// BuildWithCacheInfo builds the dictionary graph with caching and reports
// whether it came from the cache.
func (r *Runner) BuildWithCacheInfo(ctx context.Context, opts Options) (*dag.DAG, bool, error) {
	if err := opts.ValidateForBuild(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	dictData, err := json.Marshal(opts.Dictionary)
	if err != nil {
		return nil, false, err
	}
	cacheKey := r.Keyer.GraphKey(cache.Hash(dictData), cache.GraphKeyOpts{
		CountsHash: cache.HashJSON(opts.Counts),
		LinksHash:  cache.HashJSON(opts.Links),
		CreateAll:  opts.CreateAll,
		Hidden:     opts.Hidden,
	})

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if g, err := graph.ReadGraph(bytes.NewReader(data)); err == nil {
				observability.Cache().OnCacheHit(ctx, "graph")
				return g, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "graph")
	}

	hooks := observability.Pipeline()
	hooks.OnBuildStart(ctx, opts.Dictionary.Len())
	start := time.Now()
	g := dictionary.BuildGraph(opts.Dictionary, opts.Counts, opts.Links, dictionary.BuildOptions{
		CreateAll: opts.CreateAll,
		Hidden:    opts.Hidden,
	})
	hooks.OnBuildComplete(ctx, g.NodeCount(), g.EdgeCount(), time.Since(start), nil)

	if g.NodeCount() == 0 {
		opts.Logger.Debug("dictionary produced an empty graph", "entries", opts.Dictionary.Len())
	}

	if data, err := graph.MarshalGraph(g, nil); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, opts.TTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "graph", len(data))
		}
	}
	return g, false, nil
}

// Build is a convenience wrapper that calls BuildWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Build(ctx context.Context, opts Options) (*dag.DAG, error) {
	g, _, err := r.BuildWithCacheInfo(ctx, opts)
	return g, err
}

// Level arranges g breadth-first and writes unit positions onto its nodes.
// A graph without a root yields empty levels and keeps its positions.
func (r *Runner) Level(g *dag.DAG, opts Options) transform.Levels {
	return transform.AssignPositions(g, transform.PositionOptions{RowSize: opts.RowSize})
}

// GraphHash returns a content hash of g, used to key results derived
// from it.
func GraphHash(g *dag.DAG) string {
	data, err := graph.MarshalGraph(g, nil)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}
