package pipeline

import (
	"context"

	"github.com/matzehuels/portalcore/pkg/cache"
	"github.com/matzehuels/portalcore/pkg/dag"
	"github.com/matzehuels/portalcore/pkg/dag/structure"
	"github.com/matzehuels/portalcore/pkg/errors"
	"github.com/matzehuels/portalcore/pkg/observability"
)

// Summarize returns the data model summary of the subgraph of g induced by
// subgraphIDs, starting from start. A nil subgraphIDs means the whole
// graph. The second result is false when no summary exists, which happens
// for cyclic subgraphs and is not an error.
func (r *Runner) Summarize(ctx context.Context, g *dag.DAG, start string, subgraphIDs []string, opts Options) (*structure.Summary, error) {
	r.applyLogger(&opts)
	if _, ok := g.Node(start); !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "node %q is not in the graph", start)
	}
	if opts.TTL == 0 {
		opts.TTL = DefaultTTL
	}

	sub := structure.WholeGraph(g)
	if subgraphIDs != nil {
		sub = structure.SubgraphOf(g, subgraphIDs)
	}

	cacheKey := r.Keyer.SummaryKey(GraphHash(g), start, sub.NodeIDs)
	if !opts.Refresh {
		var cached *structure.Summary
		if hit, err := cache.GetJSON(ctx, r.Cache, cacheKey, &cached); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "summary")
			return cached, nil
		}
		observability.Cache().OnCacheMiss(ctx, "summary")
	}

	var result *structure.Summary
	if s, ok := structure.SummarizeDataModelStructure(start, sub, g); ok {
		result = &s
	} else {
		opts.Logger.Debug("no structure summary", "start", start, "nodes", len(sub.NodeIDs))
	}

	if err := cache.SetJSON(ctx, r.Cache, cacheKey, result, opts.TTL); err == nil {
		observability.Cache().OnCacheSet(ctx, "summary", 0)
	}
	return result, nil
}
