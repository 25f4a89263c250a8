package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/portalcore/pkg/filter"
	"github.com/matzehuels/portalcore/pkg/gql"
	"github.com/matzehuels/portalcore/pkg/observability"
)

// Compile compiles a filter state into a GQL filter and reports the run to
// the pipeline hooks. A nil filter with a nil error means the state was
// empty.
func (r *Runner) Compile(ctx context.Context, s filter.State, mode filter.CombineMode) (gql.Filter, error) {
	start := time.Now()
	f, err := filter.Compile(s, mode)
	observability.Pipeline().OnCompile(ctx, s.Len(), time.Since(start), err)
	if err != nil {
		r.Logger.Debug("filter rejected", "error", err)
		return nil, err
	}
	return f, nil
}
