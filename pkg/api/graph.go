package api

import (
	"net/http"

	"github.com/matzehuels/portalcore/pkg/dag"
	"github.com/matzehuels/portalcore/pkg/dag/transform"
	"github.com/matzehuels/portalcore/pkg/dictionary"
	"github.com/matzehuels/portalcore/pkg/graph"
	"github.com/matzehuels/portalcore/pkg/pipeline"
)

// graphRequest carries a dictionary with optional observed data. Unset
// options fall back to the server configuration.
type graphRequest struct {
	Dictionary *dictionary.Dictionary `json:"dictionary"`
	Counts     dictionary.Counts      `json:"counts"`
	Links      dictionary.Links       `json:"links"`
	CreateAll  *bool                  `json:"createAll"`
	Hidden     []string               `json:"hidden"`
	RowSize    *int                   `json:"rowSize"`
	Engine     string                 `json:"engine"`
	Refresh    bool                   `json:"refresh"`

	// structure
	StartNode       string   `json:"startNode"`
	SubgraphNodeIDs []string `json:"subgraphNodeIds"`
}

func (s *Server) options(req graphRequest) pipeline.Options {
	opts := pipeline.FromConfig(s.cfg)
	opts.Dictionary = req.Dictionary
	opts.Counts = req.Counts
	opts.Links = req.Links
	if req.CreateAll != nil {
		opts.CreateAll = *req.CreateAll
	}
	if req.Hidden != nil {
		opts.Hidden = req.Hidden
	}
	if req.RowSize != nil {
		opts.RowSize = *req.RowSize
	}
	if req.Engine != "" {
		opts.Engine = req.Engine
	}
	opts.Refresh = req.Refresh
	opts.Logger = s.logger
	return opts
}

// build decodes a graph request and runs the build and level steps.
func (s *Server) build(w http.ResponseWriter, r *http.Request) (graphRequest, pipeline.Options, *dag.DAG, transform.Levels, bool) {
	var req graphRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return req, pipeline.Options{}, nil, transform.Levels{}, false
	}
	opts := s.options(req)
	if err := opts.ValidateForBuild(); err != nil {
		writeError(w, r, err)
		return req, opts, nil, transform.Levels{}, false
	}
	g, err := s.runner.Build(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return req, opts, nil, transform.Levels{}, false
	}
	return req, opts, g, s.runner.Level(g, opts), true
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	_, _, g, levels, ok := s.build(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, graph.FromDAG(g, &levels))
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	_, opts, g, levels, ok := s.build(w, r)
	if !ok {
		return
	}
	if err := opts.ValidateForLayout(); err != nil {
		writeError(w, r, err)
		return
	}
	l, err := s.runner.Layout(r.Context(), g, levels, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	req, opts, g, _, ok := s.build(w, r)
	if !ok {
		return
	}
	if req.StartNode == "" {
		writeError(w, r, badRequest("startNode is required"))
		return
	}
	summary, err := s.runner.Summarize(r.Context(), g, req.StartNode, req.SubgraphNodeIDs, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// A cyclic subgraph has no summary and encodes as null.
	writeJSON(w, http.StatusOK, summary)
}
