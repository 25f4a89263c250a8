package api

import (
	"net/http"

	sq "github.com/Masterminds/squirrel"

	"github.com/matzehuels/portalcore/pkg/buildinfo"
	"github.com/matzehuels/portalcore/pkg/errors"
	"github.com/matzehuels/portalcore/pkg/filter"
	"github.com/matzehuels/portalcore/pkg/gql"
	"github.com/matzehuels/portalcore/pkg/gql/sqlfilter"
)

type compileRequest struct {
	Filter      filter.State       `json:"filter"`
	CombineMode filter.CombineMode `json:"combineMode"`
}

type compileResponse struct {
	GQLFilter gql.Filter `json:"gqlFilter"`
}

type sqlRequest struct {
	compileRequest
	RootTable   string `json:"rootTable"`
	RootKey     string `json:"rootKey"`
	ForeignKey  string `json:"foreignKey"`
	Placeholder string `json:"placeholder"` // "question" (default) or "dollar"
}

type sqlResponse struct {
	SQL  string `json:"sql"`
	Args []any  `json:"args"`
}

// compile checks the consortium scope of s and compiles it.
func (s *Server) compile(r *http.Request, st filter.State, mode filter.CombineMode) (gql.Filter, error) {
	if !filter.InScope(s.cfg.Server.AllowedConsortiums, st) {
		return nil, errors.New(errors.ErrCodeForbidden, "filter selects a %s outside the allowed list", filter.ConsortiumField)
	}
	return s.runner.Compile(r.Context(), st, mode)
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var req compileRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	f, err := s.compile(r, req.Filter, req.CombineMode)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, compileResponse{GQLFilter: f})
}

func (s *Server) handleSQL(w http.ResponseWriter, r *http.Request) {
	var req sqlRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	var format sq.PlaceholderFormat
	switch req.Placeholder {
	case "", "question":
		format = sq.Question
	case "dollar":
		format = sq.Dollar
	default:
		writeError(w, r, badRequest("unknown placeholder format %q", req.Placeholder))
		return
	}
	f, err := s.compile(r, req.Filter, req.CombineMode)
	if err != nil {
		writeError(w, r, err)
		return
	}
	query, args, err := sqlfilter.ToSQL(f, sqlfilter.Options{
		RootTable:  req.RootTable,
		RootKey:    req.RootKey,
		ForeignKey: req.ForeignKey,
	}, format)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if args == nil {
		args = []any{}
	}
	writeJSON(w, http.StatusOK, sqlResponse{SQL: query, Args: args})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}
