package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/portalcore/pkg/filter"
	"github.com/matzehuels/portalcore/pkg/query"
)

// queryRequest is the union of the query builders' inputs. The filter is
// sent as UI state and compiled server side.
type queryRequest struct {
	Type        string             `json:"type"`
	Fields      []string           `json:"fields"`
	Filter      filter.State       `json:"filter"`
	CombineMode filter.CombineMode `json:"combineMode"`

	// options
	AnchorValue    string            `json:"anchorValue"`
	Tabs           []query.FilterTab `json:"tabs"`
	IsInitialQuery bool              `json:"isInitialQuery"`

	// subagg
	MainField        string   `json:"mainField"`
	NumericAggAsText bool     `json:"numericAggAsText"`
	TermsFields      []string `json:"termsFields"`
	MissingFields    []string `json:"missingFields"`

	// raw and download
	Sort           []map[string]string `json:"sort"`
	Offset         int                 `json:"offset"`
	Size           int                 `json:"size"`
	Format         string              `json:"format"`
	WithTotalCount bool                `json:"withTotalCount"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Type == "" {
		req.Type = s.cfg.Explorer.DataType
	}
	f, err := s.compile(r, req.Filter, req.CombineMode)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var out any
	switch kind := chi.URLParam(r, "kind"); kind {
	case "chart":
		out, err = query.AggregationChart(req.Type, req.Fields, f)
	case "count":
		out, err = query.AggregationCount(req.Type, f)
	case "total":
		out, err = query.TotalCount(req.Type, f)
	case "mapping":
		out, err = query.Mapping(req.Type)
	case "options":
		var anchor *query.AnchorConfig
		if s.cfg.Explorer.AnchorField != "" {
			anchor = &query.AnchorConfig{Field: s.cfg.Explorer.AnchorField, Tabs: s.cfg.Explorer.AnchorTabs}
		}
		info := query.OptionsQueryInfo(anchor, req.AnchorValue, req.Tabs, f)
		out, err = query.AggregationOptions(req.Type, info, req.Filter.Len() == 0, req.IsInitialQuery)
	case "subagg":
		out, err = query.SubAggregation(query.SubAggregationArgs{
			Type:             req.Type,
			MainField:        req.MainField,
			NumericAggAsText: req.NumericAggAsText,
			TermsFields:      req.TermsFields,
			MissingFields:    req.MissingFields,
			Filter:           f,
		})
	case "raw":
		out, err = query.RawData(query.RawDataArgs{
			Type:           req.Type,
			Fields:         req.Fields,
			Filter:         f,
			Sort:           req.Sort,
			Offset:         req.Offset,
			Size:           req.Size,
			Format:         req.Format,
			WithTotalCount: req.WithTotalCount,
		})
	case "download":
		out, err = query.Download(req.Type, req.Fields, f, req.Sort)
	default:
		err = notFound("unknown query kind %q", kind)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
