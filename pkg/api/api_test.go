package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/portalcore/pkg/config"
	"github.com/matzehuels/portalcore/pkg/errors"
	"github.com/matzehuels/portalcore/pkg/pipeline"
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

const dictionaryJSON = `{
  "_settings": {"version": 1},
  "program": {"id": "program", "type": "object", "category": "administrative"},
  "case": {"id": "case", "type": "object", "title": "Case", "category": "administrative",
    "links": [{"name": "programs", "target_type": "program"}]},
  "sample": {"id": "sample", "type": "object", "title": "Sample", "category": "biospecimen",
    "links": [{"name": "cases", "target_type": "case", "required": true}]}
}`

type fakeProvider struct{ err error }

func (p fakeProvider) Layout(ctx context.Context, dot string) ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	return []byte(drawn), nil
}

func newTestServer(t *testing.T, p nodelink.Provider, mutate ...func(*config.Config)) *Server {
	t.Helper()
	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(nil, nil, logger)
	runner.Provider = p
	cfg := config.Default()
	for _, m := range mutate {
		m(&cfg)
	}
	return New(runner, nil, cfg, logger)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndVersion(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	rec = do(t, s, http.MethodGet, "/version", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version"`)
}

func TestRequestIDPropagates(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	body := decodeBody[errorBody](t, rec)
	assert.Equal(t, errors.ErrCodeNotFound, body.Code)
	assert.Equal(t, "abc-123", body.RequestID)
}

func TestCompile(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/v1/filters/compile",
		`{"filter":{"sex":{"selectedValues":["F"]},"age":{"lowerBound":1,"upperBound":5}}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t,
		`{"gqlFilter":{"AND":[{"IN":{"sex":["F"]}},{"AND":[{"GTE":{"age":1}},{"LTE":{"age":5}}]}]}}`,
		rec.Body.String())

	rec = do(t, s, http.MethodPost, "/v1/filters/compile", `{"filter":{}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"gqlFilter":null}`, rec.Body.String())
}

func TestCompileErrors(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name   string
		body   string
		status int
		code   errors.Code
	}{
		{"invalid value", `{"filter":{"a":"bogus"}}`, http.StatusUnprocessableEntity, errors.ErrCodeInvalidFilter},
		{"bad combine mode", `{"filter":{"a":{"selectedValues":["x"]}},"combineMode":"XOR"}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"malformed", `{"filter":`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/v1/filters/compile", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decodeBody[errorBody](t, rec).Code)
		})
	}
}

func TestCompileConsortiumScope(t *testing.T) {
	s := newTestServer(t, nil, func(c *config.Config) {
		c.Server.AllowedConsortiums = []string{"INRG"}
	})

	rec := do(t, s, http.MethodPost, "/v1/filters/compile", `{"filter":{"consortium":{"selectedValues":["INRG"]}}}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, "/v1/filters/compile", `{"filter":{"consortium":{"selectedValues":["INSTRuCT"]}}}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, errors.ErrCodeForbidden, decodeBody[errorBody](t, rec).Code)
}

func TestSQL(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/v1/filters/sql",
		`{"filter":{"sex":{"selectedValues":["F","M"]}},"placeholder":"dollar"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[sqlResponse](t, rec)
	assert.Equal(t, "(sex IN ($1,$2))", resp.SQL)
	assert.Equal(t, []any{"F", "M"}, resp.Args)

	rec = do(t, s, http.MethodPost, "/v1/filters/sql", `{"placeholder":"colon"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueries(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/v1/queries/count", `{"filter":{"sex":{"selectedValues":["F"]}}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var payload struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Contains(t, payload.Query, "subject")
	assert.Contains(t, payload.Variables, "filter")

	rec = do(t, s, http.MethodPost, "/v1/queries/mapping", `{"type":"study"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "study")

	rec = do(t, s, http.MethodPost, "/v1/queries/download", `{"fields":["sex"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"accessibility":"accessible"`)

	rec = do(t, s, http.MethodPost, "/v1/queries/bogus", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodPost, "/v1/queries/chart", `{"type":"a.b","fields":["sex"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGraph(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/v1/graph", `{"dictionary":`+dictionaryJSON+`,"createAll":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var g struct {
		Nodes []struct {
			ID string `json:"id"`
		} `json:"nodes"`
		Edges  []map[string]any `json:"edges"`
		Levels struct {
			LevelsToIDs [][]string `json:"levels"`
		} `json:"levels"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
	require.Len(t, g.Nodes, 2)
	assert.Equal(t, "case", g.Nodes[0].ID)
	assert.Len(t, g.Edges, 1)
	assert.Equal(t, [][]string{{"case"}, {"sample"}}, g.Levels.LevelsToIDs)

	rec = do(t, s, http.MethodPost, "/v1/graph", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLayout(t *testing.T) {
	s := newTestServer(t, fakeProvider{})

	rec := do(t, s, http.MethodPost, "/v1/graph/layout", `{"dictionary":`+dictionaryJSON+`,"createAll":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var l struct {
		Engine string           `json:"engine"`
		Nodes  []map[string]any `json:"nodes"`
		Edges  []map[string]any `json:"edges"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &l))
	assert.Equal(t, "dot", l.Engine)
	assert.Len(t, l.Nodes, 2)
	assert.Len(t, l.Edges, 1)

	rec = do(t, s, http.MethodPost, "/v1/graph/layout", `{"dictionary":`+dictionaryJSON+`,"engine":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLayoutUnavailable(t *testing.T) {
	s := newTestServer(t, fakeProvider{err: &nodelink.LayoutError{Stage: "render", Err: io.ErrUnexpectedEOF}})

	rec := do(t, s, http.MethodPost, "/v1/graph/layout", `{"dictionary":`+dictionaryJSON+`,"createAll":true}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())
	assert.Equal(t, errors.ErrCodeLayoutUnavailable, decodeBody[errorBody](t, rec).Code)
}

func TestStructure(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/v1/graph/structure",
		`{"dictionary":`+dictionaryJSON+`,"createAll":true,"startNode":"sample"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"routesBetweenStartEndNodes":[["sample","case"]]`)

	rec = do(t, s, http.MethodPost, "/v1/graph/structure",
		`{"dictionary":`+dictionaryJSON+`,"createAll":true,"startNode":"nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodPost, "/v1/graph/structure", `{"dictionary":`+dictionaryJSON+`}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type workspaceBody struct {
	SessionID string `json:"sessionId"`
	Workspace struct {
		Active string `json:"active"`
		All    []struct {
			ID      string          `json:"id"`
			SavedID string          `json:"savedId"`
			Filter  json.RawMessage `json:"filter"`
		} `json:"all"`
	} `json:"workspace"`
}

func TestWorkspaceLifecycle(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/v1/workspaces", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ws := decodeBody[workspaceBody](t, rec)
	require.NotEmpty(t, ws.SessionID)
	require.Len(t, ws.Workspace.All, 1)
	first := ws.Workspace.Active
	base := "/v1/workspaces/" + ws.SessionID

	rec = do(t, s, http.MethodPost, base+"/update", `{"filter":{"sex":{"selectedValues":["F"]}}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPost, base+"/duplicate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	ws = decodeBody[workspaceBody](t, rec)
	require.Len(t, ws.Workspace.All, 2)
	assert.NotEqual(t, first, ws.Workspace.Active)
	assert.JSONEq(t, string(ws.Workspace.All[0].Filter), string(ws.Workspace.All[1].Filter))

	rec = do(t, s, http.MethodPost, base+"/load", `{"set":{"savedId":"s1","name":"mine","filter":{}}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	ws = decodeBody[workspaceBody](t, rec)
	require.Len(t, ws.Workspace.All, 3)
	assert.Equal(t, "s1", ws.Workspace.All[2].SavedID)

	rec = do(t, s, http.MethodPost, base+"/use", `{"id":"`+first+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first, decodeBody[workspaceBody](t, rec).Workspace.Active)

	rec = do(t, s, http.MethodPost, base+"/use", `{"id":"missing"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodPost, base+"/remove", "")
	require.Equal(t, http.StatusOK, rec.Code)
	ws = decodeBody[workspaceBody](t, rec)
	assert.Len(t, ws.Workspace.All, 2)
	assert.NotEqual(t, first, ws.Workspace.Active)

	rec = do(t, s, http.MethodPost, base+"/clear", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[workspaceBody](t, rec).Workspace.All, 1)

	rec = do(t, s, http.MethodGet, base, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, base+"/explode", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.ErrCodeSessionNotFound, decodeBody[errorBody](t, rec).Code)
}

func TestWorkspaceScope(t *testing.T) {
	s := newTestServer(t, nil, func(c *config.Config) {
		c.Server.AllowedConsortiums = []string{"INRG"}
	})
	rec := do(t, s, http.MethodPost, "/v1/workspaces", "")
	ws := decodeBody[workspaceBody](t, rec)

	rec = do(t, s, http.MethodPost, "/v1/workspaces/"+ws.SessionID+"/update",
		`{"filter":{"consortium":{"selectedValues":["other"]}}}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRecoverer(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody[errorBody](t, rec)
	assert.Equal(t, errors.ErrCodeInternal, body.Code)
	assert.Equal(t, "internal server error", body.Message)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(errors.ErrCodeInvalidFilter))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(errors.ErrCodeLayoutUnavailable))
	assert.Equal(t, http.StatusNotFound, statusFor(errors.ErrCodeSessionNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusFor("SOMETHING_ELSE"))
}
