package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/portalcore/pkg/errors"
	"github.com/matzehuels/portalcore/pkg/filter"
	"github.com/matzehuels/portalcore/pkg/session"
	"github.com/matzehuels/portalcore/pkg/workspace"
)

type workspaceResponse struct {
	SessionID string             `json:"sessionId"`
	Workspace workspace.Snapshot `json:"workspace"`
}

type workspaceRequest struct {
	ID     string              `json:"id"`     // use
	Set    workspace.FilterSet `json:"set"`    // load
	Filter filter.State        `json:"filter"` // update
}

func (s *Server) sessionTTL() time.Duration {
	if ttl := s.cfg.Server.SessionTTL(); ttl > 0 {
		return ttl
	}
	return session.DefaultTTL
}

func (s *Server) handleNewWorkspace(w http.ResponseWriter, r *http.Request) {
	sess, err := session.New(s.sessionTTL())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, workspaceResponse{SessionID: sess.ID, Workspace: sess.Workspace.Snapshot()})
}

func (s *Server) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, workspaceResponse{SessionID: sess.ID, Workspace: sess.Workspace.Snapshot()})
}

func (s *Server) handleDeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session")
	if _, err := s.sessions.Get(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWorkspaceAction(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req workspaceRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ws := sess.Workspace
	switch action := chi.URLParam(r, "action"); action {
	case "create":
		ws.Create()
	case "duplicate":
		ws.Duplicate()
	case "load":
		if !filter.InScope(s.cfg.Server.AllowedConsortiums, req.Set.Filter) {
			writeError(w, r, errors.New(errors.ErrCodeForbidden, "saved filter set is outside the allowed %s list", filter.ConsortiumField))
			return
		}
		ws.Load(req.Set)
	case "update":
		if !filter.InScope(s.cfg.Server.AllowedConsortiums, req.Filter) {
			writeError(w, r, errors.New(errors.ErrCodeForbidden, "filter is outside the allowed %s list", filter.ConsortiumField))
			return
		}
		ws.Update(req.Filter)
	case "remove":
		ws.Remove()
	case "clear":
		ws.Clear()
	case "use":
		if req.ID == "" {
			writeError(w, r, badRequest("id is required"))
			return
		}
		if _, err := ws.Use(req.ID); err != nil {
			writeError(w, r, err)
			return
		}
	default:
		writeError(w, r, notFound("unknown workspace action %q", action))
		return
	}

	if err := s.sessions.Set(r.Context(), sess); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, workspaceResponse{SessionID: sess.ID, Workspace: ws.Snapshot()})
}
