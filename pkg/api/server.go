// Package api serves the filter compiler, query builders, graph pipeline
// and workspace sessions over HTTP.
//
// Routes live under /v1 and exchange JSON. Errors are reported as
//
//	{"code": "INVALID_FILTER", "message": "...", "requestId": "..."}
//
// with the HTTP status derived from the error code.
package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/portalcore/pkg/config"
	"github.com/matzehuels/portalcore/pkg/pipeline"
	"github.com/matzehuels/portalcore/pkg/session"
)

// RequestTimeout bounds the time a handler may spend on one request.
const RequestTimeout = 2 * time.Minute

// Server is the HTTP front end. Create one with New.
type Server struct {
	runner   *pipeline.Runner
	sessions session.Store
	cfg      config.Config
	logger   *log.Logger
	router   chi.Router
}

// New wires a server around runner and sessions. A nil store gets an
// in-memory store using the configured session TTL.
func New(runner *pipeline.Runner, sessions session.Store, cfg config.Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if sessions == nil {
		sessions = session.NewMemoryStore(cfg.Server.SessionTTL())
	}
	s := &Server{
		runner:   runner,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	r.Use(middleware.Timeout(RequestTimeout))

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))

		r.Post("/filters/compile", s.handleCompile)
		r.Post("/filters/sql", s.handleSQL)

		r.Post("/queries/{kind}", s.handleQuery)

		r.Post("/graph", s.handleGraph)
		r.Post("/graph/layout", s.handleLayout)
		r.Post("/graph/structure", s.handleStructure)

		r.Post("/workspaces", s.handleNewWorkspace)
		r.Get("/workspaces/{session}", s.handleGetWorkspace)
		r.Delete("/workspaces/{session}", s.handleDeleteWorkspace)
		r.Post("/workspaces/{session}/{action}", s.handleWorkspaceAction)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, notFound("no route for %s %s", r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{
			Code:      "METHOD_NOT_ALLOWED",
			Message:   r.Method + " is not allowed on " + r.URL.Path,
			RequestID: RequestIDFrom(r.Context()),
		})
	})
	return r
}

// ListenAndServe serves on the configured address until ctx is canceled,
// then drains in-flight requests. Expired sessions are swept meanwhile.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout(),
		WriteTimeout: s.cfg.Server.WriteTimeout(),
	}

	if m, ok := s.sessions.(*session.MemoryStore); ok {
		go m.RunCleanup(ctx, time.Minute)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
