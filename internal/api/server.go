package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/bookcontrol/internal/config"
	"github.com/dgallion1/bookcontrol/internal/pathstore"
	"github.com/dgallion1/bookcontrol/internal/pipeline"
)

// ChapterStore reads and removes stored chapters. *pathstore.Sink
// implements it.
type ChapterStore interface {
	ListChapters(ctx context.Context, book string) ([]pathstore.ChapterMeta, error)
	GetChapter(ctx context.Context, book, id string) (*pathstore.ChapterDetail, error)
	DeleteChapter(ctx context.Context, book, id string) error
}

// Server is the HTTP API server for bookcontrol.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	chapters     ChapterStore
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, chapters ChapterStore, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		chapters:     chapters,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/import", s.handleImport)
		r.Post("/api/import/preview", s.handleImportPreview)
		r.Get("/api/import/{jobID}/status", s.handleImportStatus)
		r.Get("/api/import/{jobID}/chapter", s.handleImportChapter)

		r.Post("/api/scenes/parse", s.handleSceneParse)
		r.Post("/api/scenes/compile", s.handleSceneCompile)

		r.Get("/api/books/{book}/chapters", s.handleListChapters)
		r.Get("/api/books/{book}/chapters/{chapterID}", s.handleGetChapter)
		r.Delete("/api/books/{book}/chapters/{chapterID}", s.handleDeleteChapter)

		r.Get("/api/stats/imports", s.handleImportStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
