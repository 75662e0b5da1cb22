// Package api exposes the HTTP surface: sync control, proposal queries,
// markdown detail, and bookmarks.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ymatsu/evosync/internal/repo"
	"github.com/ymatsu/evosync/internal/syncer"
	"github.com/ymatsu/evosync/internal/translate"
)

// maxRequestBody is the maximum allowed request body size (1 MB).
const maxRequestBody int64 = 1 << 20

// Server holds the HTTP handlers and dependencies.
type Server struct {
	proposals  *repo.ProposalRepository
	markdowns  *repo.MarkdownRepository
	bookmarks  *repo.BookmarkRepository
	sync       *syncer.Syncer
	translator translate.Translator
	log        *zap.Logger
	corsOrigin string
	router     chi.Router
}

// New creates a new API server. A nil translator disables translation; a nil
// logger falls back to a no-op one.
func New(proposals *repo.ProposalRepository, markdowns *repo.MarkdownRepository,
	bookmarks *repo.BookmarkRepository, sync *syncer.Syncer,
	translator translate.Translator, log *zap.Logger, corsOrigin string) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if translator == nil {
		translator = translate.Noop{}
	}
	if corsOrigin == "" {
		corsOrigin = "*"
	}
	srv := &Server{
		proposals:  proposals,
		markdowns:  markdowns,
		bookmarks:  bookmarks,
		sync:       sync,
		translator: translator,
		log:        log,
		corsOrigin: corsOrigin,
	}
	srv.routes()
	return srv
}

// Handler returns the root http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)
	r.Use(limitBody)
	r.Use(jsonContent)

	r.Route("/api", func(r chi.Router) {
		r.Post("/sync", s.handleSync)
		r.Get("/sync/status", s.handleSyncStatus)
		r.Get("/proposals", s.handleListProposals)
		r.Get("/proposals/{id}", s.handleGetProposal)
		r.Put("/proposals/{id}/bookmark", s.handleSetBookmark)
		r.Delete("/proposals/{id}/bookmark", s.handleDeleteBookmark)
		r.Get("/bookmarks", s.handleListBookmarks)
	})

	s.router = r
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)))
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limitBody restricts the request body to maxRequestBody bytes.
func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		next.ServeHTTP(w, r)
	})
}

func jsonContent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
