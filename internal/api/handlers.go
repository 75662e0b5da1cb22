package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ymatsu/evosync/internal/model"
	"github.com/ymatsu/evosync/internal/query"
	"github.com/ymatsu/evosync/internal/syncer"
)

// ---------------------------------------------------------------------------
// POST /api/sync
// ---------------------------------------------------------------------------

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	// A refresh cycle outlives the request that triggered it.
	go func() {
		if err := s.sync.Refresh(context.Background()); err != nil {
			s.log.Error("sync failed", zap.Error(err))
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// ---------------------------------------------------------------------------
// GET /api/sync/status
// ---------------------------------------------------------------------------

type syncStatusResponse struct {
	State    string          `json:"state"`
	Progress syncer.Progress `json:"progress"`
	Error    string          `json:"error,omitempty"`
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	state, progress, err := s.sync.Status()
	resp := syncStatusResponse{State: state.String(), Progress: progress}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// ---------------------------------------------------------------------------
// GET /api/proposals
// ---------------------------------------------------------------------------

func (s *Server) handleListProposals(w http.ResponseWriter, r *http.Request) {
	q, err := queryFromParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	proposals := s.proposals.Load(r.Context(), q)
	if proposals == nil {
		proposals = []model.Proposal{}
	}
	writeJSON(w, http.StatusOK, proposals)
}

// queryFromParams builds the filter from the request. Absent params keep the
// defaults: all known states, no bookmark filter, sorted by identifier.
func queryFromParams(r *http.Request) (query.Query, error) {
	q := query.Default()
	params := r.URL.Query()

	if raw := params.Get("state"); raw != "" {
		states := make(map[model.State]bool)
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			st := model.ParseState(part)
			if st == model.StateUnknown {
				return query.Query{}, &badParamError{"state", part}
			}
			states[st] = true
		}
		q.States = states
	}

	if raw := params.Get("bookmarked"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return query.Query{}, &badParamError{"bookmarked", raw}
		}
		q.BookmarkedOnly = b
	}

	q.Search = params.Get("q")

	switch sort := params.Get("sort"); query.SortKey(sort) {
	case "":
	case query.SortByID, query.SortByReviewStatus:
		q.Sort = query.SortKey(sort)
	default:
		return query.Query{}, &badParamError{"sort", sort}
	}

	return q, nil
}

type badParamError struct {
	param string
	value string
}

func (e *badParamError) Error() string {
	return "invalid " + e.param + " value: " + e.value
}

// ---------------------------------------------------------------------------
// GET /api/proposals/{id}
// ---------------------------------------------------------------------------

type proposalDetailResponse struct {
	Proposal   model.Proposal `json:"proposal"`
	Bookmarked bool           `json:"bookmarked"`
	Markdown   string         `json:"markdown,omitempty"`
	Translated string         `json:"translated,omitempty"`
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p := s.proposals.Find(r.Context(), id)
	if p == nil {
		writeError(w, http.StatusNotFound, "proposal not found")
		return
	}

	resp := proposalDetailResponse{
		Proposal:   *p,
		Bookmarked: s.bookmarks.IsBookmarked(r.Context(), id),
	}

	md := s.markdowns.Load(r.Context(), *p)
	if md == nil {
		// The body may have been skipped by the last sync cycle; retry it
		// on demand so the detail view is not stuck empty until the next one.
		fetched, err := s.markdowns.Fetch(r.Context(), *p)
		if err != nil {
			s.log.Debug("on-demand markdown fetch failed",
				zap.String("proposal", id), zap.Error(err))
		} else {
			md = fetched
		}
	}
	if md != nil {
		resp.Markdown = md.Text
		if raw := r.URL.Query().Get("translate"); raw != "" {
			if ok, _ := strconv.ParseBool(raw); ok {
				for snapshot := range s.translator.Translate(r.Context(), md.Text) {
					resp.Translated = snapshot
				}
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// ---------------------------------------------------------------------------
// PUT/DELETE /api/proposals/{id}/bookmark
// ---------------------------------------------------------------------------

func (s *Server) handleSetBookmark(w http.ResponseWriter, r *http.Request) {
	s.updateBookmark(w, r, true)
}

func (s *Server) handleDeleteBookmark(w http.ResponseWriter, r *http.Request) {
	s.updateBookmark(w, r, false)
}

func (s *Server) updateBookmark(w http.ResponseWriter, r *http.Request, bookmarked bool) {
	id := chi.URLParam(r, "id")

	if s.proposals.Find(r.Context(), id) == nil {
		writeError(w, http.StatusNotFound, "proposal not found")
		return
	}
	if err := s.bookmarks.SetBookmarked(r.Context(), id, bookmarked); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update bookmark")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "bookmarked": bookmarked})
}

// ---------------------------------------------------------------------------
// GET /api/bookmarks
// ---------------------------------------------------------------------------

func (s *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request) {
	proposals, err := s.bookmarks.All(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list bookmarks")
		return
	}
	if proposals == nil {
		proposals = []model.Proposal{}
	}
	writeJSON(w, http.StatusOK, proposals)
}
