package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ymatsu/evosync/internal/feed"
	"github.com/ymatsu/evosync/internal/model"
	"github.com/ymatsu/evosync/internal/repo"
	"github.com/ymatsu/evosync/internal/store"
	"github.com/ymatsu/evosync/internal/syncer"
)

type upstream struct {
	srv       *httptest.Server
	proposals []model.Proposal
}

// newUpstream serves an evolution feed plus markdown bodies for every listed
// proposal.
func newUpstream(t *testing.T, n int) *upstream {
	t.Helper()
	u := &upstream{}
	for i := 1; i <= n; i++ {
		u.proposals = append(u.proposals, model.NewProposal(
			fmt.Sprintf("SE-%04d", i),
			fmt.Sprintf("%04d-proposal.md", i),
			fmt.Sprintf("Proposal %d", i),
			model.Status{State: model.StateAccepted, Version: "6.1"},
		))
	}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/evolution.json" {
			json.NewEncoder(w).Encode(map[string]any{"proposals": u.proposals})
			return
		}
		fmt.Fprintf(w, "# Body of %s", strings.TrimPrefix(r.URL.Path, "/"))
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func newTestServer(t *testing.T, u *upstream) (*Server, *store.Store) {
	t.Helper()
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := store.New(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	proposals := repo.NewProposalRepository(s, feed.NewClient(u.srv.URL+"/evolution.json", time.Second))
	markdowns := repo.NewMarkdownRepository(s, feed.NewContentClient(u.srv.URL, "", time.Second))
	bookmarks := repo.NewBookmarkRepository(s)
	sy := syncer.New(proposals, markdowns, nil, 4)
	t.Cleanup(sy.Close)

	return New(proposals, markdowns, bookmarks, sy, nil, nil, "*"), s
}

func doRequest(t *testing.T, handler http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(""))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode JSON: %v\nbody: %s", err, rr.Body.String())
	}
}

func seed(t *testing.T, s *store.Store, u *upstream) {
	t.Helper()
	if err := s.UpsertProposals(context.Background(), u.proposals); err != nil {
		t.Fatalf("seed proposals: %v", err)
	}
}

func TestListProposals(t *testing.T) {
	u := newUpstream(t, 3)
	srv, s := newTestServer(t, u)
	seed(t, s, u)

	rr := doRequest(t, srv.Handler(), "GET", "/api/proposals")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rr.Code, rr.Body.String())
	}

	var got []model.Proposal
	decodeJSON(t, rr, &got)
	if len(got) != 3 || got[0].ID != "SE-0003" {
		t.Errorf("got %d proposals, first %q; want 3 sorted id desc", len(got), got[0].ID)
	}
}

func TestListProposalsFilters(t *testing.T) {
	u := newUpstream(t, 2)
	u.proposals[1].Status.State = model.StateRejected
	srv, s := newTestServer(t, u)
	seed(t, s, u)

	rr := doRequest(t, srv.Handler(), "GET", "/api/proposals?state=rejected")
	var got []model.Proposal
	decodeJSON(t, rr, &got)
	if len(got) != 1 || got[0].ID != "SE-0002" {
		t.Errorf("state filter returned %v", got)
	}

	rr = doRequest(t, srv.Handler(), "GET", "/api/proposals?q=Proposal+1")
	got = nil
	decodeJSON(t, rr, &got)
	if len(got) != 1 || got[0].ID != "SE-0001" {
		t.Errorf("search returned %v", got)
	}
}

func TestListProposalsBadParams(t *testing.T) {
	u := newUpstream(t, 1)
	srv, _ := newTestServer(t, u)

	for _, path := range []string{
		"/api/proposals?state=bogus",
		"/api/proposals?bookmarked=maybe",
		"/api/proposals?sort=alphabet",
	} {
		if rr := doRequest(t, srv.Handler(), "GET", path); rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rr.Code)
		}
	}
}

func TestGetProposalFetchesMarkdownOnDemand(t *testing.T) {
	u := newUpstream(t, 1)
	srv, s := newTestServer(t, u)
	seed(t, s, u)

	if n, _ := s.CountMarkdowns(context.Background()); n != 0 {
		t.Fatalf("precondition: %d markdowns cached", n)
	}

	rr := doRequest(t, srv.Handler(), "GET", "/api/proposals/SE-0001")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rr.Code, rr.Body.String())
	}

	var got proposalDetailResponse
	decodeJSON(t, rr, &got)
	if got.Proposal.ID != "SE-0001" {
		t.Errorf("proposal = %q", got.Proposal.ID)
	}
	if got.Markdown != "# Body of 0001-proposal.md" {
		t.Errorf("markdown = %q", got.Markdown)
	}
	if n, _ := s.CountMarkdowns(context.Background()); n != 1 {
		t.Errorf("on-demand fetch not cached, count = %d", n)
	}
}

func TestGetProposalTranslate(t *testing.T) {
	u := newUpstream(t, 1)
	srv, s := newTestServer(t, u)
	seed(t, s, u)

	rr := doRequest(t, srv.Handler(), "GET", "/api/proposals/SE-0001?translate=true")
	var got proposalDetailResponse
	decodeJSON(t, rr, &got)
	if got.Translated != got.Markdown {
		t.Errorf("noop translation = %q, want the source text", got.Translated)
	}
}

func TestGetProposalNotFound(t *testing.T) {
	u := newUpstream(t, 1)
	srv, _ := newTestServer(t, u)

	if rr := doRequest(t, srv.Handler(), "GET", "/api/proposals/SE-9999"); rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestBookmarkLifecycle(t *testing.T) {
	u := newUpstream(t, 2)
	srv, s := newTestServer(t, u)
	seed(t, s, u)
	h := srv.Handler()

	if rr := doRequest(t, h, "PUT", "/api/proposals/SE-0002/bookmark"); rr.Code != http.StatusOK {
		t.Fatalf("put status = %d", rr.Code)
	}

	rr := doRequest(t, h, "GET", "/api/bookmarks")
	var got []model.Proposal
	decodeJSON(t, rr, &got)
	if len(got) != 1 || got[0].ID != "SE-0002" {
		t.Errorf("bookmarks = %v", got)
	}

	if rr := doRequest(t, h, "DELETE", "/api/proposals/SE-0002/bookmark"); rr.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rr.Code)
	}
	rr = doRequest(t, h, "GET", "/api/bookmarks")
	got = nil
	decodeJSON(t, rr, &got)
	if len(got) != 0 {
		t.Errorf("bookmarks after delete = %v", got)
	}

	if rr := doRequest(t, h, "PUT", "/api/proposals/SE-9999/bookmark"); rr.Code != http.StatusNotFound {
		t.Errorf("missing proposal bookmark status = %d, want 404", rr.Code)
	}
}

func TestSyncEndpoints(t *testing.T) {
	u := newUpstream(t, 3)
	srv, s := newTestServer(t, u)
	h := srv.Handler()

	if rr := doRequest(t, h, "POST", "/api/sync"); rr.Code != http.StatusAccepted {
		t.Fatalf("sync status = %d", rr.Code)
	}

	// The cycle runs detached from the request; wait for it to drain.
	deadline := time.Now().Add(5 * time.Second)
	for {
		rr := doRequest(t, h, "GET", "/api/sync/status")
		var got syncStatusResponse
		decodeJSON(t, rr, &got)
		if got.State == "idle" && got.Progress.Total == 3 {
			if got.Progress.Current != 3 {
				t.Errorf("progress = %+v, want 3/3", got.Progress)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("sync did not drain, last status %+v", got)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if n, _ := s.CountProposals(context.Background()); n != 3 {
		t.Errorf("proposals synced = %d, want 3", n)
	}
	if n, _ := s.CountMarkdowns(context.Background()); n != 3 {
		t.Errorf("markdowns synced = %d, want 3", n)
	}
}
