package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ymatsu/evosync/internal/model"
)

const sampleFeed = `{
	"proposals": [
		{"id": "SE-0001", "link": "0001-a.md", "title": " Foo ", "status": {"state": "accepted"}},
		{"id": "SE-0002", "link": "0002-b.md", "title": "Bar", "status": {"state": "activeReview", "version": "6.2", "start": "2026-01-01", "end": "2026-02-01"}},
		{"id": "SE-0003", "link": "0003-c.md", "title": "Baz", "status": {"state": "somethingNew"}}
	]
}`

func TestFetchProposals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	got, err := c.FetchProposals(context.Background())
	if err != nil {
		t.Fatalf("FetchProposals: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Title != "Foo" {
		t.Errorf("Title = %q, want trimmed %q", got[0].Title, "Foo")
	}
	if got[1].Status.State != model.StateActiveReview || got[1].Status.Version != "6.2" {
		t.Errorf("status = %+v, want activeReview/6.2", got[1].Status)
	}
	if got[2].Status.State != model.StateUnknown {
		t.Errorf("state = %q, want unknown fallback", got[2].Status.State)
	}
}

func TestFetchProposalsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).FetchProposals(context.Background())
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable {
		t.Fatalf("err = %v, want StatusError 503", err)
	}
}

func TestFetchProposalsDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"proposals": [`))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, time.Second).FetchProposals(context.Background()); err == nil {
		t.Fatal("expected decode error for malformed feed")
	}
}
