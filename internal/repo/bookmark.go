package repo

import (
	"context"
	"time"

	"github.com/ymatsu/evosync/internal/model"
	"github.com/ymatsu/evosync/internal/store"
)

// BookmarkRepository toggles and queries the bookmark relation.
type BookmarkRepository struct {
	store store.BookmarkStore
	now   func() time.Time
}

// NewBookmarkRepository creates a bookmark repository over the shared store.
func NewBookmarkRepository(s store.BookmarkStore) *BookmarkRepository {
	return &BookmarkRepository{store: s, now: time.Now}
}

// IsBookmarked reports whether the proposal is bookmarked. Read failures
// count as not bookmarked.
func (r *BookmarkRepository) IsBookmarked(ctx context.Context, proposalID string) bool {
	ok, err := r.store.IsBookmarked(ctx, proposalID)
	if err != nil {
		return false
	}
	return ok
}

// SetBookmarked sets or clears the bookmark for the proposal. Setting true
// for an identity with no stored proposal is a silent no-op so an orphan mark
// can never exist; both directions are idempotent.
func (r *BookmarkRepository) SetBookmarked(ctx context.Context, proposalID string, bookmarked bool) error {
	if bookmarked {
		return r.store.AddBookmark(ctx, proposalID, r.now())
	}
	return r.store.DeleteBookmark(ctx, proposalID)
}

// All returns the bookmarked proposals.
func (r *BookmarkRepository) All(ctx context.Context) ([]model.Proposal, error) {
	return r.store.ListBookmarked(ctx)
}
