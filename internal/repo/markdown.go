package repo

import (
	"context"
	"fmt"

	"github.com/ymatsu/evosync/internal/model"
	"github.com/ymatsu/evosync/internal/store"
)

// ContentFetcher downloads the body text for a proposal link.
type ContentFetcher interface {
	FetchText(ctx context.Context, link string) (url, text string, err error)
}

// MarkdownRepository caches proposal body text in the local store.
type MarkdownRepository struct {
	store   store.MarkdownStore
	content ContentFetcher
}

// NewMarkdownRepository creates a markdown repository over the shared store.
func NewMarkdownRepository(s store.MarkdownStore, content ContentFetcher) *MarkdownRepository {
	return &MarkdownRepository{store: s, content: content}
}

// Fetch downloads the proposal's body and upserts it keyed by
// (url, proposal id). Re-fetching identical text leaves the stored row
// untouched. Network failures propagate to the caller.
func (r *MarkdownRepository) Fetch(ctx context.Context, p model.Proposal) (*model.Markdown, error) {
	url, text, err := r.content.FetchText(ctx, p.Link)
	if err != nil {
		return nil, err
	}
	stored, err := r.store.UpsertMarkdown(ctx, model.NewMarkdown(url, p.ID, text))
	if err != nil {
		return nil, fmt.Errorf("store markdown %s: %w", p.ID, err)
	}
	return &stored, nil
}

// Load returns the cached markdown for the proposal, or nil when absent.
// Local-only; never hits the network.
func (r *MarkdownRepository) Load(ctx context.Context, p model.Proposal) *model.Markdown {
	m, err := r.store.GetMarkdown(ctx, p.ID)
	if err != nil {
		return nil
	}
	return m
}

// Count returns the number of cached bodies, 0 on read failure. Used as the
// progress baseline so already-cached items are pre-credited.
func (r *MarkdownRepository) Count(ctx context.Context) int {
	n, err := r.store.CountMarkdowns(ctx)
	if err != nil {
		return 0
	}
	return n
}

// Unfetched returns the proposals still lacking a cached body, empty on read
// failure.
func (r *MarkdownRepository) Unfetched(ctx context.Context) []model.Proposal {
	proposals, err := r.store.ListUnfetched(ctx)
	if err != nil {
		return nil
	}
	return proposals
}
