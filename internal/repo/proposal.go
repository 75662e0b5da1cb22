// Package repo holds the repositories the sync orchestrator and the API
// shell work against. Each repository is a stateless handle over the shared
// store; every operation runs in its own transaction, so handles are safe to
// call from concurrent call sites.
package repo

import (
	"context"
	"fmt"

	"github.com/ymatsu/evosync/internal/model"
	"github.com/ymatsu/evosync/internal/query"
	"github.com/ymatsu/evosync/internal/store"
)

// FeedFetcher downloads the remote proposal feed.
type FeedFetcher interface {
	FetchProposals(ctx context.Context) ([]model.Proposal, error)
}

// ProposalRepository syncs the remote feed into the local store and serves
// proposal reads.
type ProposalRepository struct {
	store store.ProposalStore
	feed  FeedFetcher
}

// NewProposalRepository creates a proposal repository over the shared store.
func NewProposalRepository(s store.ProposalStore, feed FeedFetcher) *ProposalRepository {
	return &ProposalRepository{store: s, feed: feed}
}

// FetchAndSync downloads the feed and upserts every proposal by identity in a
// single transaction, then returns the full local set sorted by id
// descending. Transport and decode failures abort before any store mutation.
//
// The feed is authoritative for link/status/title but never for removal:
// proposals that disappear from the feed stay stored, keeping previously seen
// items readable offline.
func (r *ProposalRepository) FetchAndSync(ctx context.Context) ([]model.Proposal, error) {
	proposals, err := r.feed.FetchProposals(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.store.UpsertProposals(ctx, proposals); err != nil {
		return nil, fmt.Errorf("store proposals: %w", err)
	}
	return r.store.AllProposals(ctx)
}

// Find returns the proposal with the given identity, or nil. Lookup misses
// are never an error.
func (r *ProposalRepository) Find(ctx context.Context, id string) *model.Proposal {
	p, err := r.store.GetProposal(ctx, id)
	if err != nil {
		return nil
	}
	return p
}

// FindAll returns the proposals matching the identity set; absent entries are
// omitted and read failures yield an empty result.
func (r *ProposalRepository) FindAll(ctx context.Context, ids []string) []model.Proposal {
	proposals, err := r.store.GetProposals(ctx, ids)
	if err != nil {
		return nil
	}
	return proposals
}

// Load runs a filtered, sorted read-only scan. A failed store read returns an
// empty list, not an error.
func (r *ProposalRepository) Load(ctx context.Context, q query.Query) []model.Proposal {
	proposals, err := r.store.ListProposals(ctx, q)
	if err != nil {
		return nil
	}
	return proposals
}

// All returns every stored proposal sorted by the default key, empty on read
// failure.
func (r *ProposalRepository) All(ctx context.Context) []model.Proposal {
	proposals, err := r.store.AllProposals(ctx)
	if err != nil {
		return nil
	}
	return proposals
}
