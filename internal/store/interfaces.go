package store

import (
	"context"
	"time"

	"github.com/ymatsu/evosync/internal/model"
	"github.com/ymatsu/evosync/internal/query"
)

// ProposalReader provides read access to proposals.
type ProposalReader interface {
	GetProposal(ctx context.Context, id string) (*model.Proposal, error)
	GetProposals(ctx context.Context, ids []string) ([]model.Proposal, error)
	AllProposals(ctx context.Context) ([]model.Proposal, error)
	ListProposals(ctx context.Context, q query.Query) ([]model.Proposal, error)
	CountProposals(ctx context.Context) (int, error)
}

// ProposalWriter provides write access to proposals.
type ProposalWriter interface {
	UpsertProposals(ctx context.Context, proposals []model.Proposal) error
	DeleteProposal(ctx context.Context, id string) error
}

// ProposalStore combines proposal reads and writes for the repository layer.
type ProposalStore interface {
	ProposalReader
	ProposalWriter
}

// MarkdownStore provides access to cached markdown bodies.
type MarkdownStore interface {
	UpsertMarkdown(ctx context.Context, m model.Markdown) (model.Markdown, error)
	GetMarkdown(ctx context.Context, proposalID string) (*model.Markdown, error)
	CountMarkdowns(ctx context.Context) (int, error)
	ListUnfetched(ctx context.Context) ([]model.Proposal, error)
}

// BookmarkStore provides access to the bookmark relation.
type BookmarkStore interface {
	AddBookmark(ctx context.Context, proposalID string, now time.Time) error
	DeleteBookmark(ctx context.Context, proposalID string) error
	IsBookmarked(ctx context.Context, proposalID string) (bool, error)
	ListBookmarked(ctx context.Context) ([]model.Proposal, error)
}
