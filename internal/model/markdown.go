package model

import "github.com/google/uuid"

// Markdown is the cached body text for one proposal. A row exists only once
// the first fetch has succeeded; at most one row exists per (URL, ProposalID)
// pair, and read paths look rows up by ProposalID alone.
type Markdown struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	ProposalID string `json:"proposal_id"`
	Text       string `json:"text"`
}

// NewMarkdown creates a markdown record with a fresh surrogate id.
func NewMarkdown(url, proposalID, text string) Markdown {
	return Markdown{
		ID:         uuid.New().String(),
		URL:        url,
		ProposalID: proposalID,
		Text:       text,
	}
}
