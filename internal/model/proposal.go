package model

import "strings"

// Status carries the review lifecycle metadata embedded in a proposal.
type Status struct {
	State State `json:"state"`
	// Version is the language release in which the change shipped, if any.
	Version string `json:"version,omitempty"`
	// Start and End bound the review period. Both are opaque date strings
	// taken verbatim from the feed.
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Proposal is one synchronized metadata record from the evolution feed.
//
// ID is the stable identity key (e.g. "SE-0418"): re-ingesting a proposal
// with a known ID updates the other fields in place and never creates a
// duplicate.
type Proposal struct {
	ID     string `json:"id"`
	Link   string `json:"link"`
	Title  string `json:"title"`
	Status Status `json:"status"`
}

// NewProposal builds a proposal, trimming surrounding whitespace from the
// title. The feed is sloppy about title padding, so every write path trims.
func NewProposal(id, link, title string, status Status) Proposal {
	return Proposal{
		ID:     id,
		Link:   link,
		Title:  strings.TrimSpace(title),
		Status: status,
	}
}

// Update applies the link, title and status of a newer snapshot with the same
// identity. A snapshot with a different ID is ignored.
func (p *Proposal) Update(other Proposal) {
	if p.ID != other.ID {
		return
	}
	p.Link = other.Link
	p.Title = strings.TrimSpace(other.Title)
	p.Status = other.Status
}
