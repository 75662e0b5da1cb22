package model

import "time"

// Bookmark marks a proposal as bookmarked by the user. The existence of a row
// is the bookmarked state: there is no boolean column, and deleting the
// parent proposal cascades to the bookmark.
type Bookmark struct {
	ProposalID string    `json:"proposal_id"`
	UpdatedAt  time.Time `json:"updated_at"`
}
