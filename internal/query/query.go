// Package query translates the user-facing facets (status filter, bookmark
// filter, free-text search, sort key) into a deterministic SQL predicate and
// ordering over the proposals table. It knows nothing about the store beyond
// the column names.
package query

import (
	"strings"

	"github.com/ymatsu/evosync/internal/model"
)

// SortKey selects the ordering applied to proposal scans.
type SortKey string

const (
	// SortByID orders by proposal identifier, descending.
	SortByID SortKey = "proposalID"
	// SortByReviewStatus orders by state rank ascending, then version code
	// descending, then identifier descending.
	SortByReviewStatus SortKey = "reviewStatus"
)

// Query describes one filter/sort pass over the proposal set.
//
// When Search is non-empty it supersedes the state and bookmark facets
// entirely: the predicate becomes a case-sensitive substring match against
// the title, the identifier, or the state's display label.
type Query struct {
	// States is the per-state inclusion map. States absent from the map are
	// excluded, so an empty map matches nothing.
	States map[model.State]bool

	// BookmarkedOnly additionally requires a bookmark row for the proposal.
	BookmarkedOnly bool

	// Search is the free-text query, empty when inactive.
	Search string

	Sort SortKey
}

// Default is the query the list surface starts from: every known state
// included, no bookmark filter, sorted by identifier.
func Default() Query {
	states := make(map[model.State]bool, len(model.KnownStates))
	for _, s := range model.KnownStates {
		states[s] = true
	}
	return Query{States: states, Sort: SortByID}
}

// Where renders the predicate as a SQL fragment with positional bind args.
// The fragment never comes back empty; an all-excluding filter renders a
// constant false so callers can always splice it after WHERE.
func (q Query) Where() (string, []any) {
	if q.Search != "" {
		// instr is case sensitive, unlike LIKE.
		cond := "(instr(title, ?) > 0 OR instr(id, ?) > 0 OR instr(" + stateTitleExpr + ", ?) > 0)"
		return cond, []any{q.Search, q.Search, q.Search}
	}

	included := make([]string, 0, len(q.States))
	for _, s := range model.KnownStates {
		if q.States[s] {
			included = append(included, string(s))
		}
	}
	if q.States[model.StateUnknown] {
		included = append(included, string(model.StateUnknown))
	}
	if len(included) == 0 {
		return "1 = 0", nil
	}

	args := make([]any, len(included))
	placeholders := make([]string, len(included))
	for i, s := range included {
		placeholders[i] = "?"
		args[i] = s
	}
	cond := "state IN (" + strings.Join(placeholders, ",") + ")"
	if q.BookmarkedOnly {
		cond += " AND EXISTS (SELECT 1 FROM bookmarks b WHERE b.proposal_id = proposals.id)"
	}
	return cond, args
}

// OrderBy renders the ordering clause for the query's sort key.
func (q Query) OrderBy() string {
	switch q.Sort {
	case SortByReviewStatus:
		return "state_rank ASC, version_code DESC, id DESC"
	default:
		return "id DESC"
	}
}

// stateTitleExpr maps the raw state column onto its display label in SQL so
// that free-text search can match what the user actually sees.
var stateTitleExpr = buildStateTitleExpr()

func buildStateTitleExpr() string {
	var b strings.Builder
	b.WriteString("CASE state")
	for _, s := range model.KnownStates {
		b.WriteString(" WHEN '")
		b.WriteString(string(s))
		b.WriteString("' THEN '")
		b.WriteString(s.Title())
		b.WriteString("'")
	}
	b.WriteString(" ELSE '")
	b.WriteString(model.StateUnknown.Title())
	b.WriteString("' END")
	return b.String()
}
