package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ymatsu/evosync/internal/model"
	"github.com/ymatsu/evosync/internal/query"
)

// Verify at compile time that Store implements all interfaces.
var (
	_ ProposalReader = (*Store)(nil)
	_ ProposalWriter = (*Store)(nil)
	_ MarkdownStore  = (*Store)(nil)
	_ BookmarkStore  = (*Store)(nil)
)

// Store provides data access to the SQLite database. All mutating operations
// run inside their own transaction; a failed write leaves prior state
// unchanged and concurrent readers never observe a partially-applied batch.
type Store struct {
	db *sql.DB
	notifier
}

// New creates a new Store and initialises the schema.
func New(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// currentSchemaVersion is bumped whenever the schema changes.
// Add a new migration function in the migrations slice below.
const currentSchemaVersion = 1

func (s *Store) migrate() error {
	// Ensure the schema_version table exists.
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		// Fresh database: initialize to version 0.
		if _, err := s.db.Exec(`INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return fmt.Errorf("init schema version: %w", err)
		}
		version = 0
	} else if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	// migrations is an ordered list of migration functions.
	// Index 0 = migration from v0 to v1, etc.
	migrations := []func() error{
		s.migrateV1, // v0 → v1: initial schema
	}

	for i := version; i < len(migrations); i++ {
		if err := migrations[i](); err != nil {
			return fmt.Errorf("migration v%d→v%d: %w", i, i+1, err)
		}
		if _, err := s.db.Exec(`UPDATE schema_version SET version = ?`, i+1); err != nil {
			return fmt.Errorf("update schema version to %d: %w", i+1, err)
		}
	}

	return nil
}

// migrateV1 creates the initial schema (v0 → v1).
//
// state_rank and version_code are derived in Go on every write so that SQL
// ordering matches the model's fixed state ranking and packed version key.
func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS proposals (
		id           TEXT PRIMARY KEY,
		link         TEXT NOT NULL,
		title        TEXT NOT NULL,
		state        TEXT NOT NULL,
		state_rank   INTEGER NOT NULL,
		version      TEXT NOT NULL DEFAULT '',
		version_code INTEGER NOT NULL,
		review_start TEXT NOT NULL DEFAULT '',
		review_end   TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_proposals_review ON proposals(state_rank, version_code DESC, id DESC);

	CREATE TABLE IF NOT EXISTS markdowns (
		id          TEXT PRIMARY KEY,
		url         TEXT NOT NULL,
		proposal_id TEXT NOT NULL REFERENCES proposals(id) ON DELETE CASCADE,
		text        TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_markdowns_unique ON markdowns(url, proposal_id);
	CREATE INDEX IF NOT EXISTS idx_markdowns_proposal ON markdowns(proposal_id);

	CREATE TABLE IF NOT EXISTS bookmarks (
		proposal_id TEXT PRIMARY KEY REFERENCES proposals(id) ON DELETE CASCADE,
		updated_at  TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

const proposalColumns = `id, link, title, state, version, review_start, review_end`

// ---------------------------------------------------------------------------
// Proposals
// ---------------------------------------------------------------------------

// UpsertProposals inserts or updates the given proposals by identity inside a
// single transaction. Existing rows keep their id and take the incoming link,
// title and status; the batch is all-or-nothing.
func (s *Store) UpsertProposals(ctx context.Context, proposals []model.Proposal) error {
	if len(proposals) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO proposals (id, link, title, state, state_rank, version, version_code, review_start, review_end)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			link         = excluded.link,
			title        = excluded.title,
			state        = excluded.state,
			state_rank   = excluded.state_rank,
			version      = excluded.version,
			version_code = excluded.version_code,
			review_start = excluded.review_start,
			review_end   = excluded.review_end`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range proposals {
		st := p.Status
		if _, err := stmt.ExecContext(ctx,
			p.ID, p.Link, strings.TrimSpace(p.Title),
			string(st.State), st.State.Rank(),
			st.Version, model.VersionCode(st.Version),
			st.Start, st.End,
		); err != nil {
			return fmt.Errorf("upsert proposal %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.notify(ChangeProposals)
	return nil
}

// GetProposal returns the proposal with the given identity, or sql.ErrNoRows.
func (s *Store) GetProposal(ctx context.Context, id string) (*model.Proposal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+proposalColumns+` FROM proposals WHERE id = ?`, id)
	return scanProposal(row)
}

// GetProposals returns the proposals matching the given identity set, ordered
// by id descending. Absent identities are simply omitted.
func (s *Store) GetProposals(ctx context.Context, ids []string) ([]model.Proposal, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	q := `SELECT ` + proposalColumns + ` FROM proposals WHERE id IN (` +
		strings.Join(placeholders, ",") + `) ORDER BY id DESC`
	return s.queryProposals(ctx, q, args...)
}

// AllProposals returns every stored proposal, ordered by id descending.
func (s *Store) AllProposals(ctx context.Context) ([]model.Proposal, error) {
	return s.queryProposals(ctx,
		`SELECT `+proposalColumns+` FROM proposals ORDER BY id DESC`)
}

// ListProposals runs a predicate-filtered, sorted scan described by the query.
func (s *Store) ListProposals(ctx context.Context, q query.Query) ([]model.Proposal, error) {
	where, args := q.Where()
	stmt := `SELECT ` + proposalColumns + ` FROM proposals WHERE ` + where +
		` ORDER BY ` + q.OrderBy()
	return s.queryProposals(ctx, stmt, args...)
}

// CountProposals returns the total number of stored proposals.
func (s *Store) CountProposals(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM proposals`).Scan(&n)
	return n, err
}

// DeleteProposal removes a proposal; its bookmark and cached markdown go with
// it via the foreign-key cascade. Normal sync never deletes: proposals that
// disappear from the feed stay available offline.
func (s *Store) DeleteProposal(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM proposals WHERE id = ?`, id); err != nil {
		return err
	}
	s.notify(ChangeProposals)
	return nil
}

// ---------------------------------------------------------------------------
// Markdowns
// ---------------------------------------------------------------------------

// UpsertMarkdown stores the markdown keyed by (url, proposal id). When a row
// already exists with identical text the call is a no-op returning the stored
// row, so repeated fetches of unchanged content cause no row churn and no
// change notification.
func (s *Store) UpsertMarkdown(ctx context.Context, m model.Markdown) (model.Markdown, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Markdown{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var existing model.Markdown
	err = tx.QueryRowContext(ctx,
		`SELECT id, url, proposal_id, text FROM markdowns WHERE url = ? AND proposal_id = ?`,
		m.URL, m.ProposalID,
	).Scan(&existing.ID, &existing.URL, &existing.ProposalID, &existing.Text)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO markdowns (id, url, proposal_id, text) VALUES (?, ?, ?, ?)`,
			m.ID, m.URL, m.ProposalID, m.Text,
		); err != nil {
			return model.Markdown{}, fmt.Errorf("insert markdown: %w", err)
		}
	case err != nil:
		return model.Markdown{}, err
	case existing.Text == m.Text:
		return existing, tx.Commit()
	default:
		if _, err := tx.ExecContext(ctx,
			`UPDATE markdowns SET text = ? WHERE id = ?`, m.Text, existing.ID,
		); err != nil {
			return model.Markdown{}, fmt.Errorf("update markdown: %w", err)
		}
		m.ID = existing.ID
	}

	if err := tx.Commit(); err != nil {
		return model.Markdown{}, err
	}
	s.notify(ChangeMarkdowns)
	return m, nil
}

// GetMarkdown returns the cached markdown for a proposal, or sql.ErrNoRows.
func (s *Store) GetMarkdown(ctx context.Context, proposalID string) (*model.Markdown, error) {
	var m model.Markdown
	err := s.db.QueryRowContext(ctx,
		`SELECT id, url, proposal_id, text FROM markdowns WHERE proposal_id = ?`, proposalID,
	).Scan(&m.ID, &m.URL, &m.ProposalID, &m.Text)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CountMarkdowns returns the number of cached markdown blobs.
func (s *Store) CountMarkdowns(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM markdowns`).Scan(&n)
	return n, err
}

// ListUnfetched returns proposals without cached markdown, id descending.
func (s *Store) ListUnfetched(ctx context.Context) ([]model.Proposal, error) {
	return s.queryProposals(ctx, `
		SELECT `+proposalColumns+` FROM proposals
		WHERE id NOT IN (SELECT proposal_id FROM markdowns)
		ORDER BY id DESC`)
}

// ---------------------------------------------------------------------------
// Bookmarks
// ---------------------------------------------------------------------------

// AddBookmark inserts a bookmark for the proposal. The insert is gated on the
// parent row existing, so bookmarking an unknown identity is a silent no-op
// and an orphan mark can never be created. Already-bookmarked is a no-op too.
func (s *Store) AddBookmark(ctx context.Context, proposalID string, now time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO bookmarks (proposal_id, updated_at)
		SELECT id, ? FROM proposals WHERE id = ?`,
		now.UTC().Format(time.RFC3339), proposalID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.notify(ChangeBookmarks)
	}
	return nil
}

// DeleteBookmark removes any bookmark for the proposal.
func (s *Store) DeleteBookmark(ctx context.Context, proposalID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE proposal_id = ?`, proposalID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.notify(ChangeBookmarks)
	}
	return nil
}

// IsBookmarked reports whether a bookmark row exists for the proposal.
func (s *Store) IsBookmarked(ctx context.Context, proposalID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookmarks WHERE proposal_id = ?`, proposalID).Scan(&n)
	return n > 0, err
}

// ListBookmarked returns the proposals that carry a bookmark, id descending.
func (s *Store) ListBookmarked(ctx context.Context) ([]model.Proposal, error) {
	return s.queryProposals(ctx, `
		SELECT `+prefixedProposalColumns+` FROM proposals p
		JOIN bookmarks b ON b.proposal_id = p.id
		ORDER BY p.id DESC`)
}

var prefixedProposalColumns = "p." + strings.ReplaceAll(proposalColumns, ", ", ", p.")

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

type scanner interface {
	Scan(dest ...any) error
}

func scanProposal(row scanner) (*model.Proposal, error) {
	var p model.Proposal
	var state string
	err := row.Scan(&p.ID, &p.Link, &p.Title, &state,
		&p.Status.Version, &p.Status.Start, &p.Status.End)
	if err != nil {
		return nil, err
	}
	p.Status.State = model.ParseState(state)
	return &p, nil
}

func (s *Store) queryProposals(ctx context.Context, q string, args ...any) ([]model.Proposal, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proposals []model.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, *p)
	}
	return proposals, rows.Err()
}
