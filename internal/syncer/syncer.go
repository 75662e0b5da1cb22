// Package syncer drives one refresh cycle: pull the proposal feed into the
// store, then fan out over proposals that still lack cached markdown.
package syncer

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/ymatsu/evosync/internal/model"
)

// State identifies where the syncer is within a refresh cycle.
type State int

const (
	StateIdle State = iota
	StateFetchingList
	StateFetchingContent
)

func (s State) String() string {
	switch s {
	case StateFetchingList:
		return "fetchingList"
	case StateFetchingContent:
		return "fetchingContent"
	default:
		return "idle"
	}
}

// Progress counts markdown downloads within one cycle. Already-cached bodies
// are pre-credited to Current so the indicator never regresses, and Current
// always equals Total once the cycle drains, even when individual fetches
// failed. Items that failed simply stay unfetched until the next cycle.
type Progress struct {
	Total   int `json:"total"`
	Current int `json:"current"`
}

// ProposalSyncer is the slice of the proposal repository the syncer needs.
type ProposalSyncer interface {
	FetchAndSync(ctx context.Context) ([]model.Proposal, error)
	All(ctx context.Context) []model.Proposal
}

// MarkdownFetcher is the slice of the markdown repository the syncer needs.
type MarkdownFetcher interface {
	Fetch(ctx context.Context, p model.Proposal) (*model.Markdown, error)
	Count(ctx context.Context) int
	Unfetched(ctx context.Context) []model.Proposal
}

// defaultConcurrency bounds in-flight content fetches. The upstream design
// let the fan-out width equal the item count; capping it keeps a full sync
// from opening hundreds of connections against the content host.
const defaultConcurrency = 8

// Syncer owns the refresh state machine:
//
//	Idle -> FetchingList -> FetchingContent -> Idle
//
// A new Refresh supersedes any cycle still in flight: the previous cycle's
// fetches are cancelled and their late results are discarded by cycle token,
// so stale work never moves the current progress counters.
type Syncer struct {
	proposals ProposalSyncer
	markdowns MarkdownFetcher
	log       *zap.Logger
	limit     int

	mu       sync.Mutex
	state    State
	progress Progress
	lastErr  error
	cycle    uint64
	cancel   context.CancelFunc
}

// New creates a Syncer. A non-positive concurrency falls back to the default
// cap.
func New(proposals ProposalSyncer, markdowns MarkdownFetcher, log *zap.Logger, concurrency int) *Syncer {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Syncer{
		proposals: proposals,
		markdowns: markdowns,
		log:       log,
		limit:     concurrency,
	}
}

// Refresh runs one full sync cycle and blocks until it drains. The returned
// error is non-nil only when the list fetch failed and there is no cached
// data to fall back on; with prior data the failure is logged and the stale
// set stays visible.
func (s *Syncer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.cycle++
	token := s.cycle
	if s.cancel != nil {
		// Supersede the previous cycle's in-flight fetches.
		s.cancel()
	}
	cctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = StateFetchingList
	s.lastErr = nil
	s.progress = Progress{}
	s.mu.Unlock()

	proposals, err := s.proposals.FetchAndSync(cctx)
	if err != nil {
		cached := s.proposals.All(cctx)
		s.mu.Lock()
		defer s.mu.Unlock()
		if token != s.cycle {
			return nil
		}
		s.state = StateIdle
		if len(cached) > 0 {
			// Stale-while-revalidate: keep serving what we already have.
			s.log.Warn("list refresh failed, serving cached proposals",
				zap.Int("cached", len(cached)), zap.Error(err))
			return nil
		}
		s.lastErr = err
		return err
	}

	s.log.Info("proposal list synced", zap.Int("proposals", len(proposals)))
	s.fetchContent(cctx, token, len(proposals))
	return nil
}

// fetchContent fans out over proposals lacking markdown with bounded
// concurrency. Per-item failures are logged and swallowed; cancellation is
// not an error at all.
func (s *Syncer) fetchContent(ctx context.Context, token uint64, total int) {
	if !s.transition(token, StateFetchingContent, Progress{Total: total, Current: s.markdowns.Count(ctx)}) {
		return
	}

	pending := s.markdowns.Unfetched(ctx)
	sem := make(chan struct{}, s.limit)
	var wg sync.WaitGroup

schedule:
	for _, p := range pending {
		select {
		case <-ctx.Done():
			break schedule
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(p model.Proposal) {
			defer wg.Done()
			defer func() { <-sem }()
			s.fetchOne(ctx, token, p)
		}(p)
	}
	wg.Wait()

	// Failed items stay unfetched for the next cycle, but the indicator
	// still lands on 100% once the group drains.
	s.transition(token, StateIdle, Progress{Total: total, Current: total})
}

func (s *Syncer) fetchOne(ctx context.Context, token uint64, p model.Proposal) {
	if _, err := s.markdowns.Fetch(ctx, p); err != nil {
		if ctx.Err() == nil && !errors.Is(err, context.Canceled) {
			s.log.Debug("markdown fetch failed", zap.String("proposal", p.ID), zap.Error(err))
		}
		return
	}
	s.mu.Lock()
	if token == s.cycle {
		s.progress.Current++
	}
	s.mu.Unlock()
}

// transition applies a state change unless the cycle has been superseded.
func (s *Syncer) transition(token uint64, state State, progress Progress) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.cycle {
		return false
	}
	s.state = state
	s.progress = progress
	return true
}

// Status returns the current cycle state, progress, and the last error that
// was surfaced (nil while stale data is covering for a failed refresh).
func (s *Syncer) Status() (State, Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.progress, s.lastErr
}

// Close cancels any in-flight cycle.
func (s *Syncer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}
