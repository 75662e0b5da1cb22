package store

import "sync"

// ChangeKind identifies which relation a change notification refers to.
type ChangeKind int

const (
	ChangeProposals ChangeKind = iota
	ChangeMarkdowns
	ChangeBookmarks
)

// Change describes one committed mutation of the store.
type Change struct {
	Kind ChangeKind
}

// notifier fans committed-change events out to subscribers so that callers
// can re-derive their projections without manual invalidation bookkeeping.
// Delivery is best effort: a subscriber that is not draining its channel
// misses events rather than blocking writers.
type notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Change
}

// Subscribe registers a change listener. The returned cancel function must be
// called when the listener goes away.
func (n *notifier) Subscribe() (<-chan Change, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]chan Change)
	}
	id := n.nextID
	n.nextID++
	ch := make(chan Change, 16)
	n.subs[id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if _, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (n *notifier) notify(kind ChangeKind) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- Change{Kind: kind}:
		default:
		}
	}
}
