// Package translate turns proposal markdown into another language. The
// transform is a black box behind the Translator interface; callers only see
// a stream of progressively fuller snapshots of the translated document.
package translate

import "context"

// Translator streams translated snapshots of a markdown document. Each value
// received from the channel supersedes the previous one, and the channel is
// closed once the final snapshot has been sent or the context is cancelled.
type Translator interface {
	Translate(ctx context.Context, markdown string) <-chan string
}

// Noop passes the source text through unchanged in a single snapshot. It is
// the default collaborator when no translation backend is configured.
type Noop struct{}

func (Noop) Translate(ctx context.Context, markdown string) <-chan string {
	out := make(chan string, 1)
	select {
	case <-ctx.Done():
	default:
		out <- markdown
	}
	close(out)
	return out
}
