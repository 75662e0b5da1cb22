package translate

import (
	"context"
	"testing"
)

func TestNoopPassesThrough(t *testing.T) {
	ch := Noop{}.Translate(context.Background(), "# SE-0001\nbody")

	got, ok := <-ch
	if !ok || got != "# SE-0001\nbody" {
		t.Errorf("snapshot = %q, ok = %v", got, ok)
	}
	if _, ok := <-ch; ok {
		t.Error("channel not closed after final snapshot")
	}
}

func TestNoopCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := <-(Noop{}).Translate(ctx, "body"); ok {
		t.Error("expected closed channel without a snapshot")
	}
}
