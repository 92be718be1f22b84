package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
)

// idleTracker counts in-flight requests from CDP network events.
type idleTracker struct {
	mu       sync.Mutex
	now      func() time.Time
	inflight map[network.RequestID]struct{}
	// settled is when the in-flight count last dropped to or below the
	// threshold; zero while above it.
	settled   time.Time
	threshold int
}

func newIdleTracker(now func() time.Time) *idleTracker {
	return &idleTracker{
		now:      now,
		inflight: make(map[network.RequestID]struct{}),
		settled:  now(),
	}
}

// handle is registered with chromedp.ListenTarget and must not block.
func (t *idleTracker) handle(ev any) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		t.start(e.RequestID)
	case *network.EventLoadingFinished:
		t.finish(e.RequestID)
	case *network.EventLoadingFailed:
		t.finish(e.RequestID)
	}
}

func (t *idleTracker) start(id network.RequestID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight[id] = struct{}{}
	if len(t.inflight) > t.threshold {
		t.settled = time.Time{}
	}
}

func (t *idleTracker) finish(id network.RequestID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.inflight[id]; !ok {
		return
	}
	delete(t.inflight, id)
	if len(t.inflight) <= t.threshold && t.settled.IsZero() {
		t.settled = t.now()
	}
}

// reset forgets earlier requests and sets the threshold for the next wait.
func (t *idleTracker) reset(maxInflight int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight = make(map[network.RequestID]struct{})
	t.threshold = maxInflight
	t.settled = t.now()
}

func (t *idleTracker) idle(quiet time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.inflight) > t.threshold || t.settled.IsZero() {
		return false
	}
	return t.now().Sub(t.settled) >= quiet
}

// wait polls until idle holds for quiet or ctx ends.
func (t *idleTracker) wait(ctx context.Context, quiet time.Duration) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if t.idle(quiet) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
