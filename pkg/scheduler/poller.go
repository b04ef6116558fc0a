package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/openvnet/openvnet/pkg/lifecycle"
)

// PollFunc is a single-shot completion check. It must not block beyond the
// remote call it performs.
type PollFunc func(ctx context.Context) (bool, error)

// Poller repeatedly invokes a completion check until it reports done.
type Poller struct {
	// Interval is the pause between polls. Defaults to one second.
	Interval time.Duration

	// Deadline bounds the whole wait. Zero means no deadline.
	Deadline time.Duration

	// Logger receives poll progress at debug level.
	Logger zerolog.Logger
}

// Wait polls until the check reports done. A poll error aborts immediately.
// An expired deadline surfaces as a lifecycle timeout error so callers can
// tell "never became ready" from "remote rejected the operation"; plain
// context cancellation surfaces as the context's error.
func (p *Poller) Wait(ctx context.Context, poll PollFunc) error {
	interval := p.Interval
	if interval <= 0 {
		interval = time.Second
	}

	waitCtx := ctx
	if p.Deadline > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, p.Deadline)
		defer cancel()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		done, err := poll(waitCtx)
		if err != nil {
			return err
		}
		if done {
			p.Logger.Debug().Int("attempts", attempt).Msg("Poll completed")
			return nil
		}
		p.Logger.Debug().Int("attempt", attempt).Msg("Not ready, waiting for next poll")

		select {
		case <-ticker.C:
		case <-waitCtx.Done():
			if ctx.Err() == nil {
				return lifecycle.NewTimeoutError(
					fmt.Sprintf("not ready after %s", p.Deadline), waitCtx.Err())
			}
			return ctx.Err()
		}
	}
}

// Guard enforces at most one in-flight transition per logical resource.
type Guard struct {
	mu       sync.Mutex
	inflight map[string]bool
}

// NewGuard creates an empty guard.
func NewGuard() *Guard {
	return &Guard{inflight: make(map[string]bool)}
}

// Acquire marks a transition in flight for the resource and returns its
// release function. It fails when a previous transition has not released.
func (g *Guard) Acquire(resource string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.inflight[resource] {
		return nil, fmt.Errorf("transition already in flight for %s", resource)
	}
	g.inflight[resource] = true

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.inflight, resource)
	}, nil
}
