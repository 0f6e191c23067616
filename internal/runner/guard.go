package runner

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/rewatch/internal/config"
)

// Guard decides whether a build may start while another is in flight.
type Guard struct {
	policy string
	sem    *semaphore.Weighted
}

// NewGuard builds a guard for one of the config.OnBusy* policies.
func NewGuard(policy string) (*Guard, error) {
	switch policy {
	case config.OnBusyOverlap:
		return &Guard{policy: policy}, nil
	case config.OnBusyQueue, config.OnBusyDrop:
		return &Guard{policy: policy, sem: semaphore.NewWeighted(1)}, nil
	default:
		return nil, fmt.Errorf("unknown on-busy policy %q", policy)
	}
}

// Policy returns the configured policy name.
func (g *Guard) Policy() string { return g.policy }

// Acquire claims the build slot. ok is false when the build must be
// skipped, either because the drop policy found the slot taken or because
// ctx ended while queued. release must be called when ok is true.
func (g *Guard) Acquire(ctx context.Context) (release func(), ok bool) {
	if g == nil {
		return func() {}, true
	}

	switch g.policy {
	case config.OnBusyDrop:
		if !g.sem.TryAcquire(1) {
			return nil, false
		}
	case config.OnBusyQueue:
		if err := g.sem.Acquire(ctx, 1); err != nil {
			return nil, false
		}
	default:
		return func() {}, true
	}

	return func() { g.sem.Release(1) }, true
}
