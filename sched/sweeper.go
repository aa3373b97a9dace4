// Package sched periodically walks every active challenge through rule
// verification, so accounts pass or fail even while their owner is away.
// An adverse move on an open position is caught by the sweep, not by the
// next trade.
package sched

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/propdesk/account"
	"github.com/rustyeddy/propdesk/rules"
	"github.com/rustyeddy/propdesk/store"
)

// Sweeper drives the rule engine over all active challenges on a timer.
type Sweeper struct {
	store    store.Store
	engine   *rules.Engine
	interval time.Duration
	parallel int
}

func NewSweeper(s store.Store, e *rules.Engine, interval time.Duration, parallel int) *Sweeper {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	if parallel <= 0 {
		parallel = 8
	}
	return &Sweeper{store: s, engine: e, interval: interval, parallel: parallel}
}

// SweepResult counts one pass over the active set.
type SweepResult struct {
	Verified int
	Passed   int
	Failed   int
	Errors   int
}

// Run sweeps on the configured interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			res := s.Sweep(ctx)
			log.Printf("sched: sweep verified=%d passed=%d failed=%d errors=%d",
				res.Verified, res.Passed, res.Failed, res.Errors)
		}
	}
}

// Sweep verifies every active challenge once. Challenges verify in
// parallel up to the configured limit; one challenge erroring never aborts
// the batch, the error is logged and the sweep moves on.
func (s *Sweeper) Sweep(ctx context.Context) SweepResult {
	active, err := s.store.ListActiveChallenges(ctx)
	if err != nil {
		log.Printf("sched: list active challenges: %v", err)
		return SweepResult{Errors: 1}
	}

	var mu sync.Mutex
	var res SweepResult

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)

	for _, c := range active {
		id := c.ID
		g.Go(func() error {
			out, err := s.engine.Verify(gctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Errors++
				log.Printf("sched: verify %s: %v", id, err)
				return nil // keep the batch going
			}
			res.Verified++
			switch out.Status {
			case account.StatusPassed:
				if !out.Skipped {
					res.Passed++
					log.Printf("sched: challenge %s PASSED: %s", id, out.Reason)
				}
			case account.StatusFailed:
				if !out.Skipped {
					res.Failed++
					log.Printf("sched: challenge %s FAILED: %s", id, out.Reason)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	return res
}
