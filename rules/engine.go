// Package rules is the challenge state machine: it decides whether a
// challenge stays active, passes, or fails, and commits the transition.
package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/rustyeddy/propdesk/account"
	"github.com/rustyeddy/propdesk/ledger"
	"github.com/rustyeddy/propdesk/store"
)

// Outcome is the result of one rule evaluation.
type Outcome struct {
	Status account.Status
	Reason string

	// Skipped is set when the challenge was already terminal and nothing
	// was evaluated or written.
	Skipped bool

	Equity       float64 // cash equity
	NLV          float64
	ProfitPct    float64
	DailyLossPct float64
	TotalLossPct float64
}

// Evaluate runs the rule chain over a challenge. Pure: no I/O, no clock.
// The caller supplies order history, current NLV, and the evaluation
// instant. First violated rule wins and later rules are not consulted.
//
// Rule order:
//  1. daily loss (funded tier only)
//  2. total loss / blown account
//  3. profit target
func Evaluate(c account.Challenge, orders []account.Order, nlv float64, now time.Time) Outcome {
	out := Outcome{
		Status:    account.StatusActive,
		Equity:    c.Equity,
		NLV:       nlv,
		ProfitPct: c.ProfitPercent(),
	}

	// Rule 1: daily loss. Gated on the funded tier; evaluation plans run
	// without an intraday limit.
	if c.Plan == account.TierFunded {
		sod := startOfDayEquity(c, orders, now)
		if sod != 0 {
			out.DailyLossPct = (sod - nlv) / sod * 100
		}
		if out.DailyLossPct > c.MaxDailyLossPct {
			out.Status = account.StatusFailed
			out.Reason = fmt.Sprintf("Daily loss limit exceeded (%.2f%%)", out.DailyLossPct)
			return out
		}
	}

	// Rule 2: total loss. Blown checks raw cash; an open losing position
	// does not blow the account, only realized losses do. The percentage
	// limit checks NLV. Free tier fails only when blown.
	blown := c.Equity <= 1.0
	if c.InitialBalance != 0 {
		out.TotalLossPct = (c.InitialBalance - nlv) / c.InitialBalance * 100
	}
	limitHit := out.TotalLossPct > c.MaxTotalLossPct

	shouldFail := blown || limitHit
	if c.Plan == account.TierFree {
		shouldFail = blown
	}
	if shouldFail {
		out.Status = account.StatusFailed
		if blown {
			out.Reason = "Account blown"
		} else {
			out.Reason = fmt.Sprintf("Total loss limit exceeded (%.2f%%) (Limit: %g%%)",
				out.TotalLossPct, c.MaxTotalLossPct)
		}
		return out
	}

	// Rule 3: profit target, judged on realized performance only.
	if out.ProfitPct >= c.ProfitTargetPct {
		out.Status = account.StatusPassed
		out.Reason = fmt.Sprintf("Profit target achieved (%.2f%%)", out.ProfitPct)
		return out
	}

	return out
}

// startOfDayEquity reconstructs cash equity as of the current UTC midnight:
// initial balance plus the realized P/L of every order created before
// today. Orders still open contribute zero, same as a freshly placed one.
func startOfDayEquity(c account.Challenge, orders []account.Order, now time.Time) float64 {
	dayStart := now.UTC().Truncate(24 * time.Hour)

	equity := c.InitialBalance
	for _, o := range orders {
		if o.CreatedAt.Before(dayStart) {
			equity += o.RealizedPL
		}
	}
	return equity
}

// Engine loads challenge state, evaluates the rules, and commits status
// transitions. Verify is the single entry point used by both the post-trade
// background path and the periodic sweep.
type Engine struct {
	store  store.Store
	ledger *ledger.Ledger
	locks  keyedMutex
	now    func() time.Time
}

func NewEngine(s store.Store, l *ledger.Ledger) *Engine {
	return &Engine{store: s, ledger: l, now: time.Now}
}

// Verify evaluates one challenge and applies any transition. Idempotent: a
// terminal challenge returns a skipped outcome with no writes, and repeated
// calls on unchanged state produce the same answer.
//
// Verify serializes per challenge ID, so a sweep and a just-triggered
// post-trade verification cannot interleave; across different challenges it
// runs fully in parallel. The store transition is additionally a
// compare-and-set on "still active", so even a lost lock discipline cannot
// produce conflicting terminal states.
func (e *Engine) Verify(ctx context.Context, challengeID string) (Outcome, error) {
	unlock := e.locks.lock(challengeID)
	defer unlock()

	c, err := e.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return Outcome{}, err
	}
	if c.Status.Terminal() {
		return Outcome{Status: c.Status, Skipped: true, Equity: c.Equity}, nil
	}

	nlv, err := e.ledger.NetLiquidationValue(ctx, c)
	if err != nil {
		return Outcome{}, fmt.Errorf("value challenge %s: %w", challengeID, err)
	}

	orders, err := e.store.ListOrders(ctx, challengeID)
	if err != nil {
		return Outcome{}, fmt.Errorf("list orders for %s: %w", challengeID, err)
	}

	out := Evaluate(c, orders, nlv, e.now())
	if out.Status == account.StatusActive {
		return out, nil
	}

	// Only failures persist a reason; a passed row keeps failure_reason
	// empty. The outcome still carries the reason for logs and callers.
	reason := out.Reason
	if out.Status == account.StatusPassed {
		reason = ""
	}
	applied, err := e.store.CompleteChallenge(ctx, challengeID, out.Status, reason, e.now().UTC())
	if err != nil {
		return Outcome{}, fmt.Errorf("complete challenge %s: %w", challengeID, err)
	}
	if !applied {
		// Someone else landed a terminal state first. Monotonicity makes
		// that fine; report what stands.
		c, err = e.store.GetChallenge(ctx, challengeID)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Status: c.Status, Skipped: true, Equity: c.Equity}, nil
	}

	return out, nil
}
