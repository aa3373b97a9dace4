// Package ledger owns the arithmetic over a challenge's open orders:
// floating P/L, close valuation, and net liquidation value.
//
// One sign convention everywhere: long P/L is (price - entry) * qty, short
// is (entry - price) * qty. Margin checks, buying power, and NLV all flow
// through the same two functions below; nothing else in the repo computes
// position value.
package ledger

import (
	"context"
	"time"

	"github.com/rustyeddy/propdesk/account"
	"github.com/rustyeddy/propdesk/market"
	"github.com/rustyeddy/propdesk/store"
)

// priceTimeout bounds every oracle call made during a valuation so a stuck
// feed can never hang a user-facing operation.
const priceTimeout = 2 * time.Second

// FloatingPL is the unrealized P/L of an open order at the given price.
func FloatingPL(o account.Order, price float64) float64 {
	if o.Long() {
		return (price - o.EntryPrice) * o.Quantity
	}
	return (o.EntryPrice - price) * o.Quantity
}

// CloseValue is the realized P/L of an order closed at the given price.
// Identical formula to FloatingPL, frozen at close time.
func CloseValue(o account.Order, closePrice float64) float64 {
	return FloatingPL(o, closePrice)
}

// Ledger values a challenge's positions against the price oracle.
type Ledger struct {
	store  store.Store
	oracle market.Oracle
}

func New(s store.Store, o market.Oracle) *Ledger {
	return &Ledger{store: s, oracle: o}
}

// OpenOrders returns the challenge's open orders, most-recent-first.
func (l *Ledger) OpenOrders(ctx context.Context, challengeID string) ([]account.Order, error) {
	return l.store.ListOpenOrders(ctx, challengeID)
}

// NetLiquidationValue is cash equity plus the floating P/L of every open
// order.
//
// If the oracle cannot price one of the open symbols, that order contributes
// zero rather than failing the whole valuation. This is deliberate: rule
// evaluation stays available through a partial market-data outage, at the
// cost of a momentarily conservative NLV. Pre-trade checks take the
// opposite policy and reject on a missing price; see desk.
func (l *Ledger) NetLiquidationValue(ctx context.Context, c account.Challenge) (float64, error) {
	open, err := l.store.ListOpenOrders(ctx, c.ID)
	if err != nil {
		return 0, err
	}

	nlv := c.Equity
	for _, o := range open {
		pctx, cancel := context.WithTimeout(ctx, priceTimeout)
		q, err := l.oracle.GetPrice(pctx, o.Symbol)
		cancel()
		if err != nil || q.Price <= 0 {
			continue
		}
		nlv += FloatingPL(o, q.Price)
	}
	return nlv, nil
}

// BuyingPower is the ceiling for new-order margin. It is NLV under another
// name: two call sites, one computation, so the two can never drift.
func (l *Ledger) BuyingPower(ctx context.Context, c account.Challenge) (float64, error) {
	return l.NetLiquidationValue(ctx, c)
}
