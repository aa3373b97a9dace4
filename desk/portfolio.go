package desk

import (
	"context"
	"time"

	"github.com/rustyeddy/propdesk/ledger"
)

// Position is the transfer shape for one open order: the persisted record
// plus its live mark and floating P/L.
type Position struct {
	OrderID    string    `json:"order_id"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	Quantity   float64   `json:"quantity"`
	EntryPrice float64   `json:"entry_price"`
	MarkPrice  float64   `json:"mark_price,omitempty"`
	FloatingPL float64   `json:"floating_pl"`
	OpenedAt   time.Time `json:"opened_at"`
}

// Portfolio is the read-side view of a challenge: cash, live value, and
// every open position, most-recent-first.
type Portfolio struct {
	ChallengeID string     `json:"challenge_id"`
	Status      string     `json:"status"`
	Equity      float64    `json:"equity"`
	NLV         float64    `json:"nlv"`
	ProfitPct   float64    `json:"profit_pct"`
	Positions   []Position `json:"positions"`
}

// Portfolio assembles the view. An unpriceable symbol shows zero floating
// P/L, consistent with the ledger's valuation policy.
func (d *Desk) Portfolio(ctx context.Context, challengeID string) (Portfolio, error) {
	c, err := d.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return Portfolio{}, err
	}

	open, err := d.store.ListOpenOrders(ctx, c.ID)
	if err != nil {
		return Portfolio{}, err
	}

	p := Portfolio{
		ChallengeID: c.ID,
		Status:      string(c.Status),
		Equity:      c.Equity,
		NLV:         c.Equity,
		ProfitPct:   c.ProfitPercent(),
	}
	for _, o := range open {
		pos := Position{
			OrderID:    o.ID,
			Symbol:     o.Symbol,
			Side:       string(o.Side),
			Quantity:   o.Quantity,
			EntryPrice: o.EntryPrice,
			OpenedAt:   o.CreatedAt,
		}
		if quote, err := d.fetchPrice(ctx, o.Symbol); err == nil {
			pos.MarkPrice = quote.Price
			pos.FloatingPL = ledger.FloatingPL(o, quote.Price)
			p.NLV += pos.FloatingPL
		}
		p.Positions = append(p.Positions, pos)
	}
	return p, nil
}
