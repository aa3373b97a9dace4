package market

import (
	"context"
	"errors"
	"time"
)

// ErrNoPrice means the oracle has no usable quote for a symbol. Absence of
// data is always an error, never a zero price, so callers can tell the two
// apart.
var ErrNoPrice = errors.New("market: no price available")

// Quote is a point-in-time price for a symbol.
type Quote struct {
	Symbol string
	Price  float64
	AsOf   time.Time
}

// Session describes whether trading is allowed for a symbol right now, with
// a human-readable reason suitable for client display.
type Session struct {
	Open   bool
	Reason string
}

// Oracle supplies current prices and session state. Implementations must be
// safe for frequent concurrent calls: the core hits the oracle once per open
// order on every valuation. Caching and staleness policy belong to the
// oracle, not its callers.
type Oracle interface {
	GetPrice(ctx context.Context, symbol string) (Quote, error)
	IsOpen(symbol string, at time.Time) Session
}
