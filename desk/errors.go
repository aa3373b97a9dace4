package desk

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/propdesk/account"
)

// ErrPriceUnavailable means the oracle had no usable price during a
// blocking pre-trade check. The ledger's valuations take the opposite
// policy (a missing price contributes zero); placing or closing a trade
// must not guess.
var ErrPriceUnavailable = errors.New("desk: current price unavailable")

// NotTradeableError rejects trading on a challenge outside the tradeable
// set, carrying the current status for client display.
type NotTradeableError struct {
	Status account.Status
}

func (e *NotTradeableError) Error() string {
	return fmt.Sprintf("desk: challenge is %s, trading suspended", e.Status)
}

// MarketClosedError rejects trading while the symbol's session is closed.
type MarketClosedError struct {
	Symbol string
	Reason string
}

func (e *MarketClosedError) Error() string {
	return fmt.Sprintf("desk: market closed for %s: %s", e.Symbol, e.Reason)
}

// InsufficientMarginError rejects an order whose margin exceeds buying
// power. Both numbers ride along so a UI can render the shortfall.
type InsufficientMarginError struct {
	Required    float64
	BuyingPower float64
}

func (e *InsufficientMarginError) Error() string {
	return fmt.Sprintf("desk: insufficient margin: $%.2f required, buying power $%.2f",
		e.Required, e.BuyingPower)
}
