// Package margin gates order placement against available capital.
package margin

import "github.com/rustyeddy/propdesk/market"

// Lot multipliers per asset class. A user-facing "lot" becomes this many
// units before any money math happens; the normalized quantity is what gets
// persisted, so the multiplier is applied exactly once, at order creation.
const (
	lotForex  = 100_000.0
	lotEquity = 10.0
	lotUnit   = 1.0
)

// LotMultiplier converts a symbol's lot size to units, keyed purely off the
// symbol's naming convention.
func LotMultiplier(symbol string) float64 {
	switch market.Classify(symbol) {
	case market.ClassForex:
		return lotForex
	case market.ClassEquityCasablanca:
		return lotEquity
	case market.ClassEquityUS:
		// Only listed tickers get stock lots; an unrecognized bare symbol
		// trades in single units.
		if market.ListedUSEquity(symbol) {
			return lotEquity
		}
		return lotUnit
	default:
		// Crypto and commodities trade in single units.
		return lotUnit
	}
}

// Normalize converts a raw requested lot quantity into units.
func Normalize(symbol string, rawQuantity float64) float64 {
	return rawQuantity * LotMultiplier(symbol)
}

// Required is the margin a prospective order consumes: notional value
// divided by leverage.
func Required(price, normalizedQuantity, leverage float64) float64 {
	if leverage <= 0 {
		leverage = 1
	}
	return price * normalizedQuantity / leverage
}
