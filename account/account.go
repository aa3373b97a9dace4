package account

import "time"

// Status is the lifecycle state of a challenge. Once a challenge reaches
// passed or failed it stays there; re-activation means creating a new
// challenge, never mutating the old row.
type Status string

const (
	StatusActive Status = "active"
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusPassed || s == StatusFailed
}

// Challenge is one funded-account evaluation attempt.
//
// Equity is cash only: it changes exclusively when an order closes and its
// realized P/L is booked. Floating P/L is never persisted here; net
// liquidation value is derived on demand by the ledger.
type Challenge struct {
	ID     string
	UserID string
	Plan   Tier

	InitialBalance float64 // fixed at creation
	Equity         float64 // cash equity, realized P/L only

	Status        Status
	FailureReason string

	MaxDailyLossPct float64
	MaxTotalLossPct float64
	ProfitTargetPct float64

	// Leverage is stored per challenge as an extension point; every plan
	// currently gets DefaultLeverage.
	Leverage float64

	CreatedAt   time.Time
	CompletedAt *time.Time
}

// ProfitPercent is realized performance relative to the initial balance.
// Uses cash equity, not NLV: the profit target is judged on booked results.
func (c *Challenge) ProfitPercent() float64 {
	if c.InitialBalance == 0 {
		return 0
	}
	return (c.Equity - c.InitialBalance) / c.InitialBalance * 100
}

// TotalProfit is realized profit in account currency.
func (c *Challenge) TotalProfit() float64 {
	return c.Equity - c.InitialBalance
}
