package account

import "time"

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Order is a single independent simulated position, MT4-style: opposing
// orders on the same symbol are never netted against each other, each one
// lives and closes on its own.
//
// Quantity is stored in normalized units (lots already multiplied out);
// normalization happens exactly once, before the order is persisted.
type Order struct {
	ID          string
	ChallengeID string

	Symbol     string
	Side       Side
	Quantity   float64
	EntryPrice float64

	Open       bool
	ClosePrice float64
	RealizedPL float64

	// Journal metadata, not part of the accounting core.
	Notes         string
	Tags          string
	ScreenshotURL string

	CreatedAt time.Time
	ClosedAt  *time.Time
}

// Long reports whether the order profits when price rises.
func (o *Order) Long() bool { return o.Side == SideBuy }
