package store

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/propdesk/account"
)

var (
	ErrChallengeNotFound  = errors.New("store: challenge not found")
	ErrChallengeNotActive = errors.New("store: challenge not active")
	ErrOrderNotFound      = errors.New("store: order not found")
	ErrOrderAlreadyClosed = errors.New("store: order already closed")
)

// ChallengePatch is an atomic partial update of a challenge row. Nil fields
// are left untouched.
type ChallengePatch struct {
	Equity        *float64
	Status        *account.Status
	FailureReason *string
	CompletedAt   *time.Time
	Leverage      *float64
}

// OrderPatch is an atomic partial update of an order row. Nil fields are
// left untouched. Close-related fields go through CloseOrders instead so
// the equity credit cannot be forgotten.
type OrderPatch struct {
	Notes         *string
	Tags          *string
	ScreenshotURL *string
}

// OrderClose is one order's closing terms inside a CloseOrders call.
type OrderClose struct {
	OrderID    string
	ClosePrice float64
	RealizedPL float64
	At         time.Time
}

// Store is the persistence contract the evaluation core needs. Every method
// that writes multiple fields applies them as one operation; CloseOrders and
// CompleteChallenge carry the cross-field atomicity the rule engine and the
// orchestrator depend on.
type Store interface {
	CreateChallenge(ctx context.Context, c *account.Challenge) error
	GetChallenge(ctx context.Context, id string) (account.Challenge, error)
	UpdateChallenge(ctx context.Context, id string, p ChallengePatch) error

	// CompleteChallenge moves an active challenge to a terminal status,
	// setting completed_at and failure_reason in the same write. It is a
	// compare-and-set: the update only applies while the row is still
	// active, and the return value reports whether this caller won. A lost
	// race is not an error; transitions are monotonic so whatever landed
	// first stands.
	CompleteChallenge(ctx context.Context, id string, status account.Status, reason string, at time.Time) (bool, error)

	ListActiveChallenges(ctx context.Context) ([]account.Challenge, error)

	CreateOrder(ctx context.Context, o *account.Order) error
	GetOrder(ctx context.Context, id string) (account.Order, error)
	UpdateOrder(ctx context.Context, id string, p OrderPatch) error

	// CloseOrders closes the given open orders and credits the challenge's
	// cash equity with the summed realized P/L, all in one transaction.
	// Closing an order that is already closed fails the whole batch with
	// ErrOrderAlreadyClosed. The equity credit is a compare-and-set on the
	// challenge still being active: a terminal challenge fails the batch
	// with ErrChallengeNotActive, so a verification landing between the
	// caller's status check and the close can never mutate frozen equity.
	CloseOrders(ctx context.Context, challengeID string, closes []OrderClose) error

	// ListOpenOrders returns open orders most-recent-first.
	ListOpenOrders(ctx context.Context, challengeID string) ([]account.Order, error)
	ListOrders(ctx context.Context, challengeID string) ([]account.Order, error)

	Close() error
}
