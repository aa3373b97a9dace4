// Package desk orchestrates trade execution: it validates, checks margin,
// mutates the ledger through the store, and hands rule verification to the
// background dispatcher.
package desk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rustyeddy/propdesk/account"
	"github.com/rustyeddy/propdesk/ledger"
	"github.com/rustyeddy/propdesk/margin"
	"github.com/rustyeddy/propdesk/market"
	"github.com/rustyeddy/propdesk/pkg/id"
	"github.com/rustyeddy/propdesk/store"
)

// priceTimeout bounds oracle calls on the request path.
const priceTimeout = 2 * time.Second

// Verifier schedules a fire-and-forget rule verification. Satisfied by
// rules.Dispatcher.
type Verifier interface {
	Enqueue(challengeID string)
}

// Desk executes orders for challenges.
//
// The tradeable set is {active} only: a passed or failed challenge rejects
// placement and closure alike, so terminal equity stays frozen.
type Desk struct {
	store    store.Store
	oracle   market.Oracle
	ledger   *ledger.Ledger
	verifier Verifier
	validate *validator.Validate
	now      func() time.Time
}

func New(s store.Store, o market.Oracle, l *ledger.Ledger, v Verifier) *Desk {
	return &Desk{
		store:    s,
		oracle:   o,
		ledger:   l,
		verifier: v,
		validate: validator.New(),
		now:      time.Now,
	}
}

// PlaceRequest is a user's order intent. Quantity is in lots; the desk
// normalizes it to units before anything touches money.
type PlaceRequest struct {
	Symbol   string  `json:"symbol"   validate:"required"`
	Side     string  `json:"side"     validate:"required,oneof=buy sell"`
	Quantity float64 `json:"quantity" validate:"required,gt=0"`
	Notes    string  `json:"notes"`
	Tags     string  `json:"tags"`
}

// Place opens a new independent order on the challenge.
//
// The order creation is the durable outcome; rule verification runs as a
// deferred background task and its failure never rolls the order back.
func (d *Desk) Place(ctx context.Context, challengeID string, req PlaceRequest) (account.Order, error) {
	if err := d.validate.Struct(req); err != nil {
		return account.Order{}, fmt.Errorf("invalid trade request: %w", err)
	}

	c, err := d.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return account.Order{}, err
	}
	if c.Status != account.StatusActive {
		return account.Order{}, &NotTradeableError{Status: c.Status}
	}

	now := d.now()
	if sess := d.oracle.IsOpen(req.Symbol, now); !sess.Open {
		return account.Order{}, &MarketClosedError{Symbol: req.Symbol, Reason: sess.Reason}
	}

	quote, err := d.fetchPrice(ctx, req.Symbol)
	if err != nil {
		return account.Order{}, err
	}

	qty := margin.Normalize(req.Symbol, req.Quantity)
	leverage := c.Leverage
	if leverage <= 0 {
		leverage = account.DefaultLeverage
	}
	required := margin.Required(quote.Price, qty, leverage)

	power, err := d.ledger.BuyingPower(ctx, c)
	if err != nil {
		return account.Order{}, fmt.Errorf("compute buying power: %w", err)
	}
	if required > power {
		return account.Order{}, &InsufficientMarginError{Required: required, BuyingPower: power}
	}

	order := account.Order{
		ID:          id.New(),
		ChallengeID: c.ID,
		Symbol:      req.Symbol,
		Side:        account.Side(req.Side),
		Quantity:    qty,
		EntryPrice:  quote.Price,
		Open:        true,
		Notes:       req.Notes,
		Tags:        req.Tags,
		CreatedAt:   now.UTC(),
	}
	if err := d.store.CreateOrder(ctx, &order); err != nil {
		return account.Order{}, fmt.Errorf("create order: %w", err)
	}

	d.verifier.Enqueue(c.ID)
	return order, nil
}

// Close closes one open order. clientPrice, when positive, is used as the
// closing price (the caller already saw it on screen); otherwise a fresh
// quote is fetched. Booking the realized P/L and closing the order happen
// in one store transaction.
func (d *Desk) Close(ctx context.Context, challengeID, orderID string, clientPrice float64) (account.Order, error) {
	c, err := d.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return account.Order{}, err
	}
	if c.Status != account.StatusActive {
		// A terminal challenge's equity is frozen; closing would book P/L.
		return account.Order{}, &NotTradeableError{Status: c.Status}
	}

	o, err := d.store.GetOrder(ctx, orderID)
	if err != nil {
		return account.Order{}, err
	}
	if o.ChallengeID != c.ID || !o.Open {
		// Not this challenge's order, or already closed: from the caller's
		// point of view there is no open position to close.
		return account.Order{}, store.ErrOrderNotFound
	}

	price := clientPrice
	if price <= 0 {
		quote, err := d.fetchPrice(ctx, o.Symbol)
		if err != nil {
			return account.Order{}, err
		}
		price = quote.Price
	}

	pl := ledger.CloseValue(o, price)
	closedAt := d.now().UTC()
	err = d.store.CloseOrders(ctx, c.ID, []store.OrderClose{
		{OrderID: o.ID, ClosePrice: price, RealizedPL: pl, At: closedAt},
	})
	if err != nil {
		return account.Order{}, d.closeError(ctx, c.ID, err)
	}

	d.verifier.Enqueue(c.ID)

	o.Open = false
	o.ClosePrice = price
	o.RealizedPL = pl
	o.ClosedAt = &closedAt
	return o, nil
}

// CloseAllResult summarizes a close-all sweep.
type CloseAllResult struct {
	Closed  int
	TotalPL float64
}

// CloseAll closes every open order on the challenge: one accumulated equity
// update and one deferred verification, not one per order.
//
// A symbol the oracle cannot price right now closes at its entry price for
// zero realized P/L, keeping close-all available through a partial feed
// outage.
func (d *Desk) CloseAll(ctx context.Context, challengeID string) (CloseAllResult, error) {
	c, err := d.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return CloseAllResult{}, err
	}
	if c.Status != account.StatusActive {
		return CloseAllResult{}, &NotTradeableError{Status: c.Status}
	}

	open, err := d.store.ListOpenOrders(ctx, c.ID)
	if err != nil {
		return CloseAllResult{}, err
	}
	if len(open) == 0 {
		return CloseAllResult{}, nil
	}

	closedAt := d.now().UTC()
	closes := make([]store.OrderClose, 0, len(open))
	var total float64
	for _, o := range open {
		price := o.EntryPrice
		if quote, err := d.fetchPrice(ctx, o.Symbol); err == nil {
			price = quote.Price
		}
		pl := ledger.CloseValue(o, price)
		closes = append(closes, store.OrderClose{
			OrderID: o.ID, ClosePrice: price, RealizedPL: pl, At: closedAt,
		})
		total += pl
	}

	if err := d.store.CloseOrders(ctx, c.ID, closes); err != nil {
		return CloseAllResult{}, d.closeError(ctx, c.ID, err)
	}

	d.verifier.Enqueue(c.ID)
	return CloseAllResult{Closed: len(closes), TotalPL: total}, nil
}

// closeError translates a store-level close failure. The equity credit is a
// compare-and-set on the challenge still being active, so a verification
// that turned the challenge terminal between our status check and the write
// surfaces here as ErrChallengeNotActive; report it the same way as the
// up-front check would have.
func (d *Desk) closeError(ctx context.Context, challengeID string, err error) error {
	if !errors.Is(err, store.ErrChallengeNotActive) {
		return err
	}
	c, gerr := d.store.GetChallenge(ctx, challengeID)
	if gerr != nil {
		return err
	}
	return &NotTradeableError{Status: c.Status}
}

func (d *Desk) fetchPrice(ctx context.Context, symbol string) (market.Quote, error) {
	pctx, cancel := context.WithTimeout(ctx, priceTimeout)
	defer cancel()

	quote, err := d.oracle.GetPrice(pctx, symbol)
	if err != nil || quote.Price <= 0 {
		return market.Quote{}, ErrPriceUnavailable
	}
	return quote, nil
}
