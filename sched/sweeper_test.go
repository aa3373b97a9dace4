package sched

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rustyeddy/propdesk/account"
	"github.com/rustyeddy/propdesk/ledger"
	"github.com/rustyeddy/propdesk/market"
	"github.com/rustyeddy/propdesk/rules"
	"github.com/rustyeddy/propdesk/store"
)

type tableOracle struct {
	prices map[string]float64
}

func (o *tableOracle) GetPrice(ctx context.Context, symbol string) (market.Quote, error) {
	p, ok := o.prices[symbol]
	if !ok {
		return market.Quote{}, market.ErrNoPrice
	}
	return market.Quote{Symbol: symbol, Price: p, AsOf: time.Now().UTC()}, nil
}

func (o *tableOracle) IsOpen(symbol string, at time.Time) market.Session {
	return market.Session{Open: true, Reason: "open (test)"}
}

func challenge(id string, equity float64) account.Challenge {
	return account.Challenge{
		ID:              id,
		UserID:          "u1",
		Plan:            account.TierStarter,
		InitialBalance:  5000,
		Equity:          equity,
		Status:          account.StatusActive,
		MaxDailyLossPct: 5,
		MaxTotalLossPct: 10,
		ProfitTargetPct: 10,
		Leverage:        account.DefaultLeverage,
		CreatedAt:       time.Now().UTC(),
	}
}

// A sweep catches an adverse open position without any trade happening: the
// floating loss drags NLV past the total-loss limit.
func TestSweepFailsOnFloatingLoss(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := store.NewMemory()
	oracle := &tableOracle{prices: map[string]float64{"AAPL": 290}}
	engine := rules.NewEngine(st, ledger.New(st, oracle))

	c := challenge("c1", 5000)
	if err := st.CreateChallenge(ctx, &c); err != nil {
		t.Fatal(err)
	}
	// Bought at 350, now 290: floating -600, NLV 4400 = -12%.
	o := account.Order{
		ID: "o1", ChallengeID: "c1", Symbol: "AAPL",
		Side: account.SideBuy, Quantity: 10, EntryPrice: 350,
		Open: true, CreatedAt: time.Now().UTC(),
	}
	if err := st.CreateOrder(ctx, &o); err != nil {
		t.Fatal(err)
	}

	s := NewSweeper(st, engine, time.Minute, 4)
	res := s.Sweep(ctx)
	if res.Failed != 1 || res.Errors != 0 {
		t.Fatalf("sweep = %+v, want 1 failure", res)
	}

	got, _ := st.GetChallenge(ctx, "c1")
	if got.Status != account.StatusFailed {
		t.Fatalf("status = %v, want failed", got.Status)
	}
	// Equity is cash: the floating loss is not booked by failing.
	if got.Equity != 5000 {
		t.Fatalf("equity = %v, want 5000", got.Equity)
	}
}

func TestSweepCountsPasses(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := store.NewMemory()
	engine := rules.NewEngine(st, ledger.New(st, &tableOracle{}))

	winner := challenge("winner", 5600)
	cruising := challenge("cruising", 5100)
	for _, c := range []*account.Challenge{&winner, &cruising} {
		if err := st.CreateChallenge(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	s := NewSweeper(st, engine, time.Minute, 4)
	res := s.Sweep(ctx)
	if res.Verified != 2 || res.Passed != 1 || res.Failed != 0 {
		t.Fatalf("sweep = %+v, want 2 verified / 1 passed", res)
	}

	// The sweep is idempotent: terminal challenges leave the active set.
	res = s.Sweep(ctx)
	if res.Verified != 1 || res.Passed != 0 {
		t.Fatalf("second sweep = %+v, want 1 verified / 0 passed", res)
	}
}

// failStore errors on one challenge to prove a bad apple never aborts the
// batch.
type failStore struct {
	store.Store
	failID string
}

func (f *failStore) GetChallenge(ctx context.Context, id string) (account.Challenge, error) {
	if id == f.failID {
		return account.Challenge{}, errors.New("boom")
	}
	return f.Store.GetChallenge(ctx, id)
}

func TestSweepContinuesPastErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := store.NewMemory()
	st := &failStore{Store: mem, failID: "bad"}
	engine := rules.NewEngine(st, ledger.New(st, &tableOracle{}))

	bad := challenge("bad", 5000)
	good := challenge("good", 5600)
	for _, c := range []*account.Challenge{&bad, &good} {
		if err := mem.CreateChallenge(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	s := NewSweeper(st, engine, time.Minute, 4)
	res := s.Sweep(ctx)
	if res.Errors != 1 {
		t.Fatalf("errors = %d, want 1", res.Errors)
	}
	if res.Passed != 1 {
		t.Fatalf("passed = %d, want 1 (batch must outlive the error)", res.Passed)
	}

	got, _ := mem.GetChallenge(ctx, "good")
	if got.Status != account.StatusPassed {
		t.Fatalf("good status = %v, want passed", got.Status)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	st := store.NewMemory()
	engine := rules.NewEngine(st, ledger.New(st, &tableOracle{}))
	s := NewSweeper(st, engine, 10*time.Millisecond, 2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v, want nil on cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
