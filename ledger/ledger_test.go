package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/rustyeddy/propdesk/account"
	"github.com/rustyeddy/propdesk/market"
	"github.com/rustyeddy/propdesk/store"
)

// fakeOracle serves a fixed price table; unknown symbols get ErrNoPrice.
type fakeOracle struct {
	prices map[string]float64
}

func (f *fakeOracle) GetPrice(ctx context.Context, symbol string) (market.Quote, error) {
	p, ok := f.prices[symbol]
	if !ok {
		return market.Quote{}, market.ErrNoPrice
	}
	return market.Quote{Symbol: symbol, Price: p, AsOf: time.Now().UTC()}, nil
}

func (f *fakeOracle) IsOpen(symbol string, at time.Time) market.Session {
	return market.Session{Open: true, Reason: "open (test)"}
}

func TestFloatingPL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		side  account.Side
		entry float64
		qty   float64
		price float64
		want  float64
	}{
		{"long gain", account.SideBuy, 100, 10, 110, 100},
		{"long loss", account.SideBuy, 100, 10, 95, -50},
		{"short gain", account.SideSell, 100, 10, 90, 100},
		{"short loss", account.SideSell, 100, 10, 105, -50},
		{"flat", account.SideBuy, 100, 10, 100, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			o := account.Order{Side: tt.side, EntryPrice: tt.entry, Quantity: tt.qty}
			if got := FloatingPL(o, tt.price); !approxEqual(got, tt.want, 1e-9) {
				t.Fatalf("FloatingPL = %v, want %v", got, tt.want)
			}
		})
	}
}

// Opposing orders on the same symbol value independently, never netted.
func TestFloatingPLNoNetting(t *testing.T) {
	t.Parallel()

	long := account.Order{Side: account.SideBuy, EntryPrice: 100, Quantity: 10}
	short := account.Order{Side: account.SideSell, EntryPrice: 100, Quantity: 10}

	if got := FloatingPL(long, 110); got != 100 {
		t.Fatalf("long leg = %v, want 100", got)
	}
	if got := FloatingPL(short, 110); got != -100 {
		t.Fatalf("short leg = %v, want -100", got)
	}
}

func TestNetLiquidationValue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := store.NewMemory()
	oracle := &fakeOracle{prices: map[string]float64{"AAPL": 360}}
	l := New(st, oracle)

	c := account.Challenge{ID: "c1", Equity: 5000, InitialBalance: 5000, Status: account.StatusActive}
	if err := st.CreateChallenge(ctx, &c); err != nil {
		t.Fatal(err)
	}
	orders := []account.Order{
		{ID: "o1", ChallengeID: "c1", Symbol: "AAPL", Side: account.SideBuy, Quantity: 10, EntryPrice: 350, Open: true},
		{ID: "o2", ChallengeID: "c1", Symbol: "AAPL", Side: account.SideSell, Quantity: 10, EntryPrice: 355, Open: true},
	}
	for i := range orders {
		if err := st.CreateOrder(ctx, &orders[i]); err != nil {
			t.Fatal(err)
		}
	}

	// Long: (360-350)*10 = +100. Short: (355-360)*10 = -50.
	nlv, err := l.NetLiquidationValue(ctx, c)
	if err != nil {
		t.Fatalf("NetLiquidationValue: %v", err)
	}
	if !approxEqual(nlv, 5050, 1e-9) {
		t.Fatalf("nlv = %v, want 5050", nlv)
	}
}

func TestNetLiquidationValueMissingPrice(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := store.NewMemory()
	oracle := &fakeOracle{prices: map[string]float64{"AAPL": 360}}
	l := New(st, oracle)

	c := account.Challenge{ID: "c1", Equity: 5000, Status: account.StatusActive}
	if err := st.CreateChallenge(ctx, &c); err != nil {
		t.Fatal(err)
	}
	orders := []account.Order{
		{ID: "o1", ChallengeID: "c1", Symbol: "AAPL", Side: account.SideBuy, Quantity: 10, EntryPrice: 350, Open: true},
		{ID: "o2", ChallengeID: "c1", Symbol: "DARK", Side: account.SideBuy, Quantity: 10, EntryPrice: 50, Open: true},
	}
	for i := range orders {
		if err := st.CreateOrder(ctx, &orders[i]); err != nil {
			t.Fatal(err)
		}
	}

	// The unpriceable order contributes zero; valuation still succeeds.
	nlv, err := l.NetLiquidationValue(ctx, c)
	if err != nil {
		t.Fatalf("NetLiquidationValue: %v", err)
	}
	if !approxEqual(nlv, 5100, 1e-9) {
		t.Fatalf("nlv = %v, want 5100", nlv)
	}
}

func TestBuyingPowerMatchesNLV(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := store.NewMemory()
	l := New(st, &fakeOracle{prices: map[string]float64{}})

	c := account.Challenge{ID: "c1", Equity: 500, Status: account.StatusActive}
	if err := st.CreateChallenge(ctx, &c); err != nil {
		t.Fatal(err)
	}

	bp, err := l.BuyingPower(ctx, c)
	if err != nil {
		t.Fatal(err)
	}
	nlv, err := l.NetLiquidationValue(ctx, c)
	if err != nil {
		t.Fatal(err)
	}
	if bp != nlv {
		t.Fatalf("buying power %v != nlv %v", bp, nlv)
	}
}

func approxEqual(a, b, eps float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}
