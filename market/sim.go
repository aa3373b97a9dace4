package market

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// basePrices anchors the simulated feed. Symbols outside this table are
// unknown to the sim oracle and return ErrNoPrice.
var basePrices = map[string]float64{
	// US equities
	"AAPL": 350.50, "TSLA": 510.20, "GOOGL": 285.00, "MSFT": 600.00,
	// Commodities
	"GC=F": 4618.88, "SI=F": 85.40, "XAUUSD=X": 4618.88,
	// Forex
	"EURUSD=X": 1.2250, "GBPUSD=X": 1.5250, "USDJPY=X": 120.50,
	"USDCHF=X": 0.8250, "AUDUSD=X": 0.7850,
	// Crypto
	"BTC-USD": 125000.00, "ETH-USD": 8500.00,
	// Casablanca
	"IAM.CS": 155.50, "ATW.CS": 645.80, "BCP.CS": 415.00,
	"CIH.CS": 455.00, "LHM.CS": 2820.00,
}

// Sim is a random-walk price oracle: each quote request nudges the last
// price by a small bounded jitter so the feed looks alive without any
// network dependency. Prices only walk while the symbol's session is open;
// a closed market serves the last known price unchanged.
type Sim struct {
	mu   sync.Mutex
	last map[string]Quote
	rng  *rand.Rand
}

// NewSim builds a simulated oracle. A zero seed means seed from the clock.
func NewSim(seed int64) *Sim {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Sim{
		last: make(map[string]Quote),
		rng:  rand.New(rand.NewSource(seed)),
	}
}

func (s *Sim) GetPrice(ctx context.Context, symbol string) (Quote, error) {
	if err := ctx.Err(); err != nil {
		return Quote{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.last[symbol]
	if !ok {
		base, known := basePrices[symbol]
		if !known {
			return Quote{}, fmt.Errorf("%w: %s", ErrNoPrice, symbol)
		}
		q = Quote{Symbol: symbol, Price: base}
	}

	now := time.Now().UTC()
	if Hours(symbol, now).Open {
		jitter := 0.0002
		if Classify(symbol) == ClassCrypto {
			jitter = 0.0005
		}
		q.Price *= 1 + (s.rng.Float64()*2-1)*jitter
	}
	q.AsOf = now
	s.last[symbol] = q

	return q, nil
}

func (s *Sim) IsOpen(symbol string, at time.Time) Session {
	return Hours(symbol, at)
}

// SetPrice pins a symbol at an exact price. Used by demos and tests to
// drive deterministic scenarios through the same oracle interface.
func (s *Sim) SetPrice(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[symbol] = Quote{Symbol: symbol, Price: price, AsOf: time.Now().UTC()}
}
