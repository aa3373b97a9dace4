package desk

import (
	"context"
	"sort"
	"time"
)

// EquityPoint is one step of the realized equity curve.
type EquityPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Stats summarizes a challenge's closed trading history.
type Stats struct {
	TotalTrades  int           `json:"total_trades"`
	WinRate      float64       `json:"win_rate"`
	ProfitFactor float64       `json:"profit_factor"`
	AvgWin       float64       `json:"avg_win"`
	AvgLoss      float64       `json:"avg_loss"`
	NetProfit    float64       `json:"net_profit"`
	EquityCurve  []EquityPoint `json:"equity_curve"`
}

// Stats computes trading statistics from the full order history. Only
// closed orders carry realized P/L; open ones count toward TotalTrades but
// move nothing.
func (d *Desk) Stats(ctx context.Context, challengeID string) (Stats, error) {
	c, err := d.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return Stats{}, err
	}

	orders, err := d.store.ListOrders(ctx, challengeID)
	if err != nil {
		return Stats{}, err
	}

	st := Stats{TotalTrades: len(orders)}
	if len(orders) == 0 {
		return st, nil
	}

	// Oldest-first for the running curve.
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})

	var wins, losses int
	var grossProfit, grossLoss float64
	running := c.InitialBalance
	st.EquityCurve = append(st.EquityCurve, EquityPoint{Time: c.CreatedAt, Value: running})

	for _, o := range orders {
		if o.Open {
			continue
		}
		if o.RealizedPL > 0 {
			wins++
			grossProfit += o.RealizedPL
		} else {
			losses++
			grossLoss += -o.RealizedPL
		}
		running += o.RealizedPL

		at := o.CreatedAt
		if o.ClosedAt != nil {
			at = *o.ClosedAt
		}
		st.EquityCurve = append(st.EquityCurve, EquityPoint{Time: at, Value: running})
	}

	closed := wins + losses
	if closed > 0 {
		st.WinRate = float64(wins) / float64(closed) * 100
	}
	if grossLoss > 0 {
		st.ProfitFactor = grossProfit / grossLoss
	} else {
		st.ProfitFactor = grossProfit
	}
	if wins > 0 {
		st.AvgWin = grossProfit / float64(wins)
	}
	if losses > 0 {
		st.AvgLoss = grossLoss / float64(losses)
	}
	st.NetProfit = grossProfit - grossLoss

	return st, nil
}
