package account

import (
	"fmt"
	"time"
)

// Tier identifies a challenge plan.
type Tier string

const (
	TierFree       Tier = "free"
	TierStarter    Tier = "starter"
	TierPro        Tier = "pro"
	TierElite      Tier = "elite"
	TierMiniFunded Tier = "mini_funded"

	// TierFunded is not purchasable; it exists so the daily-loss rule has a
	// tier to gate on. Kept deliberately even though nothing creates it yet.
	TierFunded Tier = "funded"
)

// Plan describes the starting balance and rule thresholds for a tier.
type Plan struct {
	Name            string
	InitialBalance  float64
	ProfitTargetPct float64
	MaxDailyLossPct float64
	MaxTotalLossPct float64
}

// Plans is the tier table. Balances and targets follow the published
// program; risk limits default to 5% daily / 10% total across the board.
var Plans = map[Tier]Plan{
	TierFree:       {Name: "Demo Trial", InitialBalance: 500, ProfitTargetPct: 5, MaxDailyLossPct: 5, MaxTotalLossPct: 10},
	TierStarter:    {Name: "Starter Trader", InitialBalance: 5_000, ProfitTargetPct: 10, MaxDailyLossPct: 5, MaxTotalLossPct: 10},
	TierPro:        {Name: "Pro Trader", InitialBalance: 50_000, ProfitTargetPct: 10, MaxDailyLossPct: 5, MaxTotalLossPct: 10},
	TierElite:      {Name: "Elite Institutional", InitialBalance: 200_000, ProfitTargetPct: 10, MaxDailyLossPct: 5, MaxTotalLossPct: 10},
	TierMiniFunded: {Name: "Mini Funded", InitialBalance: 3_000, ProfitTargetPct: 10, MaxDailyLossPct: 5, MaxTotalLossPct: 10},
	TierFunded:     {Name: "Funded", InitialBalance: 5_000, ProfitTargetPct: 10, MaxDailyLossPct: 5, MaxTotalLossPct: 10},
}

// DefaultLeverage applies to every challenge for now. Leverage is persisted
// per challenge so it can vary later without a schema change.
const DefaultLeverage = 100.0

// NewChallenge builds an active challenge for the given tier. The caller
// assigns the ID and persists it.
func NewChallenge(userID string, tier Tier, now time.Time) (*Challenge, error) {
	plan, ok := Plans[tier]
	if !ok {
		return nil, fmt.Errorf("unknown plan tier %q", tier)
	}
	return &Challenge{
		UserID:          userID,
		Plan:            tier,
		InitialBalance:  plan.InitialBalance,
		Equity:          plan.InitialBalance,
		Status:          StatusActive,
		MaxDailyLossPct: plan.MaxDailyLossPct,
		MaxTotalLossPct: plan.MaxTotalLossPct,
		ProfitTargetPct: plan.ProfitTargetPct,
		Leverage:        DefaultLeverage,
		CreatedAt:       now,
	}, nil
}
