package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/propdesk/account"
	"github.com/rustyeddy/propdesk/desk"
	"github.com/rustyeddy/propdesk/ledger"
	"github.com/rustyeddy/propdesk/market"
	"github.com/rustyeddy/propdesk/pkg/id"
	"github.com/rustyeddy/propdesk/rules"
	"github.com/rustyeddy/propdesk/store"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run an end-to-end challenge walkthrough in memory",
	Long: `Run a complete challenge lifecycle against the in-memory store:

  1. Create a starter challenge ($5,000, 10% target, 10% max loss)
  2. Place an AAPL order
  3. Move the market and close it at a profit
  4. Verify the challenge rules and print the outcome`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

// demoOracle keeps every market open so the walkthrough works at any hour.
type demoOracle struct {
	*market.Sim
}

func (o demoOracle) IsOpen(symbol string, at time.Time) market.Session {
	return market.Session{Open: true, Reason: "open (demo)"}
}

// syncVerifier runs verifications inline so the demo output is ordered.
type syncVerifier struct {
	engine *rules.Engine
}

func (v *syncVerifier) Enqueue(challengeID string) {
	out, err := v.engine.Verify(context.Background(), challengeID)
	if err != nil {
		fmt.Printf("  verify error: %v\n", err)
		return
	}
	fmt.Printf("  verify: status=%s profit=%.2f%%\n", out.Status, out.ProfitPct)
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	fmt.Println("=== Challenge Walkthrough ===")
	fmt.Println()

	st := store.NewMemory()
	sim := market.NewSim(1)
	oracle := demoOracle{Sim: sim}
	ldg := ledger.New(st, oracle)
	engine := rules.NewEngine(st, ldg)
	d := desk.New(st, oracle, ldg, &syncVerifier{engine: engine})

	c, err := account.NewChallenge("demo-user", account.TierStarter, time.Now().UTC())
	if err != nil {
		return err
	}
	c.ID = id.New()
	if err := st.CreateChallenge(ctx, c); err != nil {
		return err
	}
	fmt.Printf("Challenge %s: %s, balance $%.2f, target %.0f%%\n\n",
		c.ID, c.Plan, c.InitialBalance, c.ProfitTargetPct)

	// Pin AAPL so the numbers below are stable.
	sim.SetPrice("AAPL", 350.00)

	order, err := d.Place(ctx, c.ID, desk.PlaceRequest{
		Symbol:   "AAPL",
		Side:     "buy",
		Quantity: 1, // 1 stock lot = 10 shares
	})
	if err != nil {
		return fmt.Errorf("place: %w", err)
	}
	fmt.Printf("Opened %s %s x%.0f @ %.2f\n", order.Side, order.Symbol, order.Quantity, order.EntryPrice)

	closed, err := d.Close(ctx, c.ID, order.ID, 362.00)
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}
	fmt.Printf("Closed @ %.2f, realized P/L $%.2f\n", closed.ClosePrice, closed.RealizedPL)

	final, err := st.GetChallenge(ctx, c.ID)
	if err != nil {
		return err
	}
	fmt.Printf("\nFinal equity: $%.2f (%.2f%%), status: %s\n",
		final.Equity, final.ProfitPercent(), final.Status)
	return nil
}
