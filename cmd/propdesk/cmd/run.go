package cmd

import (
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/propdesk/config"
	"github.com/rustyeddy/propdesk/ledger"
	"github.com/rustyeddy/propdesk/market"
	"github.com/rustyeddy/propdesk/rules"
	"github.com/rustyeddy/propdesk/sched"
	"github.com/rustyeddy/propdesk/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the evaluation service loop",
	Long: `Run the challenge evaluation service: opens the store, starts the
background verification workers, and sweeps all active challenges on the
configured interval until interrupted.

Example:
  propdesk run --config configs/propdesk.yaml`,
	RunE: runRun,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if runConfigPath != "" {
		loaded, err := config.LoadFromFile(runConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	var st store.Store
	var err error
	if cfg.Store.Type == "memory" {
		st = store.NewMemory()
	} else {
		st, err = store.NewSQLite(cfg.Store.DBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
	}
	defer st.Close()

	oracle := market.NewSim(cfg.Market.Seed)
	ldg := ledger.New(st, oracle)
	engine := rules.NewEngine(st, ldg)

	timeout, _ := cfg.Verify.ParseTimeout()
	dispatcher := rules.NewDispatcher(engine, cfg.Verify.Workers, cfg.Verify.QueueSize, timeout)
	defer dispatcher.Close()

	interval, _ := cfg.Scheduler.ParseInterval()
	sweeper := sched.NewSweeper(st, engine, interval, cfg.Scheduler.Parallelism)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("propdesk: store=%s sweep=%s workers=%d", cfg.Store.Type, cfg.Scheduler.Interval, cfg.Verify.Workers)
	return sweeper.Run(ctx)
}
