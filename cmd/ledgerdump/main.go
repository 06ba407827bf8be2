package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/brojonat/ledgerdump/service/config"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ledgerdump",
		Usage: "Read-only transaction report for an ICRC-1 ledger",
		Description: `Prints the length of a ledger's transaction log, or a range of its
transactions as pipe-delimited rows, following archive delegations.

Rows go to stdout; skipped records and other diagnostics go to stderr.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Commands: []*cli.Command{
			lengthCommand(),
			transactionsCommand(),
		},
		// Global flags available to all commands
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "ledger-id",
				Usage:   "Principal of the ledger canister",
				EnvVars: []string{"LEDGER_ID"},
				Value:   config.DefaultLedgerID,
			},
			&cli.StringFlag{
				Name:    "ic-url",
				Aliases: []string{"i"},
				Usage:   "Internet Computer replica or boundary node URL",
				EnvVars: []string{"IC_URL"},
				Value:   config.DefaultICURL,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Diagnostic log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   config.DefaultLogLevel,
			},
			&cli.StringFlag{
				Name:    "nats-url",
				Usage:   "Also publish every row to NATS JetStream at this URL",
				EnvVars: []string{"NATS_URL"},
			},
			&cli.StringFlag{
				Name:    "pushgateway-url",
				Usage:   "Push run metrics to this Prometheus Pushgateway on exit",
				EnvVars: []string{"PUSHGATEWAY_URL"},
			},
		},
	}
}
