package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/brojonat/ledgerdump/service/config"
	"github.com/brojonat/ledgerdump/service/ledger"
	"github.com/brojonat/ledgerdump/service/metrics"
	"github.com/brojonat/ledgerdump/service/nats"
	"github.com/brojonat/ledgerdump/service/report"
)

// newLedgerClient builds the transport; tests replace it.
var newLedgerClient = ledger.NewAgentClient

// metricsJob is the Pushgateway job name.
const metricsJob = "ledgerdump"

// runEnv holds what every command needs.
type runEnv struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	client   *ledger.Client
}

func loadConfig(c *cli.Context) *config.Config {
	return &config.Config{
		LedgerID:       c.String("ledger-id"),
		ICURL:          c.String("ic-url"),
		LogLevel:       c.String("log-level"),
		NATSURL:        c.String("nats-url"),
		PushgatewayURL: c.String("pushgateway-url"),
	}
}

func setup(c *cli.Context) (*runEnv, error) {
	cfg := loadConfig(c)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := config.NewLogger(c.App.ErrWriter, cfg.LogLevel)

	ledgerID, err := cfg.LedgerPrincipal()
	if err != nil {
		return nil, err
	}

	lc, err := newLedgerClient(cfg.ICURL)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)

	logger.Debug("initialized ledger client",
		"ledger", cfg.LedgerID,
		"ic_url", cfg.ICURL,
	)

	return &runEnv{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		metrics:  m,
		client:   ledger.NewClient(lc, ledgerID, m, logger),
	}, nil
}

// finish pushes metrics if a Pushgateway is configured. Push failures are
// logged and never change the command's outcome.
func (e *runEnv) finish(ctx context.Context) {
	if e.cfg.PushgatewayURL == "" {
		return
	}
	if err := metrics.Push(ctx, e.cfg.PushgatewayURL, metricsJob, e.registry); err != nil {
		e.logger.WarnContext(ctx, "metrics push failed", "error", err)
	}
}

func lengthCommand() *cli.Command {
	return &cli.Command{
		Name:    "length",
		Aliases: []string{"get-length"},
		Usage:   "Print the total number of transactions in the ledger",
		Action: func(c *cli.Context) error {
			env, err := setup(c)
			if err != nil {
				return err
			}
			defer env.finish(c.Context)

			n, err := env.client.Length(c.Context)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(c.App.Writer, n)
			return err
		},
	}
}

func transactionsCommand() *cli.Command {
	return &cli.Command{
		Name:    "transactions",
		Aliases: []string{"get-transactions", "txns"},
		Usage:   "Print a range of transactions, one row per transaction",
		Flags: []cli.Flag{
			&cli.Uint64Flag{
				Name:     "start",
				Aliases:  []string{"s"},
				Usage:    "Index of the first transaction",
				Required: true,
			},
			&cli.Uint64Flag{
				Name:     "length",
				Aliases:  []string{"l"},
				Usage:    "Number of transactions to request",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: pipe or json",
				Value:   string(report.FormatPipe),
			},
			&cli.StringSliceFlag{
				Name:  "jq",
				Usage: "jq expression a row must satisfy (can be specified multiple times, all must match)",
			},
		},
		Action: func(c *cli.Context) error {
			format, err := report.ParseFormat(c.String("format"))
			if err != nil {
				return err
			}
			filter, err := report.NewFilter(c.StringSlice("jq"))
			if err != nil {
				return err
			}

			env, err := setup(c)
			if err != nil {
				return err
			}
			defer env.finish(c.Context)

			opts := report.Options{
				Format: format,
				Filter: filter,
			}

			if env.cfg.NATSURL != "" {
				pub, err := nats.NewPublisher(env.cfg.NATSURL, env.cfg.LedgerID, env.metrics, env.logger)
				if err != nil {
					return err
				}
				defer pub.Close()
				opts.Sink = pub
			}

			out := bufio.NewWriter(c.App.Writer)
			exporter := report.NewExporter(env.client, out, opts, env.metrics, env.logger)
			_, exportErr := exporter.Export(c.Context, c.Uint64("start"), c.Uint64("length"))

			// Rows written before a failure are still flushed.
			if err := out.Flush(); err != nil && exportErr == nil {
				return fmt.Errorf("failed to flush output: %w", err)
			}
			return exportErr
		},
	}
}
