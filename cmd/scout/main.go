// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the scout CLI.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/journal-scout/internal/collect"
	"github.com/pdiddy/journal-scout/internal/config"
	"github.com/pdiddy/journal-scout/internal/logging"
	"github.com/pdiddy/journal-scout/internal/metrics"
	"github.com/pdiddy/journal-scout/internal/parse"
	"github.com/pdiddy/journal-scout/internal/pipeline"
	"github.com/pdiddy/journal-scout/internal/tracker"
	"github.com/pdiddy/journal-scout/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Set by PersistentPreRunE for every command except version.
var (
	cfg    *types.Config
	logger *zap.Logger
)

// rootCmd is the base command for the scout CLI.
var rootCmd = &cobra.Command{
	Use:   "scout",
	Short: "Collect academic papers into reports and sync opportunities to the tracker",
	Long: `scout searches PubMed and Semantic Scholar for recent papers, writes a dated
markdown report, extracts opportunities from it and pushes both to the tracker.

The parse, sync and watch commands also accept reports written by other scouts
(twitter, podcast, discord), in markdown or JSON.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == versionCmd {
			return nil
		}
		boot, err := logging.New(types.LogConfig{}, os.Stderr)
		if err != nil {
			return err
		}
		cfgFile, _ := cmd.Flags().GetString("config")
		c, err := config.Load(viper.GetViper(), config.Options{
			ConfigFile: cfgFile,
			EnvFile:    ".env",
			SecretsDir: ".secrets",
			Logger:     boot,
		})
		if err != nil {
			return err
		}
		log, err := logging.New(c.Log, os.Stderr)
		if err != nil {
			return err
		}
		cfg, logger = c, log
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./scout.yaml)")
	pf.String("output-dir", "", "report directory (default: reports)")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.String("log-format", "", "log format: console or json")

	bindFlags(pf.Lookup, map[string]string{
		"output_dir": "output-dir",
		"log.level":  "log-level",
		"log.format": "log-format",
	})
}

// bindFlags binds viper keys to the named flags found by lookup.
func bindFlags(lookup func(string) *pflag.Flag, keys map[string]string) {
	for key, name := range keys {
		if err := viper.BindPFlag(key, lookup(name)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", name, err))
		}
	}
}

// newPipeline wires the collector, parser and, when withSync is set, the
// tracker client and ledger. The returned close func releases the ledger.
func newPipeline(withSync bool, m *metrics.Metrics) (*pipeline.Pipeline, func(), error) {
	queries, err := collect.LoadQuerySet(cfg.QueriesFile)
	if err != nil {
		return nil, nil, err
	}

	client := &http.Client{Timeout: cfg.HTTP.Timeout}
	opts := pipeline.Options{
		Config:    cfg,
		Collector: collect.NewFromConfig(cfg, client, logger, m),
		Queries:   queries,
		Parser:    parse.New(parse.Options{Logger: logger}),
		Metrics:   m,
		Logger:    logger,
	}

	closeFn := func() {}
	if withSync {
		tc, err := tracker.NewClient(cfg.Tracker, logger)
		if err != nil {
			return nil, nil, err
		}
		ledger, err := tracker.OpenLedger(cfg.ResolvedLedgerPath())
		if err != nil {
			return nil, nil, err
		}
		opts.Syncer = tracker.NewSyncer(tc, logger, m)
		opts.Ledger = ledger
		closeFn = func() {
			if err := ledger.Close(); err != nil {
				logger.Warn("closing ledger", zap.Error(err))
			}
		}
	}

	p, err := pipeline.New(opts)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return p, closeFn, nil
}

// writeMetrics exports m when a textfile path is configured.
func writeMetrics(m *metrics.Metrics) {
	if cfg.MetricsTextfile == "" {
		return
	}
	if err := m.WriteTextfile(cfg.MetricsTextfile); err != nil {
		logger.Warn("metrics not written", zap.Error(err))
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if logger != nil {
			logger.Error("command failed", zap.Error(err))
			_ = logger.Sync()
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
