// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/pozk/ledger/api"
	"github.com/pozk/ledger/api/admin"
	"github.com/pozk/ledger/health"
	"github.com/pozk/ledger/log"
	"github.com/pozk/ledger/metrics"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version: fullVersion(),
		Name:    "pozk",
		Usage:   "Epoch-gated staking and reward settlement ledger",
		Flags: []cli.Flag{
			dataDirFlag,
			genesisFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiTimeoutFlag,
			apiLogsLimitFlag,
			apiSlowQueriesThresholdFlag,
			enableAPILogsFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			tickIntervalFlag,
			cacheFlag,
			skipNTPCheckFlag,
			enableAdminFlag,
			adminAddrFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:   "genesis",
				Usage:  "print the built-in genesis document",
				Action: genesisAction,
			},
			{
				Name:      "inspect",
				Usage:     "dump the epoch, provers and the positions of the given accounts",
				ArgsUsage: "[account...]",
				Flags:     []cli.Flag{dataDirFlag, genesisFlag, verbosityFlag},
				Action:    inspectAction,
			},
			adminCommand,
			reindexCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { log.Info("exited") }()

	logLevel := initLogger(ctx)
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	gene, doc := loadGenesis(ctx)
	instanceDir := makeInstanceDir(ctx, gene)

	mainDB, stateCache := openMainDB(ctx, instanceDir)
	defer func() { log.Info("closing main database..."); mainDB.Close() }()

	logDB := openLogDB(instanceDir)
	defer func() { log.Info("closing log database..."); logDB.Close() }()

	sys := initSystem(mainDB, logDB, stateCache, gene)

	if !ctx.Bool(skipNTPCheckFlag.Name) {
		go checkClockOffset(doc.Period)
	}

	enableAPILogs := new(atomic.Bool)
	enableAPILogs.Store(ctx.Bool(enableAPILogsFlag.Name))
	handler, closeSubs := api.New(sys, logDB, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		EnableReqLogger:      enableAPILogs,
		SlowQueriesThreshold: time.Duration(ctx.Uint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
		LogsLimit:            ctx.Uint64(apiLogsLimitFlag.Name),
	})
	defer func() { log.Info("closing subscriptions..."); closeSubs() }()

	apiURL, stopAPI := startAPIServer(ctx, handler)
	defer func() { log.Info("stopping API server..."); stopAPI() }()

	if ctx.Bool(enableMetricsFlag.Name) {
		metricsURL, stopMetrics := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		defer func() { log.Info("stopping metrics server..."); stopMetrics() }()
		log.Info("metrics server started", "url", metricsURL)
	}

	interval := ctx.Duration(tickIntervalFlag.Name)
	if interval <= 0 {
		interval = defaultTickInterval
	}
	healthStatus := health.New(3 * interval)
	if ctx.Bool(enableAdminFlag.Name) {
		adminURL, stopAdmin := startAdminServer(ctx.String(adminAddrFlag.Name), admin.New(logLevel, enableAPILogs, healthStatus))
		defer func() { log.Info("stopping admin server..."); stopAdmin() }()
		log.Info("admin server started", "url", adminURL)
	}

	log.Info("ledger started",
		"genesis", gene.Name(),
		"instance", instanceDir,
		"api", apiURL,
		"head", sys.Head(),
	)

	exitCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(exitCtx)
	g.Go(func() error {
		return runTicker(gctx, sys, healthStatus, interval)
	})
	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
