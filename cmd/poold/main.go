// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// poold runs a liquid staking pool against a staking pool gateway.
package main

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"github.com/vechain/liquidpool/api"
	"github.com/vechain/liquidpool/cmd/poold/httpserver"
	"github.com/vechain/liquidpool/config"
	"github.com/vechain/liquidpool/epoch"
	"github.com/vechain/liquidpool/health"
	"github.com/vechain/liquidpool/metrics"
	"github.com/vechain/liquidpool/pool"
	"github.com/vechain/liquidpool/remote"
	"github.com/vechain/liquidpool/remote/httpclient"
	"github.com/vechain/liquidpool/remote/mockpool"
	"github.com/vechain/liquidpool/runtime"
)

var (
	version   string
	gitCommit string
	gitTag    string

	flags = []cli.Flag{
		configFlag,
		dataDirFlag,
		gatewayURLFlag,
		apiAddrFlag,
		apiCorsFlag,
		enableAPILogsFlag,
		verbosityFlag,
		jsonLogsFlag,
		enableMetricsFlag,
		metricsAddrFlag,
		enableAdminFlag,
		adminAddrFlag,
	}
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
		Version:   fullVersion(),
		Name:      "poold",
		Usage:     "Liquid staking pool daemon",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags:     flags,
		Action:    defaultAction,
		Commands: []cli.Command{
			{
				Name:   "solo",
				Usage:  "run the pool against an in-memory staking pool for test & dev",
				Flags:  append(flags, persistFlag, epochLengthFlag),
				Action: soloAction,
			},
			{
				Name:   "dump-config",
				Usage:  "print the default configuration",
				Action: dumpConfigAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	return run(ctx, false)
}

func soloAction(ctx *cli.Context) error {
	return run(ctx, true)
}

func dumpConfigAction(*cli.Context) error {
	data, err := yaml.Marshal(config.Default())
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	_, err = os.Stdout.Write(data)
	return err
}

func run(ctx *cli.Context, solo bool) error {
	lvl, err := readIntFromUInt64Flag(ctx.Uint64(verbosityFlag.Name))
	if err != nil {
		return errors.Wrap(err, "parse verbosity flag")
	}
	logLevel := initLogger(os.Stderr, lvl, ctx.Bool(jsonLogsFlag.Name))

	cfg, err := loadConfig(ctx, solo)
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	metricsEnabled := cfg.API.MetricsAddr != ""
	if metricsEnabled {
		metrics.InitializePrometheusMetrics()
	}

	exitCtx := handleExitSignal()

	clock, err := epoch.NewTimed(cfg.Epoch.Genesis, cfg.Epoch.Length)
	if err != nil {
		return err
	}

	var (
		client remote.Client
		bank   remote.Bank
	)
	if solo {
		mock := mockpool.New().WithClock(clock)
		for _, id := range cfg.Validators() {
			mock.AddValidator(id)
		}
		client, bank = mock, mock
	} else {
		gw, err := httpclient.New(cfg.Gateway.URL, cfg.GatewayOptions())
		if err != nil {
			return err
		}
		client, bank = gw, gw
	}

	store, err := openStore(cfg.DataDir, !solo || ctx.Bool(persistFlag.Name))
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing pool database...")
		if err := store.Close(); err != nil {
			log.Warn("failed to close pool database", "err", err)
		}
	}()

	host := runtime.NewHost(client, bank, cfg.Keeper.CallLimit, cfg.Keeper.CallTimeout)
	p, err := pool.New(store, clock, host, cfg.PoolConfig(), cfg.Genesis())
	if err != nil {
		return errors.Wrap(err, "open pool")
	}
	if err := registerValidators(p, cfg.Validators()); err != nil {
		return err
	}
	h := health.New(cfg.Keeper.MaxTickDelay, host.Pending)

	var apiLogs atomic.Bool
	apiLogs.Store(ctx.Bool(enableAPILogsFlag.Name))

	apiURL, srvCloser, err := httpserver.StartAPIServer(cfg.API.Addr, p, api.Options{
		AllowedOrigins:       strings.Join(cfg.API.CORS, ","),
		EnableReqLogger:      &apiLogs,
		SlowQueriesThreshold: cfg.API.SlowQueriesThreshold,
		Log5xxErrors:         cfg.API.Log5xxErrors,
		EnableMetrics:        metricsEnabled,
		DisableEpochTriggers: !cfg.API.EpochTriggers,
		Depositors:           cfg.Depositors(),
	})
	if err != nil {
		return err
	}
	defer func() { log.Info("stopping API server..."); srvCloser() }()

	if cfg.API.AdminAddr != "" {
		adminURL, closeFunc, err := httpserver.StartAdminServer(cfg.API.AdminAddr, logLevel, &apiLogs, h)
		if err != nil {
			return errors.Wrap(err, "start admin server")
		}
		defer func() { log.Info("stopping admin server..."); closeFunc() }()
		log.Info("admin server started", "url", adminURL)
	}

	if metricsEnabled {
		metricsURL, closeFunc, err := httpserver.StartMetricsServer(cfg.API.MetricsAddr)
		if err != nil {
			return errors.Wrap(err, "start metrics server")
		}
		defer func() { log.Info("stopping metrics server..."); closeFunc() }()
		log.Info("metrics server started", "url", metricsURL)
	}

	ledger := p.Ledger()
	log.Info("pool started",
		"version", fullVersion(),
		"api", apiURL,
		"solo", solo,
		"epoch", p.Epoch(),
		"owner", ledger.Owner,
		"validators", len(p.Validators()),
		"pending", len(p.PendingOps()),
	)

	g, gctx := errgroup.WithContext(exitCtx)
	g.Go(func() error {
		return host.Run(gctx, p)
	})
	if cfg.Keeper.Disabled {
		log.Warn("keeper disabled, epochs advance only through the API")
	} else {
		keeper := runtime.NewKeeper(p, cfg.KeeperConfig(), h)
		g.Go(func() error {
			return keeper.Run(gctx)
		})
	}
	return g.Wait()
}
