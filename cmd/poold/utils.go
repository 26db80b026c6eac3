// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/liquidpool/chain"
	"github.com/vechain/liquidpool/config"
	"github.com/vechain/liquidpool/kv"
	"github.com/vechain/liquidpool/lvldb"
	"github.com/vechain/liquidpool/pool"
	"github.com/vechain/liquidpool/runtime"
)

const (
	soloOwner    = "owner.solo"
	soloOperator = "operator.solo"
)

var soloValidators = []string{"validator1.solo", "validator2.solo"}

func readIntFromUInt64Flag(val uint64) (int, error) {
	if val > math.MaxInt {
		return 0, errors.Errorf("invalid value %d, must be at most %d", val, math.MaxInt)
	}
	return int(val), nil
}

// initLogger installs the root logger and returns the level variable the
// admin server adjusts at runtime.
func initLogger(w io.Writer, lvl int, jsonLogs bool) *slog.LevelVar {
	logLevel := new(slog.LevelVar)
	logLevel.Set(log.FromLegacyLevel(lvl))

	var handler slog.Handler
	if jsonLogs {
		handler = log.JSONHandlerWithLevel(w, logLevel)
	} else {
		useColor := false
		if f, ok := w.(*os.File); ok {
			useColor = (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) && os.Getenv("TERM") != "dumb"
		}
		handler = log.NewTerminalHandlerWithLevel(w, logLevel, useColor)
	}
	log.SetDefault(log.NewLogger(handler))

	// package loggers bind to the root handler when created
	pool.SetLogger(log.New("pkg", "pool"))
	runtime.SetLogger(log.New("pkg", "runtime"))
	return logLevel
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		log.Info("exit for signal", "signal", sig)
		cancel()
	}()
	return ctx
}

// loadConfig reads the configuration file if given and applies the command
// line overrides.
func loadConfig(ctx *cli.Context, solo bool) (*config.Config, error) {
	cfg := config.Default()
	if path := ctx.String(configFlag.Name); path != "" {
		var err error
		if cfg, err = config.ReadFile(path); err != nil {
			return nil, err
		}
	}

	if v := ctx.String(dataDirFlag.Name); v != "" {
		cfg.DataDir = v
	}
	if v := ctx.String(gatewayURLFlag.Name); v != "" {
		cfg.Gateway.URL = v
	}
	if v := ctx.String(apiAddrFlag.Name); v != "" {
		cfg.API.Addr = v
	}
	if ctx.IsSet(apiCorsFlag.Name) {
		cfg.API.CORS = strings.Split(ctx.String(apiCorsFlag.Name), ",")
	}
	if ctx.IsSet(adminAddrFlag.Name) || ctx.Bool(enableAdminFlag.Name) {
		cfg.API.AdminAddr = ctx.String(adminAddrFlag.Name)
	}
	if ctx.IsSet(metricsAddrFlag.Name) || ctx.Bool(enableMetricsFlag.Name) {
		cfg.API.MetricsAddr = ctx.String(metricsAddrFlag.Name)
	}

	if solo {
		applySoloDefaults(cfg, ctx.Duration(epochLengthFlag.Name))
	} else if cfg.Gateway.URL == "" {
		return nil, errors.New("gateway url required, set gateway.url or use the solo command")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applySoloDefaults fills what a development pool needs and the
// configuration left empty.
func applySoloDefaults(cfg *config.Config, epochLength time.Duration) {
	cfg.Gateway.URL = ""
	if cfg.Pool.Owner == "" {
		cfg.Pool.Owner = soloOwner
	}
	if cfg.Pool.Operator == "" {
		cfg.Pool.Operator = soloOperator
	}
	if len(cfg.Pool.Validators) == 0 {
		cfg.Pool.Validators = soloValidators
	}
	if len(cfg.API.Depositors) == 0 {
		cfg.API.Depositors = []string{cfg.Pool.Owner}
	}
	if epochLength > 0 {
		cfg.Epoch.Length = epochLength
		cfg.Epoch.Genesis = time.Now().Truncate(epochLength)
	}
	if cfg.Keeper.Interval > cfg.Epoch.Length/4 {
		cfg.Keeper.Interval = max(cfg.Epoch.Length/4, time.Second)
	}
	if cfg.Keeper.MaxTickDelay < cfg.Keeper.Interval {
		cfg.Keeper.MaxTickDelay = 10 * cfg.Keeper.Interval
	}
}

func openStore(dataDir string, persist bool) (kv.StoreCloser, error) {
	if !persist {
		db, err := lvldb.NewMem()
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create data dir [%v]", dataDir)
	}
	db, err := lvldb.New(filepath.Join(dataDir, "pool.db"), lvldb.Options{
		CacheSize:              64,
		OpenFilesCacheCapacity: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open pool database")
	}
	return db, nil
}

// registerValidators adds the configured validators the pool does not know
// yet. Validators removed from the configuration are left untouched.
func registerValidators(p *pool.Pool, ids []chain.AccountID) error {
	owner := p.Ledger().Owner
	for _, id := range ids {
		if p.Validator(id) != nil {
			continue
		}
		if err := p.AddValidator(owner, id); err != nil {
			return errors.Wrapf(err, "register validator %v", id)
		}
	}
	return nil
}
