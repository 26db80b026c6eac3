// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package config loads the daemon configuration file.
package config

import (
	"bytes"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/liquidpool/amount"
	"github.com/vechain/liquidpool/chain"
	"github.com/vechain/liquidpool/pool"
	"github.com/vechain/liquidpool/pool/ledger"
	"github.com/vechain/liquidpool/remote/httpclient"
	"github.com/vechain/liquidpool/runtime"
)

// Config defines the daemon configuration params
type Config struct {
	DataDir string   `yaml:"data_dir"`
	Epoch   *Epoch   `yaml:"epoch"`
	Pool    *Pool    `yaml:"pool"`
	Gateway *Gateway `yaml:"gateway"`
	Keeper  *Keeper  `yaml:"keeper"`
	API     *API     `yaml:"api"`
}

// Epoch defines the network's epoch schedule.
type Epoch struct {
	Genesis time.Time     `yaml:"genesis"`
	Length  time.Duration `yaml:"length"`
}

// Pool defines the genesis and tunables of the pool.
type Pool struct {
	Owner               string          `yaml:"owner"`
	Operator            string          `yaml:"operator"`
	RewardFee           amount.Fraction `yaml:"reward_fee"`
	Reserve             Amount          `yaml:"reserve"`
	MinEpochStake       Amount          `yaml:"min_epoch_stake"`
	StakeFloor          Amount          `yaml:"stake_floor"`
	RewardFeeWaitEpochs uint64          `yaml:"reward_fee_wait_epochs"`
	Validators          []string        `yaml:"validators"`
}

// Gateway defines the staking pool gateway. Without URL the daemon runs in
// solo mode against an in-memory staking pool.
type Gateway struct {
	URL          string        `yaml:"url"`
	Timeout      time.Duration `yaml:"timeout"`
	ReadRetries  uint64        `yaml:"read_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// Keeper defines the epoch keeper and the remote call executor.
type Keeper struct {
	Disabled        bool          `yaml:"disabled"`
	Interval        time.Duration `yaml:"interval"`
	SyncEveryEpochs uint64        `yaml:"sync_every_epochs"`
	CallLimit       int           `yaml:"call_limit"`
	CallTimeout     time.Duration `yaml:"call_timeout"` // bounds read-only calls
	MaxTickDelay    time.Duration `yaml:"max_tick_delay"`
}

// API defines the HTTP servers.
type API struct {
	Addr                 string        `yaml:"addr"`
	CORS                 []string      `yaml:"cors"`
	AdminAddr            string        `yaml:"admin_addr"`
	MetricsAddr          string        `yaml:"metrics_addr"`
	SlowQueriesThreshold time.Duration `yaml:"slow_queries_threshold"`
	Log5xxErrors         bool          `yaml:"log_5xx_errors"`
	EpochTriggers        bool          `yaml:"epoch_triggers"`
	// Depositors may credit deposits. The API has no view of the chain: a
	// depositor reports a transfer only after it has arrived.
	Depositors []string `yaml:"depositors"`
}

// Default returns the default daemon configuration
func Default() *Config {
	return &Config{
		DataDir: "./data",
		Epoch: &Epoch{
			Genesis: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			Length:  12 * time.Hour,
		},
		Pool: &Pool{
			RewardFee:           amount.NewFraction(1, 10),
			Reserve:             Amount(*chain.MinBalanceForStorage),
			MinEpochStake:       Amount(*chain.OneNear),
			RewardFeeWaitEpochs: 4,
		},
		Gateway: &Gateway{
			Timeout:      httpclient.DefaultOptions().Timeout,
			ReadRetries:  httpclient.DefaultOptions().ReadRetries,
			RetryBackoff: httpclient.DefaultOptions().RetryBackoff,
		},
		Keeper: &Keeper{
			Interval:        time.Minute,
			SyncEveryEpochs: 1,
			CallLimit:       4,
			CallTimeout:     30 * time.Second,
			MaxTickDelay:    10 * time.Minute,
		},
		API: &API{
			Addr:                 "localhost:8680",
			CORS:                 []string{"*"},
			SlowQueriesThreshold: time.Second,
			EpochTriggers:        true,
		},
	}
}

// Read parses a YAML configuration over the defaults and validates it.
// Unknown fields are rejected.
func Read(data []byte) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadFile reads the configuration file at path.
func ReadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg, err := Read(data)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs *multierror.Error

	if c.Epoch == nil || c.Pool == nil || c.Gateway == nil || c.Keeper == nil || c.API == nil {
		return errors.New("config: missing section")
	}

	if c.Epoch.Length <= 0 {
		errs = multierror.Append(errs, errors.New("epoch.length must be positive"))
	}
	if c.Epoch.Genesis.IsZero() {
		errs = multierror.Append(errs, errors.New("epoch.genesis required"))
	}

	if _, err := chain.ParseAccountID(c.Pool.Owner); err != nil {
		errs = multierror.Append(errs, errors.WithMessage(err, "pool.owner"))
	}
	if _, err := chain.ParseAccountID(c.Pool.Operator); err != nil {
		errs = multierror.Append(errs, errors.WithMessage(err, "pool.operator"))
	}
	if err := c.Pool.RewardFee.Validate(ledger.MaxRewardFee); err != nil {
		errs = multierror.Append(errs, errors.WithMessage(err, "pool.reward_fee"))
	}
	if !amount.IsU128(c.Pool.Reserve.Int()) {
		errs = multierror.Append(errs, errors.New("pool.reserve exceeds 128 bits"))
	}
	seen := make(map[string]bool, len(c.Pool.Validators))
	for _, v := range c.Pool.Validators {
		if _, err := chain.ParseAccountID(v); err != nil {
			errs = multierror.Append(errs, errors.WithMessage(err, "pool.validators"))
		}
		if seen[v] {
			errs = multierror.Append(errs, errors.Errorf("pool.validators: duplicate %q", v))
		}
		seen[v] = true
	}

	if c.Gateway.URL != "" {
		u, err := url.Parse(c.Gateway.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = multierror.Append(errs, errors.Errorf("gateway.url %q must be an http(s) url", c.Gateway.URL))
		}
	}
	if c.Gateway.Timeout < 0 || c.Gateway.RetryBackoff < 0 {
		errs = multierror.Append(errs, errors.New("gateway durations must not be negative"))
	}

	if c.Keeper.Interval <= 0 {
		errs = multierror.Append(errs, errors.New("keeper.interval must be positive"))
	}
	if c.Keeper.CallLimit <= 0 {
		errs = multierror.Append(errs, errors.New("keeper.call_limit must be positive"))
	}
	if c.Keeper.MaxTickDelay < c.Keeper.Interval {
		errs = multierror.Append(errs, errors.New("keeper.max_tick_delay must not be below keeper.interval"))
	}

	if strings.TrimSpace(c.API.Addr) == "" {
		errs = multierror.Append(errs, errors.New("api.addr required"))
	}
	for _, d := range c.API.Depositors {
		if _, err := chain.ParseAccountID(d); err != nil {
			errs = multierror.Append(errs, errors.WithMessage(err, "api.depositors"))
		}
	}

	return errs.ErrorOrNil()
}

// Genesis returns the genesis of a fresh pool.
func (c *Config) Genesis() *pool.Genesis {
	return &pool.Genesis{
		Owner:     chain.AccountID(c.Pool.Owner),
		Operator:  chain.AccountID(c.Pool.Operator),
		RewardFee: c.Pool.RewardFee,
		Reserve:   c.Pool.Reserve.Int().Clone(),
	}
}

// Validators returns the validators registered on start.
func (c *Config) Validators() []chain.AccountID {
	ids := make([]chain.AccountID, 0, len(c.Pool.Validators))
	for _, v := range c.Pool.Validators {
		ids = append(ids, chain.AccountID(v))
	}
	return ids
}

// Depositors returns the accounts trusted to credit deposits.
func (c *Config) Depositors() []chain.AccountID {
	ids := make([]chain.AccountID, 0, len(c.API.Depositors))
	for _, d := range c.API.Depositors {
		ids = append(ids, chain.AccountID(d))
	}
	return ids
}

func (c *Config) PoolConfig() pool.Config {
	return pool.Config{
		MinEpochStake:       c.Pool.MinEpochStake.Int().Clone(),
		StakeFloor:          c.Pool.StakeFloor.Int().Clone(),
		RewardFeeWaitEpochs: c.Pool.RewardFeeWaitEpochs,
	}
}

func (c *Config) GatewayOptions() httpclient.Options {
	return httpclient.Options{
		Timeout:      c.Gateway.Timeout,
		ReadRetries:  c.Gateway.ReadRetries,
		RetryBackoff: c.Gateway.RetryBackoff,
	}
}

func (c *Config) KeeperConfig() runtime.KeeperConfig {
	return runtime.KeeperConfig{
		Interval:        c.Keeper.Interval,
		SyncEveryEpochs: c.Keeper.SyncEveryEpochs,
	}
}

// Amount is a base-asset quantity written either in the smallest
// denomination ("1000000000000000000000000") or in whole units ("1 NEAR").
type Amount uint256.Int

func (a *Amount) Int() *uint256.Int {
	return (*uint256.Int)(a)
}

func (a *Amount) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	x, err := ParseAmount(s)
	if err != nil {
		return errors.Errorf("line %d: %v", value.Line, err)
	}
	*a = Amount(*x)
	return nil
}

func (a Amount) MarshalYAML() (any, error) {
	return a.Int().Dec(), nil
}

// ParseAmount parses an amount in either notation.
func ParseAmount(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	unit := false
	if fields := strings.Fields(s); len(fields) == 2 && strings.EqualFold(fields[1], "near") {
		s, unit = fields[0], true
	}
	x, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, errors.Errorf("invalid amount %q", s)
	}
	if unit {
		if _, overflow := x.MulOverflow(x, chain.OneNear); overflow {
			return nil, errors.Errorf("amount %q overflows", s)
		}
	}
	return x, nil
}
