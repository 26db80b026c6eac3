// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/liquidpool/chain"
	"github.com/vechain/liquidpool/health"
	"github.com/vechain/liquidpool/pool"
	"github.com/vechain/liquidpool/pool/reverts"
	"github.com/vechain/liquidpool/pool/validator"
)

// KeeperConfig tunes the maintenance loop.
type KeeperConfig struct {
	Interval        time.Duration // pause between passes
	SyncEveryEpochs chain.Epoch   // balance sync period per validator, zero disables it
}

// Keeper drives the epoch maintenance of a pool: pulling unlocked funds,
// compounding rewards and settling the epoch batches. Every operation is
// idempotent, so a pass simply attempts each in turn and leaves whatever is
// blocked by an outstanding call to a later pass.
type Keeper struct {
	pool     *pool.Pool
	cfg      KeeperConfig
	health   *health.Health
	lastSync map[chain.AccountID]chain.Epoch
}

func NewKeeper(p *pool.Pool, cfg KeeperConfig, h *health.Health) *Keeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	return &Keeper{
		pool:     p,
		cfg:      cfg,
		health:   h,
		lastSync: make(map[chain.AccountID]chain.Epoch),
	}
}

// Run performs a pass every interval until ctx is done.
func (k *Keeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(k.cfg.Interval)
	defer ticker.Stop()

	for {
		k.Tick()
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Tick performs one maintenance pass and returns the last unexpected error.
// Busy rejections are expected while calls are outstanding and are not
// reported.
func (k *Keeper) Tick() error {
	var lastErr error
	note := func(what string, err error) bool {
		if err == nil {
			return true
		}
		if reverts.IsKind(err, reverts.Busy) {
			logger.Debug("keeper step deferred", "step", what, "reason", err)
			return false
		}
		if reverts.IsRevertErr(err) {
			logger.Debug("keeper step skipped", "step", what, "reason", err)
			return true
		}
		logger.Warn("keeper step failed", "step", what, "err", err)
		lastErr = errors.WithMessage(err, what)
		return false
	}

	epoch := k.pool.Epoch()
	validators := k.pool.Validators()

	proceed := true
	for _, v := range validators {
		if !proceed {
			break
		}
		if v.ToWithdraw.IsZero() || !v.Unlocked(epoch) || v.IsLocked() {
			continue
		}
		proceed = note("withdraw "+v.ID.String(), k.pool.SettleWithdraw(v.ID))
	}
	for _, v := range validators {
		if !proceed {
			break
		}
		started, err := k.pool.Autocompound(v.ID)
		proceed = note("autocompound "+v.ID.String(), err) && !started
	}
	if proceed {
		started, err := k.pool.SettleStake()
		proceed = note("stake", err) && !started
	}
	if proceed {
		_, err := k.pool.SettleUnstake()
		note("unstake", err)
	}
	k.syncBalances(epoch, validators, note)

	if k.health != nil {
		k.health.KeeperTicked(epoch, lastErr)
	}
	return lastErr
}

// syncBalances reconciles each idle validator once per sync period. Syncs
// only lock their validator, so they do not wait for the pool.
func (k *Keeper) syncBalances(epoch chain.Epoch, validators []*validator.Info, note func(string, error) bool) {
	if k.cfg.SyncEveryEpochs == 0 {
		return
	}
	for _, v := range validators {
		if v.IsLocked() || v.Paused {
			continue
		}
		if last, ok := k.lastSync[v.ID]; ok && epoch < last+k.cfg.SyncEveryEpochs {
			continue
		}
		if note("sync "+v.ID.String(), k.pool.SyncValidatorBalance(v.ID)) {
			k.lastSync[v.ID] = epoch
		}
	}
}
