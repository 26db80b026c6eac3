// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"github.com/holiman/uint256"

	"github.com/vechain/liquidpool/amount"
	"github.com/vechain/liquidpool/chain"
	"github.com/vechain/liquidpool/pool/reverts"
	"github.com/vechain/liquidpool/remote"
)

// Tolerances of a balance sync, in base units.
var (
	syncTotalTolerance = uint256.NewInt(1)
	syncPartTolerance  = uint256.NewInt(200)
)

// Autocompound reads the pool's stake at validator id and books the growth
// since the last read as rewards. It returns false, without error, if the
// validator is paused, holds no stake or was already redeemed this epoch.
func (p *Pool) Autocompound(id chain.AccountID) (started bool, err error) {
	err = p.exec(func() error {
		started, err = p.autocompound(id)
		return err
	})
	return started, err
}

func (p *Pool) autocompound(id chain.AccountID) (bool, error) {
	if p.ledger.Operations.AutocompoundPaused {
		return false, reverts.New(reverts.Precondition, "autocompound is paused")
	}
	v, err := p.getValidator(id)
	if err != nil {
		return false, err
	}
	if err := p.requireNotBusy(); err != nil {
		return false, err
	}
	if v.IsLocked() {
		return false, reverts.Newf(reverts.Busy, "validator %s is %s", id, &v.Lock)
	}
	current := p.epoch()
	if v.Paused || v.Staked.IsZero() || v.LastRewardEpoch == current {
		return false, nil
	}

	op, err := p.start(KindRewards, v, true, nil)
	if err != nil {
		return false, err
	}
	logger.Debug("autocompound", "validator", id, "op", op)
	return true, nil
}

// onRewardsBalance raises the validator's stake and the pool total by the
// rewards and pays the operator's fee out of the liquid balance.
func (p *Pool) onRewardsBalance(op *PendingOp, out remote.Outcome) bool {
	if out.Balance == nil {
		logger.Error("rewards read without balance", "op", op)
		return false
	}
	l := p.ledger
	v := p.validators.Get(op.Validator)
	v.LastRewardEpoch = p.epoch()
	p.touchValidator(v.ID)

	rewards := amount.SatSub(out.Balance, &v.Staked)
	if rewards.IsZero() {
		return false
	}
	v.Staked.Set(out.Balance)
	l.AccumulatedRewards.Add(&l.AccumulatedRewards, rewards)
	l.TotalStaked.Add(&l.TotalStaked, rewards)
	metricRewards().Add(milliNear(rewards))

	fee := l.RewardFee.Apply(rewards)
	logger.Info("compounded rewards",
		"validator", v.ID,
		"rewards", rewards.Dec(),
		"fee", fee.Dec(),
		"price", l.SharePrice().Dec())
	if fee.IsZero() {
		return false
	}
	if p.feeBudget().Lt(fee) {
		logger.Warn("liquid balance cannot cover operator fee, skipped",
			"fee", fee.Dec(),
			"balance", l.Balance.Dec(),
			"owed", l.LiquidLiability().Dec())
		return false
	}
	if _, err := p.transfer(KindFeeTransfer, l.Operator, fee); err != nil {
		logger.Error("failed to pay operator fee", "err", err)
		return false
	}
	l.Balance.Sub(&l.Balance, fee)
	return false
}

// feeBudget is the liquid balance above the reserve not earmarked for
// staking nor owed to unstaking accounts.
func (p *Pool) feeBudget() *uint256.Int {
	l := p.ledger
	earmarked := new(uint256.Int).Add(&l.PendingStake, &l.LockedStake)
	earmarked.Add(earmarked, l.LiquidLiability())
	return amount.SatSub(l.Spendable(), earmarked)
}

func (p *Pool) onFeePaid(op *PendingOp, _ remote.Outcome) bool {
	logger.Info("paid operator fee", "operator", op.Account, "fee", op.Amount.Dec())
	return false
}

func (p *Pool) restoreFee(op *PendingOp) {
	p.ledger.Balance.Add(&p.ledger.Balance, &op.Amount)
}

// SyncValidatorBalance aligns the validator record with the pool's account
// at the validator, provided both agree within rounding tolerance.
func (p *Pool) SyncValidatorBalance(id chain.AccountID) error {
	return p.exec(func() error {
		if p.ledger.Operations.SyncBalancePaused {
			return reverts.New(reverts.Precondition, "balance sync is paused")
		}
		v, err := p.getValidator(id)
		if err != nil {
			return err
		}
		if v.IsLocked() {
			return reverts.Newf(reverts.Busy, "validator %s is %s", id, &v.Lock)
		}
		_, err = p.start(KindSync, v, false, nil)
		return err
	})
}

func withinTolerance(x, y, tolerance *uint256.Int) bool {
	var diff uint256.Int
	if x.Gt(y) {
		diff.Sub(x, y)
	} else {
		diff.Sub(y, x)
	}
	return !diff.Gt(tolerance)
}

func (p *Pool) onAccountSynced(op *PendingOp, out remote.Outcome) bool {
	acc := out.Account
	if acc == nil {
		logger.Error("sync without account", "op", op)
		return false
	}
	v := p.validators.Get(op.Validator)
	local := new(uint256.Int).Add(&v.Staked, &v.ToWithdraw)
	remoteTotal := new(uint256.Int).Add(&acc.Staked, &acc.Unstaked)
	if !withinTolerance(remoteTotal, local, syncTotalTolerance) ||
		!withinTolerance(&acc.Staked, &v.Staked, syncPartTolerance) ||
		!withinTolerance(&acc.Unstaked, &v.ToWithdraw, syncPartTolerance) {
		logger.Warn("validator balance out of sync",
			"validator", v.ID,
			"staked", v.Staked.Dec(),
			"remoteStaked", acc.Staked.Dec(),
			"toWithdraw", v.ToWithdraw.Dec(),
			"remoteUnstaked", acc.Unstaked.Dec())
		return false
	}

	// keep the pool totals in step with the validator record
	l := p.ledger
	l.TotalStaked.Add(&l.TotalStaked, &acc.Staked)
	l.TotalStaked.Set(amount.SatSub(&l.TotalStaked, &v.Staked))
	l.ToWithdraw.Add(&l.ToWithdraw, &acc.Unstaked)
	l.ToWithdraw.Set(amount.SatSub(&l.ToWithdraw, &v.ToWithdraw))

	v.Staked.Set(&acc.Staked)
	v.ToWithdraw.Set(&acc.Unstaked)
	p.touchValidator(v.ID)
	logger.Info("synced validator balance", "validator", v.ID, "staked", v.Staked.Dec(), "toWithdraw", v.ToWithdraw.Dec())
	return false
}
