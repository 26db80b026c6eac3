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

// LockEpoch closes the batch of the current epoch. It returns false if the
// epoch was already locked.
func (p *Pool) LockEpoch() (locked bool, err error) {
	err = p.exec(func() error {
		locked = p.lockEpoch()
		return nil
	})
	return locked, err
}

// lockEpoch moves pending requests into the locked batch and nets stake
// against unstake. The netted part never leaves the pool's balance: it pays
// the unstaking users directly.
func (p *Pool) lockEpoch() bool {
	l := p.ledger
	current := p.epoch()
	if l.LastReconciliationEpoch >= current {
		return false
	}

	l.LockedStake.Add(&l.LockedStake, &l.PendingStake)
	l.LockedUnstake.Add(&l.LockedUnstake, &l.PendingUnstake)
	l.PendingStake.Clear()
	l.PendingUnstake.Clear()

	netted := amount.Min(&l.LockedStake, &l.LockedUnstake)
	l.LockedStake.Sub(&l.LockedStake, netted)
	l.LockedUnstake.Sub(&l.LockedUnstake, netted)
	l.LastReconciliationEpoch = current

	logger.Info("locked epoch",
		"epoch", current,
		"stake", l.LockedStake.Dec(),
		"unstake", l.LockedUnstake.Dec(),
		"netted", netted.Dec())
	return true
}

// belowEpochMinimum returns true if a locked batch is too small to settle.
func (p *Pool) belowEpochMinimum(x *uint256.Int) bool {
	return x.IsZero() || x.Lt(p.cfg.MinEpochStake)
}

// SettleStake stakes the locked batch with the least staked validator.
// It returns false if there was nothing to stake.
func (p *Pool) SettleStake() (started bool, err error) {
	err = p.exec(func() error {
		started, err = p.settleStake()
		return err
	})
	return started, err
}

func (p *Pool) settleStake() (bool, error) {
	l := p.ledger
	if l.Operations.EpochStakePaused {
		return false, reverts.New(reverts.Precondition, "epoch stake is paused")
	}
	if err := p.requireNotBusy(); err != nil {
		return false, err
	}
	p.lockEpoch()

	if p.belowEpochMinimum(&l.LockedStake) {
		return false, nil
	}
	v := p.validators.ForStaking()
	if v == nil {
		logger.Warn("no validator available for staking", "amount", l.LockedStake.Dec())
		return false, nil
	}
	need := new(uint256.Int).Add(&l.LockedStake, &l.Reserve)
	if l.Balance.Lt(need) {
		return false, reverts.Newf(reverts.Precondition, "balance %s cannot cover stake %s plus reserve", l.Balance.Dec(), l.LockedStake.Dec())
	}

	amt := new(uint256.Int).Set(&l.LockedStake)
	op, err := p.start(KindStake, v, true, amt)
	if err != nil {
		return false, err
	}
	l.LockedStake.Clear()
	l.Balance.Sub(&l.Balance, amt)

	logger.Info("epoch stake", "validator", v.ID, "amount", amt.Dec(), "op", op)
	return true, nil
}

// onStaked credits the validator and verifies its balance with a follow-up
// read under the same locks.
func (p *Pool) onStaked(op *PendingOp, _ remote.Outcome) bool {
	v := p.validators.Get(op.Validator)
	v.Staked.Add(&v.Staked, &op.Amount)
	p.touchValidator(v.ID)
	return p.handover(op, KindStakeReconcile, &op.Amount)
}

func (p *Pool) restoreStake(op *PendingOp) {
	l := p.ledger
	l.PendingStake.Add(&l.PendingStake, &op.Amount)
	l.Balance.Add(&l.Balance, &op.Amount)
}

// onStakeReconciled books a shortfall of the remote balance as a loss. A
// surplus is left for the auto-compounder, which charges the fee on it.
func (p *Pool) onStakeReconciled(op *PendingOp, out remote.Outcome) bool {
	if out.Balance == nil {
		logger.Error("stake reconcile without balance", "op", op)
		return false
	}
	v := p.validators.Get(op.Validator)
	if out.Balance.Lt(&v.Staked) {
		loss := new(uint256.Int).Sub(&v.Staked, out.Balance)
		l := p.ledger
		l.TotalStaked.Set(amount.SatSub(&l.TotalStaked, loss))
		v.Staked.Set(out.Balance)
		p.touchValidator(v.ID)
		logger.Warn("reconciled stake shortfall", "validator", v.ID, "loss", loss.Dec(), "total", l.TotalStaked.Dec())
	}
	return false
}

func (p *Pool) skipStakeReconcile(op *PendingOp) {
	logger.Warn("stake left unreconciled", "validator", op.Validator, "amount", op.Amount.Dec())
}

// SettleUnstake unstakes the locked batch, or as much of it as one
// validator can serve, from the most staked unlocked validator.
// It returns false if there was nothing to unstake.
func (p *Pool) SettleUnstake() (started bool, err error) {
	err = p.exec(func() error {
		started, err = p.settleUnstake()
		return err
	})
	return started, err
}

func (p *Pool) settleUnstake() (bool, error) {
	l := p.ledger
	if l.Operations.EpochUnstakePaused {
		return false, reverts.New(reverts.Precondition, "epoch unstake is paused")
	}
	if err := p.requireNotBusy(); err != nil {
		return false, err
	}
	p.lockEpoch()

	if p.belowEpochMinimum(&l.LockedUnstake) {
		return false, nil
	}
	current := p.epoch()
	v := p.validators.ForUnstaking(current, p.cfg.StakeFloor)
	if v == nil {
		logger.Warn("no validator available for unstaking", "amount", l.LockedUnstake.Dec())
		return false, nil
	}

	amt := amount.Min(&l.LockedUnstake, new(uint256.Int).Sub(&v.Staked, p.cfg.StakeFloor))
	op, err := p.start(KindUnstake, v, true, amt)
	if err != nil {
		return false, err
	}
	op.Aux = v.UnstakeUnlockEpoch

	v.Staked.Sub(&v.Staked, amt)
	v.ToWithdraw.Add(&v.ToWithdraw, amt)
	v.UnstakeUnlockEpoch = current + chain.NumEpochsToUnlock
	l.ToWithdraw.Add(&l.ToWithdraw, amt)
	l.LockedUnstake.Sub(&l.LockedUnstake, amt)

	logger.Info("epoch unstake", "validator", v.ID, "amount", amt.Dec(), "unlock", v.UnstakeUnlockEpoch, "op", op)
	return true, nil
}

func (p *Pool) onUnstaked(op *PendingOp, _ remote.Outcome) bool {
	return false
}

func (p *Pool) restoreUnstake(op *PendingOp) {
	v := p.validators.Get(op.Validator)
	v.Staked.Add(&v.Staked, &op.Amount)
	v.ToWithdraw.Sub(&v.ToWithdraw, &op.Amount)
	v.UnstakeUnlockEpoch = op.Aux
	p.touchValidator(v.ID)

	l := p.ledger
	l.ToWithdraw.Sub(&l.ToWithdraw, &op.Amount)
	l.LockedUnstake.Add(&l.LockedUnstake, &op.Amount)
}

// SettleWithdraw pulls the unlocked funds of validator id back into the
// pool's balance.
func (p *Pool) SettleWithdraw(id chain.AccountID) error {
	return p.exec(func() error {
		return p.settleWithdraw(id)
	})
}

func (p *Pool) settleWithdraw(id chain.AccountID) error {
	l := p.ledger
	if l.Operations.EpochWithdrawPaused {
		return reverts.New(reverts.Precondition, "epoch withdraw is paused")
	}
	if err := p.requireNotBusy(); err != nil {
		return err
	}
	v, err := p.getValidator(id)
	if err != nil {
		return err
	}
	if v.IsLocked() {
		return reverts.Newf(reverts.Busy, "validator %s is %s", id, &v.Lock)
	}
	if v.ToWithdraw.IsZero() {
		return reverts.Newf(reverts.Precondition, "validator %s has nothing to withdraw", id)
	}
	if current := p.epoch(); !v.Unlocked(current) {
		return reverts.Newf(reverts.Precondition, "validator %s unlocks at epoch %d, now %d", id, v.UnstakeUnlockEpoch, current)
	}

	amt := new(uint256.Int).Set(&v.ToWithdraw)
	op, err := p.start(KindWithdraw, v, true, amt)
	if err != nil {
		return err
	}
	v.ToWithdraw.Clear()

	logger.Info("epoch withdraw", "validator", id, "amount", amt.Dec(), "op", op)
	return nil
}

func (p *Pool) onWithdrawn(op *PendingOp, _ remote.Outcome) bool {
	l := p.ledger
	l.Balance.Add(&l.Balance, &op.Amount)
	l.ToWithdraw.Set(amount.SatSub(&l.ToWithdraw, &op.Amount))
	return false
}

// restoreWithdraw puts the amount back on the validator so a later
// SettleWithdraw retries it.
func (p *Pool) restoreWithdraw(op *PendingOp) {
	v := p.validators.Get(op.Validator)
	v.ToWithdraw.Add(&v.ToWithdraw, &op.Amount)
	p.touchValidator(v.ID)
}
