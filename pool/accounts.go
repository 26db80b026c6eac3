// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"github.com/holiman/uint256"

	"github.com/vechain/liquidpool/chain"
	"github.com/vechain/liquidpool/pool/account"
	"github.com/vechain/liquidpool/pool/reverts"
	"github.com/vechain/liquidpool/remote"
)

// Deposit adds amt to the pool on behalf of user and mints shares at the
// current price. The funds are staked with the next epoch batch.
func (p *Pool) Deposit(user chain.AccountID, amt *uint256.Int) (shares *uint256.Int, err error) {
	err = p.exec(func() error {
		shares, err = p.deposit(user, amt)
		return err
	})
	return shares, err
}

func (p *Pool) deposit(user chain.AccountID, amt *uint256.Int) (*uint256.Int, error) {
	l := p.ledger
	if l.Operations.StakePaused {
		return nil, reverts.New(reverts.Precondition, "staking is paused")
	}
	if err := p.requireNotBusy(); err != nil {
		return nil, err
	}
	if err := requireU128(amt); err != nil {
		return nil, err
	}
	if amt.Lt(&l.MinDeposit) {
		return nil, reverts.Newf(reverts.Precondition, "deposit %s below minimum %s", amt.Dec(), l.MinDeposit.Dec())
	}
	if err := requireU128(new(uint256.Int).Add(&l.TotalStaked, amt)); err != nil {
		return nil, err
	}
	shares := l.SharesFor(amt)
	if shares.IsZero() {
		return nil, reverts.Newf(reverts.Arithmetic, "deposit %s mints no shares", amt.Dec())
	}

	a := p.accounts[user]
	if a == nil {
		a = &account.Account{}
		p.accounts[user] = a
	}
	a.AddShares(shares)
	p.touchAccount(user)

	l.TotalStaked.Add(&l.TotalStaked, amt)
	l.TotalShares.Add(&l.TotalShares, shares)
	l.PendingStake.Add(&l.PendingStake, amt)
	l.Balance.Add(&l.Balance, amt)

	metricDeposits().Add(1)
	logger.Info("deposit", "account", user, "amount", amt.Dec(), "shares", shares.Dec())
	return shares, nil
}

// RequestUnstake redeems the shares worth amt. The returned amount, which
// truncation may leave slightly below amt, becomes withdrawable after the
// unbonding period.
func (p *Pool) RequestUnstake(user chain.AccountID, amt *uint256.Int) (released *uint256.Int, err error) {
	err = p.exec(func() error {
		if err := requireU128(amt); err != nil {
			return err
		}
		if amt.IsZero() {
			return reverts.New(reverts.Precondition, "unstake amount must be positive")
		}
		released, err = p.requestUnstake(user, func(*account.Account) *uint256.Int {
			return p.ledger.SharesFor(amt)
		})
		return err
	})
	return released, err
}

// RequestUnstakeAll redeems every share of user.
func (p *Pool) RequestUnstakeAll(user chain.AccountID) (released *uint256.Int, err error) {
	err = p.exec(func() error {
		released, err = p.requestUnstake(user, func(a *account.Account) *uint256.Int {
			return new(uint256.Int).Set(&a.Shares)
		})
		return err
	})
	return released, err
}

func (p *Pool) requestUnstake(user chain.AccountID, sharesOf func(*account.Account) *uint256.Int) (*uint256.Int, error) {
	l := p.ledger
	if l.Operations.UnstakePaused {
		return nil, reverts.New(reverts.Precondition, "unstaking is paused")
	}
	a, err := p.getAccount(user)
	if err != nil {
		return nil, err
	}
	shares := sharesOf(a)
	if shares.IsZero() {
		return nil, reverts.New(reverts.Arithmetic, "unstake redeems no shares")
	}
	if a.Shares.Lt(shares) {
		return nil, reverts.Newf(reverts.Precondition, "insufficient shares: have %s, need %s", a.Shares.Dec(), shares.Dec())
	}
	if rest := new(uint256.Int).Sub(&a.Shares, shares); chain.IsDust(l.AmountFor(rest)) {
		// the remainder is swept along
		shares = new(uint256.Int).Set(&a.Shares)
	}
	released := l.AmountFor(shares)
	if released.IsZero() {
		return nil, reverts.New(reverts.Arithmetic, "unstake releases nothing")
	}

	current := p.epoch()
	withdrawable := current + p.cooldown(released)
	if l.LastReconciliationEpoch == current {
		// this epoch is already locked, the request waits for the next batch
		withdrawable++
	}

	if err := a.SubShares(shares); err != nil {
		return nil, err
	}
	a.AddPendingWithdrawal(released)
	a.WithdrawableEpoch = max(a.WithdrawableEpoch, withdrawable)
	p.touchAccount(user)

	l.TotalStaked.Sub(&l.TotalStaked, released)
	l.TotalShares.Sub(&l.TotalShares, shares)
	l.PendingUnstake.Add(&l.PendingUnstake, released)
	l.PendingWithdrawals.Add(&l.PendingWithdrawals, released)

	metricUnstakes().Add(1)
	logger.Info("unstake requested",
		"account", user,
		"shares", shares.Dec(),
		"amount", released.Dec(),
		"withdrawable", a.WithdrawableEpoch)
	return released, nil
}

// cooldown returns how many epochs an unstake of amt takes to become
// withdrawable: the unbonding period if unlocked validators can serve it at
// once, twice that otherwise.
func (p *Pool) cooldown(amt *uint256.Int) chain.Epoch {
	if p.validators.TotalStaked().IsZero() {
		return chain.NumEpochsToUnlock
	}
	if available := p.validators.Available(p.epoch()); available.Cmp(amt) >= 0 {
		return chain.NumEpochsToUnlock
	}
	return 2 * chain.NumEpochsToUnlock
}

// Withdraw pays amt of the matured pending withdrawal out to user.
func (p *Pool) Withdraw(user chain.AccountID, amt *uint256.Int) error {
	return p.exec(func() error {
		if err := requireU128(amt); err != nil {
			return err
		}
		return p.withdraw(user, func(*account.Account) *uint256.Int { return amt })
	})
}

// WithdrawAll pays the whole matured pending withdrawal out to user.
func (p *Pool) WithdrawAll(user chain.AccountID) (paid *uint256.Int, err error) {
	err = p.exec(func() error {
		return p.withdraw(user, func(a *account.Account) *uint256.Int {
			paid = new(uint256.Int).Set(&a.PendingWithdrawal)
			return paid
		})
	})
	return paid, err
}

func (p *Pool) withdraw(user chain.AccountID, amountOf func(*account.Account) *uint256.Int) error {
	l := p.ledger
	if l.Operations.WithdrawPaused {
		return reverts.New(reverts.Precondition, "withdrawal is paused")
	}
	a, err := p.getAccount(user)
	if err != nil {
		return err
	}
	amt := amountOf(a)
	if amt.IsZero() {
		return reverts.New(reverts.Precondition, "withdraw amount must be positive")
	}
	if current := p.epoch(); !a.CanWithdraw(current) {
		return reverts.Newf(reverts.Precondition, "withdrawable from epoch %d, now %d", a.WithdrawableEpoch, current)
	}
	if a.PendingWithdrawal.Lt(amt) {
		return reverts.Newf(reverts.Precondition, "withdraw %s exceeds pending %s", amt.Dec(), a.PendingWithdrawal.Dec())
	}
	if rest := new(uint256.Int).Sub(&a.PendingWithdrawal, amt); chain.IsDust(rest) {
		amt = new(uint256.Int).Set(&a.PendingWithdrawal)
	}
	if l.Spendable().Lt(amt) {
		return reverts.Newf(reverts.Precondition, "pool liquid balance %s cannot cover %s", l.Spendable().Dec(), amt.Dec())
	}

	op, err := p.transfer(KindPayout, user, amt)
	if err != nil {
		return err
	}
	if err := a.SubPendingWithdrawal(amt); err != nil {
		return err
	}
	l.Balance.Sub(&l.Balance, amt)
	l.PendingWithdrawals.Sub(&l.PendingWithdrawals, amt)
	p.touchAccount(user)

	logger.Info("withdraw", "account", user, "amount", amt.Dec(), "op", op)
	return nil
}

func (p *Pool) onPaidOut(op *PendingOp, _ remote.Outcome) bool {
	metricPaidOut().Add(1)
	return false
}

// restorePayout credits a failed payout back to the account and the pool.
func (p *Pool) restorePayout(op *PendingOp) {
	a := p.accounts[op.Account]
	if a == nil {
		a = &account.Account{WithdrawableEpoch: op.Epoch}
		p.accounts[op.Account] = a
	}
	a.AddPendingWithdrawal(&op.Amount)
	p.touchAccount(op.Account)
	p.ledger.Balance.Add(&p.ledger.Balance, &op.Amount)
	p.ledger.PendingWithdrawals.Add(&p.ledger.PendingWithdrawals, &op.Amount)
}
