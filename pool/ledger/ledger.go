// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger holds the pool-wide aggregate record.
package ledger

import (
	"github.com/holiman/uint256"

	"github.com/vechain/liquidpool/amount"
	"github.com/vechain/liquidpool/chain"
	"github.com/vechain/liquidpool/pool/lock"
)

// MaxRewardFee is the exclusive upper bound of the operator's reward fee.
var MaxRewardFee = amount.Fraction{Numerator: 1, Denominator: 5}

// Operations are the pause switches of the pool's entry points.
type Operations struct {
	StakePaused         bool
	UnstakePaused       bool
	WithdrawPaused      bool
	EpochStakePaused    bool
	EpochUnstakePaused  bool
	EpochWithdrawPaused bool
	AutocompoundPaused  bool
	SyncBalancePaused   bool
}

// Ledger is the pool's aggregate state.
type Ledger struct {
	TotalStaked        uint256.Int // principal plus rewards backing all shares
	TotalShares        uint256.Int
	AccumulatedRewards uint256.Int

	PendingStake   uint256.Int // requested in the open epoch
	PendingUnstake uint256.Int
	LockedStake    uint256.Int // locked at LastReconciliationEpoch, awaiting settlement
	LockedUnstake  uint256.Int
	ToWithdraw     uint256.Int // sum of validators' ToWithdraw

	Balance uint256.Int // liquid base asset held by the pool
	Reserve uint256.Int // liquid balance never paid out

	LastReconciliationEpoch chain.Epoch
	Busy                    lock.State

	Owner    chain.AccountID
	Operator chain.AccountID

	RewardFee        amount.Fraction
	ProposedFee      *amount.Fraction `rlp:"nil"`
	FeeProposedEpoch chain.Epoch

	MinDeposit uint256.Int
	Operations Operations
	NextOpID   lock.OpID

	PendingWithdrawals uint256.Int `rlp:"optional"` // sum of the accounts' pending withdrawals
}

// New creates the ledger of a fresh pool.
func New(owner, operator chain.AccountID, fee amount.Fraction, reserve *uint256.Int) *Ledger {
	l := &Ledger{
		Owner:     owner,
		Operator:  operator,
		RewardFee: fee,
	}
	l.Reserve.Set(reserve)
	l.Balance.Set(reserve)
	l.MinDeposit.Set(chain.OneNear)
	return l
}

// IsBusy returns true while a pool-wide remote call is outstanding.
func (l *Ledger) IsBusy() bool {
	return !l.Busy.Idle()
}

// NewOpID allocates the next operation id.
func (l *Ledger) NewOpID() lock.OpID {
	l.NextOpID++
	return l.NextOpID
}

// Spendable returns the balance above the reserve.
func (l *Ledger) Spendable() *uint256.Int {
	return amount.SatSub(&l.Balance, &l.Reserve)
}

// LiquidLiability returns the part of the pending withdrawals already back
// in the liquid balance: what the accounts are owed minus what is still
// queued for unstaking or held by validators.
func (l *Ledger) LiquidLiability() *uint256.Int {
	away := new(uint256.Int).Add(&l.PendingUnstake, &l.LockedUnstake)
	away.Add(away, &l.ToWithdraw)
	return amount.SatSub(&l.PendingWithdrawals, away)
}

// SharePrice returns the value of one whole share.
func (l *Ledger) SharePrice() *uint256.Int {
	return amount.AmountFor(chain.OneNear, &l.TotalStaked, &l.TotalShares)
}

// SharesFor converts a base amount into shares at the current price.
func (l *Ledger) SharesFor(x *uint256.Int) *uint256.Int {
	return amount.SharesFor(x, &l.TotalStaked, &l.TotalShares)
}

// AmountFor converts shares into a base amount at the current price.
func (l *Ledger) AmountFor(shares *uint256.Int) *uint256.Int {
	return amount.AmountFor(shares, &l.TotalStaked, &l.TotalShares)
}

// Clone returns a deep copy.
func (l *Ledger) Clone() *Ledger {
	c := *l
	if l.ProposedFee != nil {
		fee := *l.ProposedFee
		c.ProposedFee = &fee
	}
	return &c
}
