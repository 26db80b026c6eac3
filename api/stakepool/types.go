// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakepool

import (
	"github.com/vechain/liquidpool/amount"
	"github.com/vechain/liquidpool/api/utils"
	"github.com/vechain/liquidpool/chain"
	"github.com/vechain/liquidpool/pool"
	"github.com/vechain/liquidpool/pool/ledger"
)

type Operations struct {
	StakePaused         bool `json:"stakePaused"`
	UnstakePaused       bool `json:"unstakePaused"`
	WithdrawPaused      bool `json:"withdrawPaused"`
	EpochStakePaused    bool `json:"epochStakePaused"`
	EpochUnstakePaused  bool `json:"epochUnstakePaused"`
	EpochWithdrawPaused bool `json:"epochWithdrawPaused"`
	AutocompoundPaused  bool `json:"autocompoundPaused"`
	SyncBalancePaused   bool `json:"syncBalancePaused"`
}

func convertOperations(o ledger.Operations) Operations {
	return Operations(o)
}

func (o Operations) toLedger() ledger.Operations {
	return ledger.Operations(o)
}

// Pool is the ledger snapshot served at the pool root.
type Pool struct {
	Epoch                   uint64           `json:"epoch"`
	SharePrice              *utils.Amount    `json:"sharePrice"`
	TotalStaked             *utils.Amount    `json:"totalStaked"`
	TotalShares             *utils.Amount    `json:"totalShares"`
	AccumulatedRewards      *utils.Amount    `json:"accumulatedRewards"`
	PendingStake            *utils.Amount    `json:"pendingStake"`
	PendingUnstake          *utils.Amount    `json:"pendingUnstake"`
	LockedStake             *utils.Amount    `json:"lockedStake"`
	LockedUnstake           *utils.Amount    `json:"lockedUnstake"`
	ToWithdraw              *utils.Amount    `json:"toWithdraw"`
	Balance                 *utils.Amount    `json:"balance"`
	Reserve                 *utils.Amount    `json:"reserve"`
	LastReconciliationEpoch uint64           `json:"lastReconciliationEpoch"`
	Busy                    string           `json:"busy"`
	Owner                   string           `json:"owner"`
	Operator                string           `json:"operator"`
	RewardFee               amount.Fraction  `json:"rewardFee"`
	ProposedFee             *amount.Fraction `json:"proposedFee"`
	FeeProposedEpoch        uint64           `json:"feeProposedEpoch"`
	MinDeposit              *utils.Amount    `json:"minDeposit"`
	Operations              Operations       `json:"operations"`
	Accounts                int              `json:"accounts"`
}

func convertPool(l *ledger.Ledger, current chain.Epoch, accounts int) *Pool {
	return &Pool{
		Epoch:                   current,
		SharePrice:              utils.NewAmount(l.SharePrice()),
		TotalStaked:             utils.NewAmount(&l.TotalStaked),
		TotalShares:             utils.NewAmount(&l.TotalShares),
		AccumulatedRewards:      utils.NewAmount(&l.AccumulatedRewards),
		PendingStake:            utils.NewAmount(&l.PendingStake),
		PendingUnstake:          utils.NewAmount(&l.PendingUnstake),
		LockedStake:             utils.NewAmount(&l.LockedStake),
		LockedUnstake:           utils.NewAmount(&l.LockedUnstake),
		ToWithdraw:              utils.NewAmount(&l.ToWithdraw),
		Balance:                 utils.NewAmount(&l.Balance),
		Reserve:                 utils.NewAmount(&l.Reserve),
		LastReconciliationEpoch: l.LastReconciliationEpoch,
		Busy:                    l.Busy.String(),
		Owner:                   l.Owner.String(),
		Operator:                l.Operator.String(),
		RewardFee:               l.RewardFee,
		ProposedFee:             l.ProposedFee,
		FeeProposedEpoch:        l.FeeProposedEpoch,
		MinDeposit:              utils.NewAmount(&l.MinDeposit),
		Operations:              convertOperations(l.Operations),
		Accounts:                accounts,
	}
}

type SharePrice struct {
	Epoch      uint64        `json:"epoch"`
	SharePrice *utils.Amount `json:"sharePrice"`
}

type PendingOp struct {
	ID        uint64        `json:"id"`
	Kind      string        `json:"kind"`
	Validator string        `json:"validator,omitempty"`
	Account   string        `json:"account,omitempty"`
	Amount    *utils.Amount `json:"amount"`
	Epoch     uint64        `json:"epoch"`
	// Unresolved marks a fund movement interrupted by a restart.
	Unresolved bool `json:"unresolved,omitempty"`
}

func convertOp(op *pool.PendingOp) *PendingOp {
	return &PendingOp{
		ID:         uint64(op.ID),
		Kind:       op.Kind.String(),
		Validator:  op.Validator.String(),
		Account:    op.Account.String(),
		Amount:     utils.NewAmount(&op.Amount),
		Epoch:      op.Epoch,
		Unresolved: op.Unresolved,
	}
}

type SetOperator struct {
	Operator string `json:"operator"`
}

type AmountBody struct {
	Amount *utils.Amount `json:"amount"`
}

type ResolveOp struct {
	Succeeded bool `json:"succeeded"`
}
