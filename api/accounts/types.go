// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"github.com/vechain/liquidpool/api/utils"
	"github.com/vechain/liquidpool/pool"
)

// Account for marshal account
type Account struct {
	ID                string        `json:"id"`
	Shares            *utils.Amount `json:"shares"`
	StakedBalance     *utils.Amount `json:"stakedBalance"`
	PendingWithdrawal *utils.Amount `json:"pendingWithdrawal"`
	WithdrawableEpoch uint64        `json:"withdrawableEpoch"`
	CanWithdraw       bool          `json:"canWithdraw"`
}

func convertAccount(v *pool.AccountView) *Account {
	return &Account{
		ID:                v.ID.String(),
		Shares:            utils.NewAmount(&v.Shares),
		StakedBalance:     utils.NewAmount(v.StakedBalance),
		PendingWithdrawal: utils.NewAmount(&v.PendingWithdrawal),
		WithdrawableEpoch: v.WithdrawableEpoch,
		CanWithdraw:       v.Withdrawable,
	}
}

// DepositRequest credits Amount, already received by the pool, to Account.
type DepositRequest struct {
	Account string        `json:"account"`
	Amount  *utils.Amount `json:"amount"`
}

// AmountRequest is the body of the account operations. All requests the
// whole position instead of an amount.
type AmountRequest struct {
	Amount *utils.Amount `json:"amount"`
	All    bool          `json:"all"`
}

type DepositResult struct {
	Shares *utils.Amount `json:"shares"`
}

type UnstakeResult struct {
	Released *utils.Amount `json:"released"`
}

type WithdrawResult struct {
	Amount *utils.Amount `json:"amount"`
}
