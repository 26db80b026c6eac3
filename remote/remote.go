// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package remote defines the asynchronous calls the pool issues to validators
// and to the host chain, and the outcomes fed back to it.
package remote

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/liquidpool/chain"
)

// Method names a remote call.
type Method string

const (
	DepositAndStake  Method = "deposit_and_stake"
	Unstake          Method = "unstake"
	WithdrawAll      Method = "withdraw_all"
	GetStakedBalance Method = "get_account_staked_balance"
	GetAccount       Method = "get_account"
	Transfer         Method = "transfer"
)

// ReadOnly returns true if the method does not move funds.
func (m Method) ReadOnly() bool {
	return m == GetStakedBalance || m == GetAccount
}

// Call is one outbound remote call. Op ties its outcome to the operation that
// issued it.
type Call struct {
	Op     uint64
	Method Method
	Target chain.AccountID // validator, or receiver of a transfer
	Amount *uint256.Int
}

func (c Call) String() string {
	if c.Amount == nil {
		return fmt.Sprintf("#%d %s(%s)", c.Op, c.Method, c.Target)
	}
	return fmt.Sprintf("#%d %s(%s, %s)", c.Op, c.Method, c.Target, c.Amount.Dec())
}

// Account is the pool's account as seen by a validator.
type Account struct {
	Staked      uint256.Int
	Unstaked    uint256.Int
	CanWithdraw bool
}

// Outcome is the result of a call. Err is nil on success.
type Outcome struct {
	Err     error
	Balance *uint256.Int // set by GetStakedBalance
	Account *Account     // set by GetAccount
}

// OK returns true if the call succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Done builds the outcome of a call that returns nothing but an error.
func Done(err error) Outcome {
	return Outcome{Err: err}
}

// Client talks to validators on behalf of the pool.
type Client interface {
	DepositAndStake(ctx context.Context, validator chain.AccountID, amount *uint256.Int) error
	Unstake(ctx context.Context, validator chain.AccountID, amount *uint256.Int) error
	WithdrawAll(ctx context.Context, validator chain.AccountID) error
	GetStakedBalance(ctx context.Context, validator chain.AccountID) (*uint256.Int, error)
	GetAccount(ctx context.Context, validator chain.AccountID) (*Account, error)
}

// Bank moves the pool's liquid funds.
type Bank interface {
	Transfer(ctx context.Context, to chain.AccountID, amount *uint256.Int) error
}

// Execute performs call and reports its outcome.
func Execute(ctx context.Context, client Client, bank Bank, call Call) Outcome {
	switch call.Method {
	case DepositAndStake:
		return Done(client.DepositAndStake(ctx, call.Target, call.Amount))
	case Unstake:
		return Done(client.Unstake(ctx, call.Target, call.Amount))
	case WithdrawAll:
		return Done(client.WithdrawAll(ctx, call.Target))
	case GetStakedBalance:
		balance, err := client.GetStakedBalance(ctx, call.Target)
		return Outcome{Err: err, Balance: balance}
	case GetAccount:
		account, err := client.GetAccount(ctx, call.Target)
		return Outcome{Err: err, Account: account}
	case Transfer:
		return Done(bank.Transfer(ctx, call.Target, call.Amount))
	default:
		return Done(errors.Errorf("unknown method %q", call.Method))
	}
}
