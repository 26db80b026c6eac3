// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package account

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/liquidpool/chain"
)

// Account is a user's position in the pool.
type Account struct {
	Shares            uint256.Int // pool shares owned
	PendingWithdrawal uint256.Int // unstaked base asset not yet paid out
	WithdrawableEpoch chain.Epoch // earliest epoch PendingWithdrawal may be paid out
}

// IsEmpty returns true if the account holds nothing and can be deleted.
func (a *Account) IsEmpty() bool {
	return a.Shares.IsZero() && a.PendingWithdrawal.IsZero()
}

// CanWithdraw returns true if the pending withdrawal matured at epoch.
func (a *Account) CanWithdraw(epoch chain.Epoch) bool {
	return epoch >= a.WithdrawableEpoch
}

func (a *Account) AddShares(n *uint256.Int) {
	a.Shares.Add(&a.Shares, n)
}

func (a *Account) SubShares(n *uint256.Int) error {
	if a.Shares.Lt(n) {
		return errors.Errorf("not enough shares: have %s, want %s", a.Shares.Dec(), n.Dec())
	}
	a.Shares.Sub(&a.Shares, n)
	return nil
}

func (a *Account) AddPendingWithdrawal(n *uint256.Int) {
	a.PendingWithdrawal.Add(&a.PendingWithdrawal, n)
}

func (a *Account) SubPendingWithdrawal(n *uint256.Int) error {
	if a.PendingWithdrawal.Lt(n) {
		return errors.Errorf("not enough pending withdrawal: have %s, want %s", a.PendingWithdrawal.Dec(), n.Dec())
	}
	a.PendingWithdrawal.Sub(&a.PendingWithdrawal, n)
	return nil
}

// Clone returns a deep copy.
func (a *Account) Clone() *Account {
	c := *a
	return &c
}
