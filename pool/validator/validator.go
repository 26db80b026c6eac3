// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validator

import (
	"github.com/holiman/uint256"

	"github.com/vechain/liquidpool/chain"
	"github.com/vechain/liquidpool/pool/lock"
)

// Info is the pool's record of one delegated validator.
type Info struct {
	ID                 chain.AccountID
	Staked             uint256.Int // principal plus compounded rewards delegated
	ToWithdraw         uint256.Int // unstaked, awaiting unlock and withdraw
	Lock               lock.State
	LastRewardEpoch    chain.Epoch
	UnstakeUnlockEpoch chain.Epoch // epoch from which the last unstake can be withdrawn
	Paused             bool
}

// New creates an empty validator record.
func New(id chain.AccountID) *Info {
	return &Info{ID: id}
}

// IsLocked returns true if a remote call on this validator is outstanding.
func (v *Info) IsLocked() bool {
	return !v.Lock.Idle()
}

// IsEmpty returns true if the validator holds nothing of the pool's.
func (v *Info) IsEmpty() bool {
	return v.Staked.IsZero() && v.ToWithdraw.IsZero()
}

// Unlocked returns true if the funds of the last unstake can be withdrawn at epoch.
func (v *Info) Unlocked(epoch chain.Epoch) bool {
	return epoch >= v.UnstakeUnlockEpoch
}

// Selectable returns true if the validator can take a new remote call.
func (v *Info) Selectable() bool {
	return !v.Paused && !v.IsLocked()
}

// Clone returns a deep copy.
func (v *Info) Clone() *Info {
	c := *v
	return &c
}
