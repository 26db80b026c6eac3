// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validator

import (
	"github.com/holiman/uint256"

	"github.com/vechain/liquidpool/chain"
)

// V1 is the first persisted layout of a validator record. Its lock was a bare
// flag and it stored the epoch an unstake started rather than when it unlocks.
type V1 struct {
	ID                chain.AccountID
	Staked            uint256.Int
	ToWithdraw        uint256.Int
	Locked            bool
	LastRewardEpoch   chain.Epoch
	UnstakeStartEpoch chain.Epoch
}

// UpgradeV1 converts a V1 record. A V1 lock names no operation, so it cannot
// be carried over; wasLocked reports that it was dropped.
func UpgradeV1(old *V1) (v *Info, wasLocked bool) {
	v = &Info{
		ID:                 old.ID,
		Staked:             old.Staked,
		ToWithdraw:         old.ToWithdraw,
		LastRewardEpoch:    old.LastRewardEpoch,
		UnstakeUnlockEpoch: old.UnstakeStartEpoch + chain.NumEpochsToUnlock,
	}
	if old.UnstakeStartEpoch == 0 && old.ToWithdraw.IsZero() {
		// never unstaked
		v.UnstakeUnlockEpoch = 0
	}
	return v, old.Locked
}
