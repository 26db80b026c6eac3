// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validators

import (
	"github.com/vechain/liquidpool/api/utils"
	"github.com/vechain/liquidpool/chain"
	"github.com/vechain/liquidpool/pool/validator"
)

type Validator struct {
	ID                 string        `json:"id"`
	Staked             *utils.Amount `json:"staked"`
	ToWithdraw         *utils.Amount `json:"toWithdraw"`
	Lock               string        `json:"lock"`
	LastRewardEpoch    uint64        `json:"lastRewardEpoch"`
	UnstakeUnlockEpoch uint64        `json:"unstakeUnlockEpoch"`
	Unlocked           bool          `json:"unlocked"`
	Paused             bool          `json:"paused"`
}

func convertValidator(v *validator.Info, current chain.Epoch) *Validator {
	return &Validator{
		ID:                 v.ID.String(),
		Staked:             utils.NewAmount(&v.Staked),
		ToWithdraw:         utils.NewAmount(&v.ToWithdraw),
		Lock:               v.Lock.String(),
		LastRewardEpoch:    v.LastRewardEpoch,
		UnstakeUnlockEpoch: v.UnstakeUnlockEpoch,
		Unlocked:           v.Unlocked(current),
		Paused:             v.Paused,
	}
}

type AddValidator struct {
	ID string `json:"id"`
}
