// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package chain holds the host chain primitives shared by every pool package.
package chain

import (
	"regexp"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// Epoch is the network's accounting interval counter.
type Epoch = uint64

// NumEpochsToUnlock is the base unbonding period of a validator.
const NumEpochsToUnlock Epoch = 4

var (
	// OneNear is one whole base-asset unit expressed in its smallest denomination.
	OneNear = uint256.MustFromDecimal("1000000000000000000000000")
	// MinBalanceForStorage is the liquid balance kept aside for storage staking by default.
	MinBalanceForStorage = new(uint256.Int).Mul(uint256.NewInt(40), OneNear)
	// AccountStorageBalance is the storage cost of one account record. Remainders
	// of an account up to this value are dust.
	AccountStorageBalance = new(uint256.Int).Mul(uint256.NewInt(250), uint256.NewInt(1e19))
)

// IsDust returns true if x is positive and not worth keeping in an account.
func IsDust(x *uint256.Int) bool {
	return !x.IsZero() && x.Cmp(AccountStorageBalance) <= 0
}

// Near returns n whole base units.
func Near(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), OneNear)
}

var accountIDPattern = regexp.MustCompile(`^(([a-z\d]+[-_])*[a-z\d]+\.)*([a-z\d]+[-_])*[a-z\d]+$`)

// AccountID identifies users, validators and the pool's own roles.
type AccountID string

// ParseAccountID validates s against the account naming rules.
func ParseAccountID(s string) (AccountID, error) {
	if len(s) < 2 || len(s) > 64 {
		return "", errors.Errorf("account id %q: length must be within [2, 64]", s)
	}
	if !accountIDPattern.MatchString(s) {
		return "", errors.Errorf("account id %q: invalid characters", s)
	}
	return AccountID(s), nil
}

// MustParseAccountID is like ParseAccountID but panics on invalid input.
func MustParseAccountID(s string) AccountID {
	id, err := ParseAccountID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id AccountID) String() string {
	return string(id)
}

// IsZero returns true if the id is empty.
func (id AccountID) IsZero() bool {
	return id == ""
}
