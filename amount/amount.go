// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package amount implements the share/amount conversions of the pool.
//
// All amounts are bounded to 128 bits and every product is taken on a
// 512-bit intermediate, so conversions never overflow and always truncate
// towards zero. Rounding down on both mint and burn keeps every round trip
// lossy by at most one unit in the pool's favour.
package amount

import (
	"github.com/holiman/uint256"
)

// MaxU128 is the largest amount the ledgers accept.
var MaxU128 = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))

// IsU128 reports whether x fits the ledger amount width.
func IsU128(x *uint256.Int) bool {
	return x.Cmp(MaxU128) <= 0
}

// Zero returns a fresh zero amount.
func Zero() *uint256.Int {
	return new(uint256.Int)
}

// Proportional returns floor(x * num / den).
// den must not be zero.
func Proportional(x, num, den *uint256.Int) *uint256.Int {
	if den.IsZero() {
		panic("amount: proportional with zero denominator")
	}
	z, _ := new(uint256.Int).MulDivOverflow(x, num, den)
	return z
}

// SharesFor returns the number of shares minted for amount at the price
// totalStaked/totalShares. An empty pool mints 1:1.
func SharesFor(amount, totalStaked, totalShares *uint256.Int) *uint256.Int {
	if totalShares.IsZero() {
		return new(uint256.Int).Set(amount)
	}
	if amount.IsZero() || totalStaked.IsZero() {
		return new(uint256.Int)
	}
	return Proportional(amount, totalShares, totalStaked)
}

// AmountFor returns the amount redeemable for shares at the price
// totalStaked/totalShares. With no shares outstanding the price is 1:1.
func AmountFor(shares, totalStaked, totalShares *uint256.Int) *uint256.Int {
	if totalShares.IsZero() {
		return new(uint256.Int).Set(shares)
	}
	if shares.IsZero() || totalStaked.IsZero() {
		return new(uint256.Int)
	}
	return Proportional(shares, totalStaked, totalShares)
}

// SatSub returns x - y, or zero when y > x.
func SatSub(x, y *uint256.Int) *uint256.Int {
	if y.Cmp(x) >= 0 {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(x, y)
}

// Min returns a copy of the smaller of x and y.
func Min(x, y *uint256.Int) *uint256.Int {
	if x.Cmp(y) <= 0 {
		return new(uint256.Int).Set(x)
	}
	return new(uint256.Int).Set(y)
}
