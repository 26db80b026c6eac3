// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package amount

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

func genU128(t *rapid.T, label string, min uint64) *uint256.Int {
	hi := rapid.Uint64().Draw(t, label+"-hi")
	lo := rapid.Uint64Min(min).Draw(t, label+"-lo")
	x := new(uint256.Int).Lsh(u(hi), 64)
	return x.Or(x, u(lo))
}

func TestSharesFor(t *testing.T) {
	// bootstrap mints 1:1
	assert.Equal(t, u(10), SharesFor(u(10), u(0), u(0)))
	assert.Equal(t, u(10), SharesFor(u(10), u(50), u(0)))
	// zero guards come after the bootstrap check
	assert.Equal(t, u(0), SharesFor(u(0), u(30), u(30)))
	assert.Equal(t, u(0), SharesFor(u(10), u(0), u(30)))
	// price 2.0 halves the shares
	assert.Equal(t, u(5), SharesFor(u(10), u(60), u(30)))
	// truncation
	assert.Equal(t, u(3), SharesFor(u(10), u(30), u(10)))
}

func TestAmountFor(t *testing.T) {
	assert.Equal(t, u(7), AmountFor(u(7), u(0), u(0)))
	assert.Equal(t, u(0), AmountFor(u(0), u(30), u(30)))
	assert.Equal(t, u(0), AmountFor(u(7), u(0), u(30)))
	assert.Equal(t, u(20), AmountFor(u(10), u(60), u(30)))
	assert.Equal(t, u(3), AmountFor(u(10), u(10), u(30)))
}

func TestProportionalWideIntermediate(t *testing.T) {
	// (2^128-1)^2 is the largest product two ledger amounts can form.
	got := Proportional(MaxU128, MaxU128, MaxU128)
	assert.Equal(t, MaxU128, got)

	assert.Panics(t, func() { Proportional(u(1), u(1), u(0)) })
}

func TestSatSubMin(t *testing.T) {
	assert.Equal(t, u(0), SatSub(u(3), u(5)))
	assert.Equal(t, u(2), SatSub(u(5), u(3)))
	assert.Equal(t, u(3), Min(u(3), u(5)))
	assert.Equal(t, u(3), Min(u(5), u(3)))
}

func TestIsU128(t *testing.T) {
	assert.True(t, IsU128(MaxU128))
	assert.False(t, IsU128(new(uint256.Int).AddUint64(MaxU128, 1)))
}

func TestRoundTripNeverFavoursDepositor(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		staked := genU128(t, "staked", 1)
		shares := genU128(t, "shares", 1)
		a := genU128(t, "amount", 1)

		minted := SharesFor(a, staked, shares)
		back := AmountFor(minted, staked, shares)
		if back.Cmp(a) > 0 {
			t.Fatalf("round trip returned %s > %s", back.Dec(), a.Dec())
		}
	})
}

func TestRoundTripExactAtIntegerPrice(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		shares := rapid.Uint64Range(1, 1<<40).Draw(t, "shares")
		price := rapid.Uint64Range(1, 1<<20).Draw(t, "price")
		units := rapid.Uint64Range(1, 1<<20).Draw(t, "units")

		staked := new(uint256.Int).Mul(u(shares), u(price))
		a := new(uint256.Int).Mul(u(units), u(price))

		minted := SharesFor(a, staked, u(shares))
		assert.Equal(t, a, AmountFor(minted, staked, u(shares)))
	})
}
