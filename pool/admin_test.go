// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/liquidpool/amount"
	"github.com/vechain/liquidpool/chain"
	"github.com/vechain/liquidpool/pool/ledger"
	"github.com/vechain/liquidpool/pool/reverts"
)

func TestAdmin_OwnerOnly(t *testing.T) {
	ts := newTest(t).AddValidators(v1)

	assertRevert(t, ts.AddValidator(alice, v2), reverts.Unauthorized)
	assertRevert(t, ts.RemoveValidator(operator, v1), reverts.Unauthorized)
	assertRevert(t, ts.PauseValidator(alice, v1), reverts.Unauthorized)
	assertRevert(t, ts.ResumeValidator(alice, v1), reverts.Unauthorized)
	assertRevert(t, ts.UpdateOperations(alice, ledger.Operations{StakePaused: true}), reverts.Unauthorized)
	assertRevert(t, ts.ProposeRewardFee(operator, amount.NewFraction(1, 20)), reverts.Unauthorized)
	assertRevert(t, ts.CommitRewardFee(alice), reverts.Unauthorized)
	assertRevert(t, ts.SetOperator(alice, alice), reverts.Unauthorized)
	assertRevert(t, ts.SetMinDeposit(alice, near(2)), reverts.Unauthorized)

	assertRevert(t, ts.AddReserve(alice, near(1)), reverts.Unauthorized)
	assertRevert(t, ts.Fund(operator, near(1)), reverts.Unauthorized)
	assertRevert(t, ts.ResolveOp(alice, 1, false), reverts.Unauthorized)
	require.NoError(t, ts.AddReserve(owner, near(1)))
	require.NoError(t, ts.Fund(owner, near(1)))
	ts.AssertLedger(func(l *ledger.Ledger) {
		assert.Equal(t, near(1).Dec(), l.Reserve.Dec())
		assert.Equal(t, near(2).Dec(), l.Balance.Dec())
		assert.Equal(t, near(1).Dec(), l.Spendable().Dec())
	})
}

func TestAdmin_Validators(t *testing.T) {
	ts := newTest(t).AddValidators(v1)

	assertRevert(t, ts.AddValidator(owner, v1), reverts.Precondition)
	assertRevert(t, ts.RemoveValidator(owner, v2), reverts.NotFound)

	require.NoError(t, ts.PauseValidator(owner, v1))
	assertRevert(t, ts.PauseValidator(owner, v1), reverts.Precondition)
	assert.True(t, ts.Validator(v1).Paused)

	// a paused validator is never selected
	ts.Deposit(alice, 10).Advance(1)
	started, err := ts.SettleStake()
	require.NoError(t, err)
	assert.False(t, started)

	require.NoError(t, ts.ResumeValidator(owner, v1))
	ts.Stake()
	assertRevert(t, ts.RemoveValidator(owner, v1), reverts.Precondition)

	ts.AddValidators(v2)
	require.NoError(t, ts.RemoveValidator(owner, v2))
	assert.Nil(t, ts.Validator(v2))
	assert.Len(t, ts.Validators(), 1)
}

func TestAdmin_RewardFee(t *testing.T) {
	ts := newTest(t)

	assertRevert(t, ts.CommitRewardFee(owner), reverts.Precondition)
	assertRevert(t, ts.ProposeRewardFee(owner, amount.NewFraction(1, 5)), reverts.Precondition)
	assertRevert(t, ts.ProposeRewardFee(owner, amount.NewFraction(1, 0)), reverts.Precondition)

	require.NoError(t, ts.ProposeRewardFee(owner, amount.NewFraction(3, 20)))
	ts.AssertLedger(func(l *ledger.Ledger) {
		require.NotNil(t, l.ProposedFee)
		assert.Equal(t, amount.NewFraction(3, 20), *l.ProposedFee)
		assert.Equal(t, chain.Epoch(startEpoch), l.FeeProposedEpoch)
	})

	ts.Advance(3)
	assertRevert(t, ts.CommitRewardFee(owner), reverts.Precondition)

	ts.Advance(1)
	require.NoError(t, ts.CommitRewardFee(owner))
	ts.AssertLedger(func(l *ledger.Ledger) {
		assert.Nil(t, l.ProposedFee)
		assert.Equal(t, amount.NewFraction(3, 20), l.RewardFee)
	})
}

func TestAdmin_Settings(t *testing.T) {
	ts := newTest(t)

	assertRevert(t, ts.SetMinDeposit(owner, near(101)), reverts.Precondition)
	assertRevert(t, ts.SetMinDeposit(owner, near(0)), reverts.Precondition)
	require.NoError(t, ts.SetMinDeposit(owner, near(5)))
	_, err := ts.Pool.Deposit(alice, near(4))
	assertRevert(t, err, reverts.Precondition)

	assertRevert(t, ts.SetOperator(owner, ""), reverts.Precondition)
	require.NoError(t, ts.SetOperator(owner, carol))

	assertRevert(t, ts.Fund(owner, near(0)), reverts.Precondition)

	ts.AssertLedger(func(l *ledger.Ledger) {
		assert.Equal(t, near(5).Dec(), l.MinDeposit.Dec())
		assert.Equal(t, carol, l.Operator)
	})
}

func TestGenesis_Validate(t *testing.T) {
	g := testGenesis()
	require.NoError(t, g.Validate())

	g.RewardFee = amount.NewFraction(1, 4)
	assert.Error(t, g.Validate())

	g = testGenesis()
	g.Operator = ""
	assert.Error(t, g.Validate())
}
