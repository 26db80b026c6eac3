// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/liquidpool/pool/ledger"
	"github.com/vechain/liquidpool/pool/reverts"
	"github.com/vechain/liquidpool/remote"
)

func TestAutocompound_Skips(t *testing.T) {
	ts := newTest(t).AddValidators(v1, v2)

	// no stake yet
	started, err := ts.Autocompound(v1)
	require.NoError(t, err)
	assert.False(t, started)

	ts.Deposit(alice, 10).Advance(1).Stake()
	started, err = ts.Autocompound(v1)
	require.NoError(t, err)
	require.True(t, started)
	ts.Run()

	// already redeemed this epoch
	started, err = ts.Autocompound(v1)
	require.NoError(t, err)
	assert.False(t, started)

	ts.Advance(1)
	require.NoError(t, ts.PauseValidator(owner, v1))
	started, err = ts.Autocompound(v1)
	require.NoError(t, err)
	assert.False(t, started)

	_, err = ts.Autocompound(v3)
	assertRevert(t, err, reverts.NotFound)

	require.NoError(t, ts.UpdateOperations(owner, ledger.Operations{AutocompoundPaused: true}))
	_, err = ts.Autocompound(v1)
	assertRevert(t, err, reverts.Precondition)
	assert.Zero(t, ts.remote.Calls(remote.Transfer))
}

func TestAutocompound_FeeSkippedWithoutFunds(t *testing.T) {
	ts := newTest(t).AddValidators(v1)
	ts.Deposit(alice, 10).Advance(1).Stake()
	require.NoError(t, ts.remote.AddRewards(v1, near(10)))

	ts.Advance(1)
	started, err := ts.Autocompound(v1)
	require.NoError(t, err)
	require.True(t, started)
	ts.Run().AssertIdle().AssertConservation()

	assert.Zero(t, ts.remote.Calls(remote.Transfer))
	ts.AssertStaked(v1, 20).
		AssertLedger(func(l *ledger.Ledger) {
			assert.Equal(t, near(20).Dec(), l.TotalStaked.Dec())
			assert.Equal(t, near(10).Dec(), l.AccumulatedRewards.Dec())
		})
	assert.Equal(t, near(2).Dec(), ts.SharePrice().Dec())
}

func TestAutocompound_FeeTransferFailure(t *testing.T) {
	ts := newTest(t).AddValidators(v1)
	ts.Deposit(alice, 10).Advance(1).Stake()
	require.NoError(t, ts.Fund(owner, near(5)))
	require.NoError(t, ts.remote.AddRewards(v1, near(10)))

	ts.Advance(1).Fail(remote.Transfer)
	_, err := ts.Autocompound(v1)
	require.NoError(t, err)
	ts.Run().AssertIdle().AssertConservation()

	assert.True(t, ts.remote.Transferred(operator).IsZero())
	ts.AssertLedger(func(l *ledger.Ledger) {
		assert.Equal(t, near(5).Dec(), l.Balance.Dec())
	})
}

func TestAutocompound_FeeLeavesStakingFunds(t *testing.T) {
	ts := newTest(t).AddValidators(v1)
	ts.Deposit(alice, 10).Advance(1).Stake()
	require.NoError(t, ts.remote.AddRewards(v1, near(10)))

	// the only liquid funds belong to the next stake batch
	ts.Advance(1).Deposit(bob, 10)
	_, err := ts.Autocompound(v1)
	require.NoError(t, err)
	ts.Run()

	assert.Zero(t, ts.remote.Calls(remote.Transfer))
	ts.AssertLedger(func(l *ledger.Ledger) {
		assert.Equal(t, near(10).Dec(), l.Balance.Dec())
	})
}

func TestAutocompound_FeeLeavesMaturedWithdrawals(t *testing.T) {
	ts := newTest(t).AddValidators(v1)
	ts.Deposit(alice, 10).Deposit(bob, 10).Advance(1).Stake()
	ts.Advance(1).Unstake(alice, 10)
	started, err := ts.SettleUnstake()
	require.NoError(t, err)
	require.True(t, started)
	ts.Run()

	ts.clock.Set(ts.Account(alice).WithdrawableEpoch)
	require.NoError(t, ts.SettleWithdraw(v1))
	ts.Run().AssertIdle().AssertLedger(func(l *ledger.Ledger) {
		assert.Equal(t, near(10).Dec(), l.Balance.Dec())
		assert.Equal(t, near(10).Dec(), l.PendingWithdrawals.Dec())
		assert.Equal(t, near(10).Dec(), l.LiquidLiability().Dec())
	})

	require.NoError(t, ts.remote.AddRewards(v1, near(10)))
	started, err = ts.Autocompound(v1)
	require.NoError(t, err)
	require.True(t, started)
	ts.Run().AssertIdle().AssertConservation()
	assert.Zero(t, ts.remote.Calls(remote.Transfer))

	paid, err := ts.WithdrawAll(alice)
	require.NoError(t, err)
	assert.Equal(t, near(10).Dec(), paid.Dec())
	ts.Run().AssertIdle()
	assert.Equal(t, near(10).Dec(), ts.remote.Transferred(alice).Dec())
	assert.True(t, ts.remote.Transferred(operator).IsZero())
}

func TestSyncValidatorBalance(t *testing.T) {
	ts := newTest(t).AddValidators(v1)
	ts.Deposit(alice, 10).Advance(1).Stake()

	t.Run("total drift", func(t *testing.T) {
		require.NoError(t, ts.remote.AddRewards(v1, uint256.NewInt(150)))
		require.NoError(t, ts.SyncValidatorBalance(v1))
		ts.Run()
		// each part is close enough, the total is not
		assert.Equal(t, near(10).Dec(), ts.Validator(v1).Staked.Dec())
		require.NoError(t, ts.remote.Slash(v1, uint256.NewInt(150)))
	})

	t.Run("rounding drift", func(t *testing.T) {
		require.NoError(t, ts.remote.Slash(v1, uint256.NewInt(1)))
		require.NoError(t, ts.SyncValidatorBalance(v1))
		ts.Run().AssertIdle().AssertConservation()

		want := new(uint256.Int).Sub(near(10), uint256.NewInt(1))
		assert.Equal(t, want.Dec(), ts.Validator(v1).Staked.Dec())
		ts.AssertLedger(func(l *ledger.Ledger) {
			assert.Equal(t, want.Dec(), l.TotalStaked.Dec())
		})
	})

	t.Run("out of tolerance", func(t *testing.T) {
		before := ts.Validator(v1).Staked
		require.NoError(t, ts.remote.Slash(v1, near(1)))
		require.NoError(t, ts.SyncValidatorBalance(v1))
		ts.Run().AssertIdle()
		assert.Equal(t, before.Dec(), ts.Validator(v1).Staked.Dec())
	})

	t.Run("paused", func(t *testing.T) {
		require.NoError(t, ts.UpdateOperations(owner, ledger.Operations{SyncBalancePaused: true}))
		assertRevert(t, ts.SyncValidatorBalance(v1), reverts.Precondition)
	})
}
