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

	"github.com/vechain/liquidpool/chain"
	"github.com/vechain/liquidpool/pool/ledger"
	"github.com/vechain/liquidpool/pool/lock"
	"github.com/vechain/liquidpool/pool/reverts"
	"github.com/vechain/liquidpool/remote"
)

func TestDeposit(t *testing.T) {
	ts := newTest(t).AddValidators(v1)

	shares, err := ts.Pool.Deposit(alice, near(10))
	require.NoError(t, err)
	assert.Equal(t, near(10).Dec(), shares.Dec())

	ts.AssertShares(alice, near(10)).
		AssertLedger(func(l *ledger.Ledger) {
			assert.Equal(t, near(10).Dec(), l.TotalStaked.Dec())
			assert.Equal(t, near(10).Dec(), l.TotalShares.Dec())
			assert.Equal(t, near(10).Dec(), l.PendingStake.Dec())
			assert.Equal(t, near(10).Dec(), l.Balance.Dec())
		}).
		AssertConservation()
	assert.Equal(t, 1, ts.NumAccounts())
	assert.Equal(t, chain.OneNear.Dec(), ts.SharePrice().Dec())
}

func TestDeposit_Rejected(t *testing.T) {
	ts := newTest(t).AddValidators(v1)

	half := new(uint256.Int).Div(chain.OneNear, uint256.NewInt(2))
	_, err := ts.Pool.Deposit(alice, half)
	assertRevert(t, err, reverts.Precondition)

	huge := new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	_, err = ts.Pool.Deposit(alice, huge)
	assertRevert(t, err, reverts.Arithmetic)

	require.NoError(t, ts.UpdateOperations(owner, ledger.Operations{StakePaused: true}))
	_, err = ts.Pool.Deposit(alice, near(10))
	assertRevert(t, err, reverts.Precondition)

	assert.Equal(t, 0, ts.NumAccounts())
	ts.AssertLedger(func(l *ledger.Ledger) {
		assert.True(t, l.TotalStaked.IsZero())
		assert.True(t, l.Balance.IsZero())
	})
}

func TestBusyPool(t *testing.T) {
	ts := newTest(t).AddValidators(v1, v2)
	ts.Deposit(alice, 10).Advance(1).Stake()
	ts.Deposit(bob, 5).Advance(1)

	started, err := ts.SettleStake()
	require.NoError(t, err)
	require.True(t, started)

	_, err = ts.Pool.Deposit(carol, near(1))
	assertRevert(t, err, reverts.Busy)
	_, err = ts.Autocompound(v1)
	assertRevert(t, err, reverts.Busy)
	assertRevert(t, ts.SyncValidatorBalance(v2), reverts.Busy)

	// unstake requests only touch the pending batch
	released, err := ts.RequestUnstake(alice, near(2))
	require.NoError(t, err)
	assert.Equal(t, near(2).Dec(), released.Dec())

	ts.Run().AssertIdle().AssertConservation()
	ts.Deposit(carol, 1)
}

func TestComplete_UnknownOp(t *testing.T) {
	ts := newTest(t)
	err := ts.Complete(lock.OpID(42), remote.Done(nil))
	assertRevert(t, err, reverts.NotFound)
}

func TestRequestUnstake(t *testing.T) {
	ts := newTest(t).AddValidators(v1)
	ts.Deposit(alice, 10)

	t.Run("unknown account", func(t *testing.T) {
		_, err := ts.RequestUnstake(bob, near(1))
		assertRevert(t, err, reverts.NotFound)
	})
	t.Run("more than owned", func(t *testing.T) {
		_, err := ts.RequestUnstake(alice, near(11))
		assertRevert(t, err, reverts.Precondition)
	})
	t.Run("zero", func(t *testing.T) {
		_, err := ts.RequestUnstake(alice, new(uint256.Int))
		assertRevert(t, err, reverts.Precondition)
	})
	t.Run("paused", func(t *testing.T) {
		require.NoError(t, ts.UpdateOperations(owner, ledger.Operations{UnstakePaused: true}))
		_, err := ts.RequestUnstake(alice, near(1))
		assertRevert(t, err, reverts.Precondition)
		require.NoError(t, ts.UpdateOperations(owner, ledger.Operations{}))
	})

	t.Run("partial then all", func(t *testing.T) {
		released, err := ts.RequestUnstake(alice, near(4))
		require.NoError(t, err)
		assert.Equal(t, near(4).Dec(), released.Dec())

		// no validator holds stake yet, the base cooldown applies
		a := ts.Account(alice)
		assert.Equal(t, near(6).Dec(), a.Shares.Dec())
		assert.Equal(t, near(4).Dec(), a.PendingWithdrawal.Dec())
		assert.Equal(t, chain.Epoch(startEpoch+chain.NumEpochsToUnlock), a.WithdrawableEpoch)
		assert.False(t, a.Withdrawable)

		released, err = ts.RequestUnstakeAll(alice)
		require.NoError(t, err)
		assert.Equal(t, near(6).Dec(), released.Dec())
		ts.AssertShares(alice, new(uint256.Int)).
			AssertLedger(func(l *ledger.Ledger) {
				assert.True(t, l.TotalStaked.IsZero())
				assert.True(t, l.TotalShares.IsZero())
				assert.Equal(t, near(10).Dec(), l.PendingUnstake.Dec())
			}).
			AssertConservation()
	})
}

func TestWithdraw_Lifecycle(t *testing.T) {
	ts := newTest(t).AddValidators(v1)
	ts.Deposit(alice, 10).Advance(1).Stake()
	ts.Advance(1).Unstake(alice, 10)

	withdrawable := ts.Account(alice).WithdrawableEpoch
	assert.Equal(t, chain.Epoch(startEpoch+2+chain.NumEpochsToUnlock), withdrawable)

	started, err := ts.SettleUnstake()
	require.NoError(t, err)
	require.True(t, started)
	ts.Run()

	ts.clock.Set(withdrawable - 1)
	assertRevert(t, ts.Withdraw(alice, near(1)), reverts.Precondition)

	ts.clock.Set(withdrawable)
	// funds are still at the validator
	assertRevert(t, ts.Withdraw(alice, near(1)), reverts.Precondition)

	require.NoError(t, ts.SettleWithdraw(v1))
	ts.Run()
	assert.True(t, ts.Account(alice).Withdrawable)

	assertRevert(t, ts.Withdraw(alice, near(11)), reverts.Precondition)
	assertRevert(t, ts.Withdraw(bob, near(1)), reverts.NotFound)

	require.NoError(t, ts.Withdraw(alice, near(3)))
	ts.Run()
	assert.Equal(t, near(3).Dec(), ts.remote.Transferred(alice).Dec())

	paid, err := ts.WithdrawAll(alice)
	require.NoError(t, err)
	assert.Equal(t, near(7).Dec(), paid.Dec())
	ts.Run().AssertIdle().AssertConservation()

	assert.Equal(t, near(10).Dec(), ts.remote.Transferred(alice).Dec())
	assert.Equal(t, 0, ts.NumAccounts())
	ts.AssertLedger(func(l *ledger.Ledger) {
		assert.True(t, l.Balance.IsZero())
		assert.True(t, l.ToWithdraw.IsZero())
	})
}

func TestWithdraw_RollbackRecreatesAccount(t *testing.T) {
	ts := newTest(t).AddValidators(v1)
	ts.Deposit(alice, 10).Unstake(alice, 10)
	// nothing was staked: the netted batch stays liquid
	ts.Advance(chain.NumEpochsToUnlock)
	_, err := ts.LockEpoch()
	require.NoError(t, err)

	ts.Fail(remote.Transfer)
	paid, err := ts.WithdrawAll(alice)
	require.NoError(t, err)
	assert.Equal(t, near(10).Dec(), paid.Dec())
	assert.Equal(t, 0, ts.NumAccounts())

	ts.Run().AssertIdle().AssertConservation()
	a := ts.Account(alice)
	assert.Equal(t, near(10).Dec(), a.PendingWithdrawal.Dec())
	assert.True(t, a.Withdrawable)
	ts.AssertLedger(func(l *ledger.Ledger) {
		assert.Equal(t, near(10).Dec(), l.Balance.Dec())
	})

	_, err = ts.WithdrawAll(alice)
	require.NoError(t, err)
	ts.Run()
	assert.Equal(t, near(10).Dec(), ts.remote.Transferred(alice).Dec())
}

func TestRequestUnstake_SweepsDust(t *testing.T) {
	ts := newTest(t).AddValidators(v1)
	ts.Deposit(alice, 10).Deposit(bob, 10)

	// leaves less than the storage cost of an account
	dust := new(uint256.Int).Sub(chain.AccountStorageBalance, uint256.NewInt(1))
	released, err := ts.RequestUnstake(alice, new(uint256.Int).Sub(near(10), dust))
	require.NoError(t, err)
	assert.Equal(t, near(10).Dec(), released.Dec())
	ts.AssertShares(alice, new(uint256.Int))

	// a remainder above it is kept
	keep := new(uint256.Int).Add(chain.AccountStorageBalance, uint256.NewInt(1))
	released, err = ts.RequestUnstake(bob, new(uint256.Int).Sub(near(10), keep))
	require.NoError(t, err)
	assert.Equal(t, new(uint256.Int).Sub(near(10), keep).Dec(), released.Dec())
	ts.AssertShares(bob, keep)
	ts.AssertConservation()
}

func TestWithdraw_SweepsDust(t *testing.T) {
	ts := newTest(t).AddValidators(v1)
	ts.Deposit(alice, 10).Unstake(alice, 10)
	ts.Advance(chain.NumEpochsToUnlock)
	_, err := ts.LockEpoch()
	require.NoError(t, err)

	require.NoError(t, ts.Withdraw(alice, new(uint256.Int).Sub(near(10), uint256.NewInt(1))))
	ts.Run().AssertIdle()
	assert.Equal(t, near(10).Dec(), ts.remote.Transferred(alice).Dec())
	assert.Equal(t, 0, ts.NumAccounts())
	ts.AssertLedger(func(l *ledger.Ledger) {
		assert.True(t, l.PendingWithdrawals.IsZero())
	})
}
