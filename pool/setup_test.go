// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/liquidpool/amount"
	"github.com/vechain/liquidpool/chain"
	"github.com/vechain/liquidpool/epoch"
	"github.com/vechain/liquidpool/kv"
	"github.com/vechain/liquidpool/lvldb"
	"github.com/vechain/liquidpool/pool/ledger"
	"github.com/vechain/liquidpool/pool/lock"
	"github.com/vechain/liquidpool/pool/reverts"
	"github.com/vechain/liquidpool/remote"
	"github.com/vechain/liquidpool/remote/mockpool"
)

const (
	owner    = chain.AccountID("owner")
	operator = chain.AccountID("operator")
	alice    = chain.AccountID("alice")
	bob      = chain.AccountID("bob")
	carol    = chain.AccountID("carol")
	v1       = chain.AccountID("v1")
	v2       = chain.AccountID("v2")
	v3       = chain.AccountID("v3")
)

const startEpoch = 10

func near(n uint64) *uint256.Int {
	return chain.Near(n)
}

// recorder is a dispatcher queueing calls until the test runs them.
type recorder struct {
	calls []remote.Call
}

func (r *recorder) Dispatch(call remote.Call) {
	r.calls = append(r.calls, call)
}

type PoolTest struct {
	*Pool
	t      *testing.T
	db     kv.Store
	clock  *epoch.Manual
	queue  *recorder
	remote *mockpool.MockPool
}

func testGenesis() *Genesis {
	return &Genesis{
		Owner:     owner,
		Operator:  operator,
		RewardFee: amount.NewFraction(1, 10),
		Reserve:   new(uint256.Int),
	}
}

func newTest(t *testing.T) *PoolTest {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := epoch.NewManual(startEpoch)
	queue := &recorder{}
	p, err := New(db, clock, queue, DefaultConfig(), testGenesis())
	require.NoError(t, err)

	return &PoolTest{
		Pool:   p,
		t:      t,
		db:     db,
		clock:  clock,
		queue:  queue,
		remote: mockpool.New().WithClock(clock),
	}
}

// Reopen loads the pool again from its store, as after a restart.
func (ts *PoolTest) Reopen() *PoolTest {
	ts.queue = &recorder{}
	p, err := New(ts.db, ts.clock, ts.queue, DefaultConfig(), nil)
	require.NoError(ts.t, err)
	ts.Pool = p
	return ts
}

func (ts *PoolTest) AddValidators(ids ...chain.AccountID) *PoolTest {
	for _, id := range ids {
		require.NoError(ts.t, ts.AddValidator(owner, id))
		ts.remote.AddValidator(id)
	}
	return ts
}

func (ts *PoolTest) Deposit(user chain.AccountID, n uint64) *PoolTest {
	_, err := ts.Pool.Deposit(user, near(n))
	require.NoError(ts.t, err, "deposit %d by %s", n, user)
	return ts
}

func (ts *PoolTest) Unstake(user chain.AccountID, n uint64) *PoolTest {
	_, err := ts.RequestUnstake(user, near(n))
	require.NoError(ts.t, err, "unstake %d by %s", n, user)
	return ts
}

func (ts *PoolTest) Advance(n chain.Epoch) *PoolTest {
	ts.clock.Advance(n)
	return ts
}

// Stake settles the epoch stake and runs the resulting calls.
func (ts *PoolTest) Stake() *PoolTest {
	started, err := ts.SettleStake()
	require.NoError(ts.t, err)
	require.True(ts.t, started, "no stake started")
	return ts.Run()
}

// Fail makes the next call of method fail.
func (ts *PoolTest) Fail(method remote.Method) *PoolTest {
	ts.remote.FailNext(method, 1)
	return ts
}

// Step executes the oldest queued call and completes it. It returns false
// if nothing was queued.
func (ts *PoolTest) Step() bool {
	if len(ts.queue.calls) == 0 {
		return false
	}
	call := ts.queue.calls[0]
	ts.queue.calls = ts.queue.calls[1:]
	out := remote.Execute(context.Background(), ts.remote, ts.remote, call)
	require.NoError(ts.t, ts.Complete(lock.OpID(call.Op), out), "complete %s", call)
	return true
}

// Run executes queued calls, including those they cause, until none is left.
func (ts *PoolTest) Run() *PoolTest {
	for ts.Step() {
	}
	return ts
}

func (ts *PoolTest) AssertLedger(check func(l *ledger.Ledger)) *PoolTest {
	check(ts.Ledger())
	return ts
}

func (ts *PoolTest) AssertStaked(id chain.AccountID, n uint64) *PoolTest {
	v := ts.Validator(id)
	require.NotNil(ts.t, v)
	assert.Equal(ts.t, near(n).Dec(), v.Staked.Dec(), "staked of %s", id)
	return ts
}

func (ts *PoolTest) AssertShares(user chain.AccountID, shares *uint256.Int) *PoolTest {
	assert.Equal(ts.t, shares.Dec(), ts.Account(user).Shares.Dec(), "shares of %s", user)
	return ts
}

func (ts *PoolTest) AssertIdle() *PoolTest {
	l := ts.Ledger()
	assert.True(ts.t, l.Busy.Idle(), "pool is %s", &l.Busy)
	for _, v := range ts.Validators() {
		assert.False(ts.t, v.IsLocked(), "validator %s is %s", v.ID, &v.Lock)
	}
	assert.Empty(ts.t, ts.PendingOps())
	return ts
}

// AssertConservation checks that shares add up and that the validators plus
// the open batches account for the total staked.
func (ts *PoolTest) AssertConservation() *PoolTest {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	shares := new(uint256.Int)
	for _, a := range ts.accounts {
		shares.Add(shares, &a.Shares)
	}
	l := ts.ledger
	assert.Equal(ts.t, l.TotalShares.Dec(), shares.Dec(), "sum of shares")

	if len(ts.ops) > 0 {
		return ts
	}
	backing := ts.validators.TotalStaked()
	backing.Add(backing, &l.PendingStake)
	backing.Add(backing, &l.LockedStake)
	owed := new(uint256.Int).Add(&l.PendingUnstake, &l.LockedUnstake)
	assert.Equal(ts.t, l.TotalStaked.Dec(), new(uint256.Int).Sub(backing, owed).Dec(), "staked backing")
	assert.Equal(ts.t, l.ToWithdraw.Dec(), ts.validators.TotalToWithdraw().Dec(), "to withdraw")
	return ts
}

func assertRevert(t *testing.T, err error, kind reverts.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, reverts.IsKind(err, kind), "want %v revert, got %v", kind, err)
}
