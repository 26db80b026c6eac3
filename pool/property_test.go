// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"pgregory.net/rapid"

	"github.com/vechain/liquidpool/amount"
	"github.com/vechain/liquidpool/chain"
	"github.com/vechain/liquidpool/pool/lock"
	"github.com/vechain/liquidpool/pool/reverts"
	"github.com/vechain/liquidpool/remote"
)

// checkInvariants verifies the accounting identities that hold between
// operations, whatever their outcome.
func checkInvariants(rt *rapid.T, ts *PoolTest) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	l := ts.ledger

	shares := new(uint256.Int)
	for id, a := range ts.accounts {
		if a.IsEmpty() {
			rt.Fatalf("empty account %s kept", id)
		}
		shares.Add(shares, &a.Shares)
	}
	if !shares.Eq(&l.TotalShares) {
		rt.Fatalf("sum of shares %s, total %s", shares.Dec(), l.TotalShares.Dec())
	}
	if owed := sumPendingWithdrawals(ts.accounts); !owed.Eq(&l.PendingWithdrawals) {
		rt.Fatalf("sum of pending withdrawals %s, counted %s", owed.Dec(), l.PendingWithdrawals.Dec())
	}
	for name, x := range map[string]*uint256.Int{
		"balance":     &l.Balance,
		"totalStaked": &l.TotalStaked,
		"toWithdraw":  &l.ToWithdraw,
	} {
		if !amount.IsU128(x) {
			rt.Fatalf("%s wrapped: %s", name, x.Dec())
		}
	}
	if len(ts.ops) > 0 {
		return
	}
	if !l.Busy.Idle() {
		rt.Fatalf("pool %s without pending operations", &l.Busy)
	}
	backing := ts.validators.TotalStaked()
	backing.Add(backing, &l.PendingStake)
	backing.Add(backing, &l.LockedStake)
	owed := new(uint256.Int).Add(&l.PendingUnstake, &l.LockedUnstake)
	if want := new(uint256.Int).Sub(backing, owed); !want.Eq(&l.TotalStaked) {
		rt.Fatalf("total staked %s, backed %s", l.TotalStaked.Dec(), want.Dec())
	}
	if want := ts.validators.TotalToWithdraw(); !want.Eq(&l.ToWithdraw) {
		rt.Fatalf("to withdraw %s, validators %s", l.ToWithdraw.Dec(), want.Dec())
	}
}

func ignoreRevert(rt *rapid.T, err error) {
	if err != nil && !reverts.IsRevertErr(err) {
		rt.Fatalf("unexpected error: %v", err)
	}
}

func TestPool_Properties(t *testing.T) {
	users := []chain.AccountID{alice, bob, carol}
	validators := []chain.AccountID{v1, v2, v3}

	rapid.Check(t, func(rt *rapid.T) {
		ts := newTest(t).AddValidators(validators...)

		actions := map[string]func(*rapid.T){
			"deposit": func(rt *rapid.T) {
				user := rapid.SampledFrom(users).Draw(rt, "user")
				n := rapid.Uint64Range(1, 50).Draw(rt, "near")
				_, err := ts.Pool.Deposit(user, near(n))
				ignoreRevert(rt, err)
			},
			"unstake": func(rt *rapid.T) {
				user := rapid.SampledFrom(users).Draw(rt, "user")
				milli := rapid.Uint64Range(1, 20000).Draw(rt, "milli")
				amt := new(uint256.Int).Mul(uint256.NewInt(milli), chainMilliNear)
				_, err := ts.RequestUnstake(user, amt)
				ignoreRevert(rt, err)
			},
			"unstakeAll": func(rt *rapid.T) {
				_, err := ts.RequestUnstakeAll(rapid.SampledFrom(users).Draw(rt, "user"))
				ignoreRevert(rt, err)
			},
			"withdrawAll": func(rt *rapid.T) {
				_, err := ts.WithdrawAll(rapid.SampledFrom(users).Draw(rt, "user"))
				ignoreRevert(rt, err)
			},
			"advance": func(rt *rapid.T) {
				ts.clock.Advance(rapid.Uint64Range(1, 3).Draw(rt, "epochs"))
			},
			"settleStake": func(rt *rapid.T) {
				_, err := ts.SettleStake()
				ignoreRevert(rt, err)
			},
			"settleUnstake": func(rt *rapid.T) {
				_, err := ts.SettleUnstake()
				ignoreRevert(rt, err)
			},
			"settleWithdraw": func(rt *rapid.T) {
				ignoreRevert(rt, ts.SettleWithdraw(rapid.SampledFrom(validators).Draw(rt, "validator")))
			},
			"autocompound": func(rt *rapid.T) {
				_, err := ts.Autocompound(rapid.SampledFrom(validators).Draw(rt, "validator"))
				ignoreRevert(rt, err)
			},
			"fund": func(rt *rapid.T) {
				ignoreRevert(rt, ts.Fund(owner, near(rapid.Uint64Range(1, 5).Draw(rt, "near"))))
			},
			"rewards": func(rt *rapid.T) {
				id := rapid.SampledFrom(validators).Draw(rt, "validator")
				if ts.remote.Staked(id).IsZero() {
					return
				}
				n := rapid.Uint64Range(1, 10).Draw(rt, "near")
				if err := ts.remote.AddRewards(id, near(n)); err != nil {
					rt.Fatal(err)
				}
			},
			"step": func(rt *rapid.T) {
				if len(ts.queue.calls) == 0 {
					return
				}
				call := ts.queue.calls[0]
				ts.queue.calls = ts.queue.calls[1:]
				if rapid.Bool().Draw(rt, "fail") {
					ts.remote.FailNext(call.Method, 1)
				}
				out := remote.Execute(context.Background(), ts.remote, ts.remote, call)
				if err := ts.Complete(lock.OpID(call.Op), out); err != nil {
					rt.Fatalf("complete %s: %v", call, err)
				}
			},
		}

		var lastPrice *uint256.Int
		steps := rapid.IntRange(1, 150).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			name := rapid.SampledFrom([]string{
				"deposit", "unstake", "unstakeAll", "withdrawAll", "advance",
				"settleStake", "settleUnstake", "settleWithdraw", "autocompound",
				"fund", "rewards", "step", "step", "step",
			}).Draw(rt, "action")
			actions[name](rt)
			checkInvariants(rt, ts)

			l := ts.Ledger()
			if l.TotalShares.IsZero() {
				lastPrice = nil
				continue
			}
			price := ts.SharePrice()
			if lastPrice != nil && price.Lt(lastPrice) {
				rt.Fatalf("share price fell from %s to %s after %s", lastPrice.Dec(), price.Dec(), name)
			}
			lastPrice = price
		}

		// drain and settle everything left in flight
		for ts.Step() {
		}
		checkInvariants(rt, ts)
	})
}
