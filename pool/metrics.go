// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"github.com/holiman/uint256"

	"github.com/vechain/liquidpool/chain"
	"github.com/vechain/liquidpool/metrics"
	"github.com/vechain/liquidpool/pool/ledger"
)

var (
	metricDeposits   = metrics.LazyLoadCounter("pool_deposits_count")
	metricUnstakes   = metrics.LazyLoadCounter("pool_unstake_requests_count")
	metricPaidOut    = metrics.LazyLoadCounter("pool_payouts_count")
	metricRewards    = metrics.LazyLoadCounter("pool_rewards_millinear")
	metricDispatched = metrics.LazyLoadCounterVec("pool_ops_dispatched_count", []string{"kind"})
	metricCompleted  = metrics.LazyLoadCounterVec("pool_ops_completed_count", []string{"kind", "outcome"})
	metricLedger     = metrics.LazyLoadGaugeVec("pool_ledger_millinear", []string{"field"})
	metricSharePrice = metrics.LazyLoadGauge("pool_share_price_millinear")
	metricBusy       = metrics.LazyLoadGauge("pool_busy")
)

// chainMilliNear is the unit of amount gauges.
var chainMilliNear = new(uint256.Int).Div(chain.OneNear, uint256.NewInt(1000))

func milliNear(x *uint256.Int) int64 {
	q := new(uint256.Int).Div(x, chainMilliNear)
	if !q.IsUint64() || q.Uint64() > 1<<63-1 {
		return 1<<63 - 1
	}
	return int64(q.Uint64())
}

func updateGauges(l *ledger.Ledger) {
	fields := map[string]*uint256.Int{
		"total_staked":    &l.TotalStaked,
		"total_shares":    &l.TotalShares,
		"pending_stake":   &l.PendingStake,
		"pending_unstake": &l.PendingUnstake,
		"locked_stake":    &l.LockedStake,
		"locked_unstake":  &l.LockedUnstake,
		"to_withdraw":     &l.ToWithdraw,
		"balance":         &l.Balance,
		"owed":            &l.PendingWithdrawals,
	}
	gauge := metricLedger()
	for field, value := range fields {
		gauge.SetWithLabel(milliNear(value), map[string]string{"field": field})
	}
	metricSharePrice().Set(milliNear(l.SharePrice()))
	if l.IsBusy() {
		metricBusy().Set(1)
	} else {
		metricBusy().Set(0)
	}
}
