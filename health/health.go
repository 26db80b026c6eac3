// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"sync"
	"time"

	"github.com/vechain/liquidpool/chain"
)

// KeeperTick describes the last pass of the epoch keeper.
type KeeperTick struct {
	Epoch     chain.Epoch `json:"epoch"`
	Timestamp *time.Time  `json:"timestamp"`
	Error     string      `json:"error,omitempty"`
}

type Status struct {
	Healthy    bool        `json:"healthy"`
	KeeperTick *KeeperTick `json:"keeperTick"`
	PendingOps int         `json:"pendingOps"`
}

// Health tracks the liveness of the keeper loop. It reports unhealthy once no
// tick completed within the tolerated delay.
type Health struct {
	lock       sync.RWMutex
	maxDelay   time.Duration
	lastTick   time.Time
	tickEpoch  chain.Epoch
	tickErr    string
	pendingOps func() int
	now        func() time.Time
}

func New(maxDelay time.Duration, pendingOps func() int) *Health {
	if pendingOps == nil {
		pendingOps = func() int { return 0 }
	}
	return &Health{maxDelay: maxDelay, pendingOps: pendingOps, now: time.Now}
}

// KeeperTicked records a finished keeper pass. err is the last failure of the
// pass, if any.
func (h *Health) KeeperTicked(epoch chain.Epoch, err error) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.lastTick = h.now()
	h.tickEpoch = epoch
	h.tickErr = ""
	if err != nil {
		h.tickErr = err.Error()
	}
}

func (h *Health) Status() (*Status, error) {
	h.lock.RLock()
	defer h.lock.RUnlock()

	status := &Status{PendingOps: h.pendingOps()}
	if h.lastTick.IsZero() {
		return status, nil
	}
	ts := h.lastTick
	status.KeeperTick = &KeeperTick{
		Epoch:     h.tickEpoch,
		Timestamp: &ts,
		Error:     h.tickErr,
	}
	status.Healthy = h.now().Sub(h.lastTick) <= h.maxDelay
	return status, nil
}
