// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package epoch provides the clocks telling the pool the current network epoch.
package epoch

import (
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/liquidpool/chain"
)

// Clock reports the current epoch.
type Clock interface {
	Current() chain.Epoch
}

// Timed derives epochs from wall time: epoch n starts at Genesis + n*Length.
type Timed struct {
	genesis time.Time
	length  time.Duration
	now     func() time.Time
}

// NewTimed creates a wall-time clock.
func NewTimed(genesis time.Time, length time.Duration) (*Timed, error) {
	if length <= 0 {
		return nil, errors.Errorf("epoch length must be positive, got %v", length)
	}
	return &Timed{genesis: genesis, length: length, now: time.Now}, nil
}

func (c *Timed) Current() chain.Epoch {
	elapsed := c.now().Sub(c.genesis)
	if elapsed < 0 {
		return 0
	}
	return chain.Epoch(elapsed / c.length)
}

// Until returns the time left before the next epoch starts.
func (c *Timed) Until() time.Duration {
	next := c.genesis.Add(time.Duration(c.Current()+1) * c.length)
	return next.Sub(c.now())
}

// Length returns the epoch duration.
func (c *Timed) Length() time.Duration {
	return c.length
}

// Manual is a clock advanced explicitly.
type Manual struct {
	epoch atomic.Uint64
}

func NewManual(start chain.Epoch) *Manual {
	m := &Manual{}
	m.epoch.Store(start)
	return m
}

func (m *Manual) Current() chain.Epoch {
	return m.epoch.Load()
}

// Set moves the clock to epoch.
func (m *Manual) Set(epoch chain.Epoch) {
	m.epoch.Store(epoch)
}

// Advance moves the clock n epochs forward and returns the new epoch.
func (m *Manual) Advance(n chain.Epoch) chain.Epoch {
	return m.epoch.Add(n)
}
