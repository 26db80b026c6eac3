// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package mockpool is an in-memory stand-in for the validators and the host
// chain, used by solo mode and tests.
package mockpool

import (
	"context"
	"sync"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/liquidpool/chain"
	"github.com/vechain/liquidpool/epoch"
	"github.com/vechain/liquidpool/remote"
)

var (
	_ remote.Client = (*MockPool)(nil)
	_ remote.Bank   = (*MockPool)(nil)
)

// ErrInjected is returned by calls failed through FailNext.
var ErrInjected = errors.New("injected failure")

type validator struct {
	staked      uint256.Int
	unstaked    uint256.Int
	unlockEpoch chain.Epoch
}

// MockPool simulates the pool's accounts at a set of validators.
type MockPool struct {
	mu         sync.Mutex
	clock      epoch.Clock
	validators map[chain.AccountID]*validator
	transfers  map[chain.AccountID]*uint256.Int
	failures   map[remote.Method]int
	calls      map[remote.Method]int
}

// New creates a mock without a clock: unstaked funds are withdrawable at once.
func New() *MockPool {
	return &MockPool{
		validators: make(map[chain.AccountID]*validator),
		transfers:  make(map[chain.AccountID]*uint256.Int),
		failures:   make(map[remote.Method]int),
		calls:      make(map[remote.Method]int),
	}
}

// WithClock makes unstaked funds withdrawable only after the unbonding period.
func (m *MockPool) WithClock(clock epoch.Clock) *MockPool {
	m.clock = clock
	return m
}

func (m *MockPool) epoch() chain.Epoch {
	if m.clock == nil {
		return 0
	}
	return m.clock.Current()
}

// AddValidator registers a validator with an empty account.
func (m *MockPool) AddValidator(id chain.AccountID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.validators[id]; !ok {
		m.validators[id] = &validator{}
	}
}

// AddRewards credits the pool's stake at id, as epoch rewards would.
func (m *MockPool) AddRewards(id chain.AccountID, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.validators[id]
	if !ok {
		return errors.Errorf("unknown validator %s", id)
	}
	v.staked.Add(&v.staked, amount)
	return nil
}

// Slash debits the pool's stake at id.
func (m *MockPool) Slash(id chain.AccountID, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.validators[id]
	if !ok {
		return errors.Errorf("unknown validator %s", id)
	}
	if v.staked.Lt(amount) {
		v.staked.Clear()
	} else {
		v.staked.Sub(&v.staked, amount)
	}
	return nil
}

// FailNext makes the next n calls of method fail.
func (m *MockPool) FailNext(method remote.Method, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[method] += n
}

// Calls returns how many times method was invoked.
func (m *MockPool) Calls(method remote.Method) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// Staked returns the pool's stake at id.
func (m *MockPool) Staked(id chain.AccountID) *uint256.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.validators[id]; ok {
		return new(uint256.Int).Set(&v.staked)
	}
	return new(uint256.Int)
}

// Transferred returns the total paid out to id.
func (m *MockPool) Transferred(id chain.AccountID) *uint256.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if paid, ok := m.transfers[id]; ok {
		return new(uint256.Int).Set(paid)
	}
	return new(uint256.Int)
}

// enter counts the call and consumes an injected failure.
func (m *MockPool) enter(method remote.Method) error {
	m.calls[method]++
	if m.failures[method] > 0 {
		m.failures[method]--
		return errors.Wrapf(ErrInjected, "%s", method)
	}
	return nil
}

func (m *MockPool) get(id chain.AccountID) (*validator, error) {
	v, ok := m.validators[id]
	if !ok {
		return nil, errors.Errorf("unknown validator %s", id)
	}
	return v, nil
}

func (m *MockPool) DepositAndStake(_ context.Context, id chain.AccountID, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(remote.DepositAndStake); err != nil {
		return err
	}
	v, err := m.get(id)
	if err != nil {
		return err
	}
	v.staked.Add(&v.staked, amount)
	return nil
}

func (m *MockPool) Unstake(_ context.Context, id chain.AccountID, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(remote.Unstake); err != nil {
		return err
	}
	v, err := m.get(id)
	if err != nil {
		return err
	}
	if v.staked.Lt(amount) {
		return errors.Errorf("unstake %s exceeds stake %s", amount.Dec(), v.staked.Dec())
	}
	v.staked.Sub(&v.staked, amount)
	v.unstaked.Add(&v.unstaked, amount)
	v.unlockEpoch = m.epoch() + chain.NumEpochsToUnlock
	return nil
}

func (m *MockPool) WithdrawAll(_ context.Context, id chain.AccountID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(remote.WithdrawAll); err != nil {
		return err
	}
	v, err := m.get(id)
	if err != nil {
		return err
	}
	if m.clock != nil && m.epoch() < v.unlockEpoch {
		return errors.Errorf("unstaked balance of %s is locked until epoch %d", id, v.unlockEpoch)
	}
	v.unstaked.Clear()
	return nil
}

func (m *MockPool) GetStakedBalance(_ context.Context, id chain.AccountID) (*uint256.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(remote.GetStakedBalance); err != nil {
		return nil, err
	}
	v, err := m.get(id)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Set(&v.staked), nil
}

func (m *MockPool) GetAccount(_ context.Context, id chain.AccountID) (*remote.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(remote.GetAccount); err != nil {
		return nil, err
	}
	v, err := m.get(id)
	if err != nil {
		return nil, err
	}
	acc := &remote.Account{CanWithdraw: m.clock == nil || m.epoch() >= v.unlockEpoch}
	acc.Staked.Set(&v.staked)
	acc.Unstaked.Set(&v.unstaked)
	return acc, nil
}

func (m *MockPool) Transfer(_ context.Context, to chain.AccountID, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(remote.Transfer); err != nil {
		return err
	}
	paid, ok := m.transfers[to]
	if !ok {
		paid = new(uint256.Int)
		m.transfers[to] = paid
	}
	paid.Add(paid, amount)
	return nil
}
