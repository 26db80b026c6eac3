// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package lock implements the advisory locks guarding pool resources across
// outstanding remote calls.
//
// A lock is either idle or awaiting the completion of exactly one remote
// operation. Acquire is the only way to obtain a Permit and a Permit is the
// only way to release the lock, so a code path cannot release a lock it never
// took, nor forget which operation holds it.
package lock

import (
	"fmt"

	"github.com/pkg/errors"
)

// OpID identifies an outstanding remote operation. Zero is never a valid id.
type OpID uint64

// ErrHeld is returned when acquiring a lock that is awaiting another operation.
var ErrHeld = errors.New("lock is held by an outstanding operation")

// State is the persisted state of a lock. The zero value is idle.
type State struct {
	Op   OpID   // holder, zero when idle
	Kind string // holder kind, informational
}

// Idle returns true if no operation holds the lock.
func (s *State) Idle() bool {
	return s.Op == 0
}

func (s *State) String() string {
	if s.Idle() {
		return "idle"
	}
	return fmt.Sprintf("awaiting %s#%d", s.Kind, s.Op)
}

// Permit proves that an operation holds a lock.
type Permit struct {
	state *State
	op    OpID
}

// Acquire marks the lock as held by op.
func Acquire(s *State, op OpID, kind string) (Permit, error) {
	if op == 0 {
		return Permit{}, errors.New("acquire with zero op id")
	}
	if !s.Idle() {
		return Permit{}, errors.Wrapf(ErrHeld, "%s", s)
	}
	s.Op = op
	s.Kind = kind
	return Permit{state: s, op: op}, nil
}

// Reclaim rebuilds the permit of op on a lock restored from storage.
func Reclaim(s *State, op OpID) (Permit, error) {
	if op == 0 || s.Op != op {
		return Permit{}, errors.Errorf("lock is %s, not held by #%d", s, op)
	}
	return Permit{state: s, op: op}, nil
}

// Op returns the holding operation.
func (p Permit) Op() OpID {
	return p.op
}

// Valid returns false for the zero permit.
func (p Permit) Valid() bool {
	return p.state != nil
}

// Release returns the lock to idle. Releasing twice, or releasing a lock
// meanwhile taken over by another operation, is an error.
func (p Permit) Release() error {
	if p.state == nil {
		return errors.New("release of an invalid permit")
	}
	if p.state.Op != p.op {
		return errors.Errorf("release by #%d of lock %s", p.op, p.state)
	}
	*p.state = State{}
	return nil
}
