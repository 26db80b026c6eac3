// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validator

import (
	"sort"

	"github.com/holiman/uint256"

	"github.com/vechain/liquidpool/chain"
)

// Registry is the set of validators the pool delegates to.
type Registry struct {
	entries map[chain.AccountID]*Info
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[chain.AccountID]*Info)}
}

func (r *Registry) Len() int {
	return len(r.entries)
}

// Get returns the record of id, or nil.
func (r *Registry) Get(id chain.AccountID) *Info {
	return r.entries[id]
}

// Put inserts or replaces a record.
func (r *Registry) Put(v *Info) {
	r.entries[v.ID] = v
}

func (r *Registry) Delete(id chain.AccountID) {
	delete(r.entries, id)
}

// All returns the records ordered by id.
func (r *Registry) All() []*Info {
	all := make([]*Info, 0, len(r.entries))
	for _, v := range r.entries {
		all = append(all, v)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

// ForStaking picks the selectable validator with the least stake.
// Ties resolve to the lowest id. Returns nil if none is selectable.
func (r *Registry) ForStaking() *Info {
	var best *Info
	for _, v := range r.All() {
		if !v.Selectable() {
			continue
		}
		if best == nil || v.Staked.Lt(&best.Staked) {
			best = v
		}
	}
	return best
}

// ForUnstaking picks the selectable validator, unlocked at epoch and staking
// above floor, with the most stake. Ties resolve to the lowest id.
func (r *Registry) ForUnstaking(epoch chain.Epoch, floor *uint256.Int) *Info {
	var best *Info
	for _, v := range r.All() {
		if !v.Selectable() || !v.Unlocked(epoch) || !v.Staked.Gt(floor) {
			continue
		}
		if best == nil || v.Staked.Gt(&best.Staked) {
			best = v
		}
	}
	return best
}

// Available sums the stake that could be unstaked at epoch without waiting
// on a previous unbonding.
func (r *Registry) Available(epoch chain.Epoch) *uint256.Int {
	sum := new(uint256.Int)
	for _, v := range r.entries {
		if v.Paused || v.Staked.IsZero() || !v.Unlocked(epoch) {
			continue
		}
		sum.Add(sum, &v.Staked)
	}
	return sum
}

// TotalStaked sums Staked over every validator.
func (r *Registry) TotalStaked() *uint256.Int {
	sum := new(uint256.Int)
	for _, v := range r.entries {
		sum.Add(sum, &v.Staked)
	}
	return sum
}

// TotalToWithdraw sums ToWithdraw over every validator.
func (r *Registry) TotalToWithdraw() *uint256.Int {
	sum := new(uint256.Int)
	for _, v := range r.entries {
		sum.Add(sum, &v.ToWithdraw)
	}
	return sum
}
