// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"fmt"
	"sort"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/liquidpool/chain"
	"github.com/vechain/liquidpool/pool/lock"
	"github.com/vechain/liquidpool/pool/reverts"
	"github.com/vechain/liquidpool/pool/validator"
	"github.com/vechain/liquidpool/remote"
)

// Kind identifies what an outstanding operation does and how its outcome is applied.
type Kind uint8

const (
	KindStake          Kind = iota + 1 // deposit_and_stake of the locked epoch stake
	KindStakeReconcile                 // balance read following a stake
	KindUnstake                        // unstake of the locked epoch unstake
	KindWithdraw                       // withdraw_all of a validator's unlocked funds
	KindRewards                        // balance read of the auto-compounder
	KindSync                           // account read of a balance sync
	KindFeeTransfer                    // reward fee paid to the operator
	KindPayout                         // withdrawal paid to a user
)

var kindNames = map[Kind]string{
	KindStake:          "stake",
	KindStakeReconcile: "stake-reconcile",
	KindUnstake:        "unstake",
	KindWithdraw:       "withdraw",
	KindRewards:        "rewards",
	KindSync:           "sync",
	KindFeeTransfer:    "fee-transfer",
	KindPayout:         "payout",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid returns true for the kinds the pool knows how to complete.
func (k Kind) Valid() bool {
	_, ok := handlers[k]
	return ok
}

func (k Kind) method() remote.Method {
	switch k {
	case KindStake:
		return remote.DepositAndStake
	case KindStakeReconcile, KindRewards:
		return remote.GetStakedBalance
	case KindUnstake:
		return remote.Unstake
	case KindWithdraw:
		return remote.WithdrawAll
	case KindSync:
		return remote.GetAccount
	default:
		return remote.Transfer
	}
}

// PendingOp is an operation awaiting the outcome of its remote call. It holds
// what is needed to finalize the operation or undo its optimistic changes.
type PendingOp struct {
	ID             lock.OpID
	Kind           Kind
	Validator      chain.AccountID
	Account        chain.AccountID // receiver of a transfer
	Amount         uint256.Int
	Aux            uint64      // unstake: unlock epoch before the call
	Epoch          chain.Epoch // dispatch epoch
	HoldsPool      bool
	HoldsValidator bool
	Unresolved     bool `rlp:"optional"` // interrupted fund movement awaiting ResolveOp
}

func (op *PendingOp) String() string {
	return fmt.Sprintf("%s#%d", op.Kind, op.ID)
}

// Call builds the remote call of the operation.
func (op *PendingOp) Call() remote.Call {
	call := remote.Call{Op: uint64(op.ID), Method: op.Kind.method(), Target: op.Validator}
	switch call.Method {
	case remote.Transfer:
		call.Target = op.Account
		call.Amount = new(uint256.Int).Set(&op.Amount)
	case remote.DepositAndStake, remote.Unstake:
		call.Amount = new(uint256.Int).Set(&op.Amount)
	}
	return call
}

// handler applies the outcome of one kind of operation. onSuccess returns
// true if it handed the operation's locks over to a follow-up operation.
// onFailure undoes the optimistic changes made at dispatch.
type handler struct {
	onSuccess func(p *Pool, op *PendingOp, out remote.Outcome) bool
	onFailure func(p *Pool, op *PendingOp)
}

var handlers = map[Kind]handler{
	KindStake:          {(*Pool).onStaked, (*Pool).restoreStake},
	KindStakeReconcile: {(*Pool).onStakeReconciled, (*Pool).skipStakeReconcile},
	KindUnstake:        {(*Pool).onUnstaked, (*Pool).restoreUnstake},
	KindWithdraw:       {(*Pool).onWithdrawn, (*Pool).restoreWithdraw},
	KindRewards:        {(*Pool).onRewardsBalance, nil},
	KindSync:           {(*Pool).onAccountSynced, nil},
	KindFeeTransfer:    {(*Pool).onFeePaid, (*Pool).restoreFee},
	KindPayout:         {(*Pool).onPaidOut, (*Pool).restorePayout},
}

var errResolvedFailed = errors.New("resolved as failed")

// start allocates an operation on validator v, takes the locks it holds,
// records it and queues its call. v may be nil for pool-only operations.
func (p *Pool) start(kind Kind, v *validator.Info, holdsPool bool, amt *uint256.Int) (*PendingOp, error) {
	op := p.newOp(kind, amt)
	op.HoldsPool = holdsPool
	if v != nil {
		op.Validator = v.ID
		op.HoldsValidator = true
	}
	return op, p.launch(op, v)
}

// transfer starts a lock-free payment of amt to receiver.
func (p *Pool) transfer(kind Kind, receiver chain.AccountID, amt *uint256.Int) (*PendingOp, error) {
	op := p.newOp(kind, amt)
	op.Account = receiver
	return op, p.launch(op, nil)
}

func (p *Pool) newOp(kind Kind, amt *uint256.Int) *PendingOp {
	op := &PendingOp{
		ID:    p.ledger.NewOpID(),
		Kind:  kind,
		Epoch: p.epoch(),
	}
	if amt != nil {
		op.Amount.Set(amt)
	}
	return op
}

func (p *Pool) launch(op *PendingOp, v *validator.Info) error {
	if err := p.acquire(op, v); err != nil {
		return err
	}
	p.ops[op.ID] = op
	p.touchOp(op.ID)
	call := op.Call()
	p.outbox = append(p.outbox, call)
	metricDispatched().AddWithLabel(1, map[string]string{"kind": op.Kind.String()})
	logger.Debug("dispatching", "op", op, "call", call)
	return nil
}

func (p *Pool) acquire(op *PendingOp, v *validator.Info) error {
	var poolPermit lock.Permit
	if op.HoldsPool {
		permit, err := lock.Acquire(&p.ledger.Busy, op.ID, op.Kind.String())
		if err != nil {
			return reverts.Newf(reverts.Busy, "pool: %v", err)
		}
		poolPermit = permit
	}
	if v != nil {
		if _, err := lock.Acquire(&v.Lock, op.ID, op.Kind.String()); err != nil {
			if poolPermit.Valid() {
				_ = poolPermit.Release()
			}
			return reverts.Newf(reverts.Busy, "validator %s: %v", v.ID, err)
		}
		p.touchValidator(v.ID)
	}
	return nil
}

// release frees every lock op holds.
func (p *Pool) release(op *PendingOp) {
	if op.HoldsPool {
		releaseLock(&p.ledger.Busy, op)
	}
	if op.HoldsValidator {
		if v := p.validators.Get(op.Validator); v != nil {
			releaseLock(&v.Lock, op)
			p.touchValidator(v.ID)
		}
	}
}

func releaseLock(s *lock.State, op *PendingOp) {
	permit, err := lock.Reclaim(s, op.ID)
	if err == nil {
		err = permit.Release()
	}
	if err != nil {
		logger.Error("failed to release lock", "op", op, "err", err)
	}
}

// handover moves the locks of op to a new operation of kind and dispatches it.
func (p *Pool) handover(op *PendingOp, kind Kind, amt *uint256.Int) bool {
	p.release(op)
	var v *validator.Info
	if op.HoldsValidator {
		v = p.validators.Get(op.Validator)
	}
	if _, err := p.start(kind, v, op.HoldsPool, amt); err != nil {
		logger.Error("failed to hand over locks", "op", op, "next", kind, "err", err)
		return false
	}
	return true
}

// ResolveOp settles an operation interrupted by a restart, once the owner
// has checked on the remote side whether its call took effect.
func (p *Pool) ResolveOp(caller chain.AccountID, id lock.OpID, succeeded bool) error {
	return p.exec(func() error {
		if err := p.requireOwner(caller); err != nil {
			return err
		}
		op := p.ops[id]
		if op == nil {
			return reverts.Newf(reverts.NotFound, "no pending operation #%d", id)
		}
		if !op.Unresolved {
			return reverts.Newf(reverts.Precondition, "operation %s is in flight", op)
		}
		logger.Info("resolving operation", "op", op, "succeeded", succeeded, "by", caller)
		out := remote.Done(nil)
		if !succeeded {
			out = remote.Done(errResolvedFailed)
		}
		p.complete(op, out)
		return nil
	})
}

// Complete applies the outcome of the remote call issued by operation id.
func (p *Pool) Complete(id lock.OpID, out remote.Outcome) error {
	return p.exec(func() error {
		op := p.ops[id]
		if op == nil {
			return reverts.Newf(reverts.NotFound, "no pending operation #%d", id)
		}
		p.complete(op, out)
		return nil
	})
}

func (p *Pool) complete(op *PendingOp, out remote.Outcome) {
	delete(p.ops, op.ID)
	p.touchOp(op.ID)

	h, ok := handlers[op.Kind]
	if !ok {
		logger.Error("dropping operation of unknown kind", "op", op)
		p.release(op)
		return
	}
	outcome := "success"
	handedOver := false
	if out.OK() {
		handedOver = h.onSuccess(p, op, out)
	} else {
		outcome = "failure"
		logger.Warn("remote call failed", "op", op, "validator", op.Validator, "amount", op.Amount.Dec(), "err", out.Err)
		if h.onFailure != nil {
			h.onFailure(p, op)
		}
	}
	if !handedOver {
		p.release(op)
	}
	metricCompleted().AddWithLabel(1, map[string]string{"kind": op.Kind.String(), "outcome": outcome})
}

func (p *Pool) sortedOpIDs() []lock.OpID {
	ids := make([]lock.OpID, 0, len(p.ops))
	for id := range p.ops {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (p *Pool) sortedOps() []*PendingOp {
	ids := p.sortedOpIDs()
	ops := make([]*PendingOp, 0, len(ids))
	for _, id := range ids {
		op := *p.ops[id]
		ops = append(ops, &op)
	}
	return ops
}

// recover resumes the operations found in storage. Reads are issued again.
// Whether a fund-moving call went through before the restart is unknown:
// neither finalizing nor undoing it is safe, so it keeps its locks until the
// owner settles it with ResolveOp. Locks no operation holds are freed.
func (p *Pool) recover() {
	for _, id := range p.sortedOpIDs() {
		op := p.ops[id]
		if op.Kind.method().ReadOnly() {
			logger.Info("re-dispatching interrupted operation", "op", op)
			p.outbox = append(p.outbox, op.Call())
			continue
		}
		if !op.Unresolved {
			op.Unresolved = true
			p.touchOp(op.ID)
		}
		logger.Warn("interrupted operation awaits resolution", "op", op, "target", op.Call().Target, "amount", op.Amount.Dec())
	}

	if busy := p.ledger.Busy; !busy.Idle() && p.ops[busy.Op] == nil {
		logger.Warn("freeing stale pool lock", "lock", &busy)
		p.ledger.Busy = lock.State{}
	}
	for _, v := range p.validators.All() {
		if v.IsLocked() && p.ops[v.Lock.Op] == nil {
			logger.Warn("freeing stale validator lock", "validator", v.ID, "lock", &v.Lock)
			v.Lock = lock.State{}
			p.touchValidator(v.ID)
		}
	}
}
