// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package pool implements the share accounting and epoch reconciliation of a
// liquid staking pool.
//
// Every exported method runs under the pool mutex for its whole synchronous
// body. Remote calls are handed to a Dispatcher, which executes them
// elsewhere and reports each outcome back through Complete. Resources touched
// by an outstanding call stay locked until its outcome is applied.
package pool

import (
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/liquidpool/amount"
	"github.com/vechain/liquidpool/chain"
	"github.com/vechain/liquidpool/epoch"
	"github.com/vechain/liquidpool/kv"
	"github.com/vechain/liquidpool/pool/account"
	"github.com/vechain/liquidpool/pool/ledger"
	"github.com/vechain/liquidpool/pool/lock"
	"github.com/vechain/liquidpool/pool/reverts"
	"github.com/vechain/liquidpool/pool/validator"
	"github.com/vechain/liquidpool/remote"
)

var logger = log.New("pkg", "pool")

// SetLogger replaces the package logger.
func SetLogger(l log.Logger) {
	logger = l
}

// Dispatcher executes remote calls for the pool. Dispatch is invoked with the
// pool mutex held and must not block; the outcome of every call is reported
// exactly once through Pool.Complete.
type Dispatcher interface {
	Dispatch(call remote.Call)
}

// Config holds the tunables of the reconciler.
type Config struct {
	MinEpochStake       *uint256.Int // epoch batches below this carry over to the next epoch
	StakeFloor          *uint256.Int // stake never unstaked from a validator
	RewardFeeWaitEpochs chain.Epoch  // delay between proposing and committing a fee
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MinEpochStake:       new(uint256.Int).Set(chain.OneNear),
		StakeFloor:          new(uint256.Int),
		RewardFeeWaitEpochs: 4,
	}
}

// Genesis describes a new pool.
type Genesis struct {
	Owner     chain.AccountID
	Operator  chain.AccountID
	RewardFee amount.Fraction
	Reserve   *uint256.Int
}

// Validate checks the genesis parameters.
func (g *Genesis) Validate() error {
	if g.Owner.IsZero() || g.Operator.IsZero() {
		return errors.New("owner and operator are required")
	}
	if err := g.RewardFee.Validate(ledger.MaxRewardFee); err != nil {
		return errors.Wrap(err, "reward fee")
	}
	return nil
}

// Pool is the liquid staking engine.
type Pool struct {
	mu         sync.Mutex
	cfg        Config
	clock      epoch.Clock
	dispatcher Dispatcher
	store      kv.Store
	storage    *storage

	ledger     *ledger.Ledger
	accounts   map[chain.AccountID]*account.Account
	validators *validator.Registry
	ops        map[lock.OpID]*PendingOp

	dirty  changes
	outbox []remote.Call
}

// New opens the pool persisted in store, or creates it from genesis if store
// is empty. Operations outstanding when the pool was last closed are
// recovered before New returns.
func New(store kv.Store, clock epoch.Clock, dispatcher Dispatcher, cfg Config, genesis *Genesis) (*Pool, error) {
	if cfg.MinEpochStake == nil {
		cfg.MinEpochStake = new(uint256.Int)
	}
	if cfg.StakeFloor == nil {
		cfg.StakeFloor = new(uint256.Int)
	}
	p := &Pool{
		cfg:        cfg,
		clock:      clock,
		dispatcher: dispatcher,
		store:      store,
		storage:    newStorage(store),
		dirty:      newChanges(),
	}

	l, err := p.storage.loadLedger()
	if err != nil {
		return nil, err
	}
	if l == nil {
		if genesis == nil {
			return nil, errors.New("empty store and no genesis")
		}
		if err := genesis.Validate(); err != nil {
			return nil, errors.Wrap(err, "genesis")
		}
		reserve := genesis.Reserve
		if reserve == nil {
			reserve = chain.MinBalanceForStorage
		}
		p.ledger = ledger.New(genesis.Owner, genesis.Operator, genesis.RewardFee, reserve)
		p.accounts = make(map[chain.AccountID]*account.Account)
		p.validators = validator.NewRegistry()
		p.ops = make(map[lock.OpID]*PendingOp)
		logger.Info("created pool", "owner", genesis.Owner, "operator", genesis.Operator, "fee", genesis.RewardFee)
		return p, p.commit()
	}

	p.ledger = l
	if p.accounts, err = p.storage.loadAccounts(); err != nil {
		return nil, err
	}
	if owed := sumPendingWithdrawals(p.accounts); !owed.Eq(&l.PendingWithdrawals) {
		// records written before the counter existed
		logger.Info("recounted pending withdrawals", "stored", l.PendingWithdrawals.Dec(), "actual", owed.Dec())
		l.PendingWithdrawals.Set(owed)
	}
	var upgraded []chain.AccountID
	if p.validators, upgraded, err = p.storage.loadValidators(); err != nil {
		return nil, err
	}
	for _, id := range upgraded {
		p.touchValidator(id)
	}
	if p.ops, err = p.storage.loadOps(); err != nil {
		return nil, err
	}
	logger.Info("opened pool",
		"accounts", len(p.accounts),
		"validators", p.validators.Len(),
		"pending", len(p.ops),
		"upgraded", len(upgraded))

	p.recover()
	return p, p.commit()
}

func sumPendingWithdrawals(accounts map[chain.AccountID]*account.Account) *uint256.Int {
	sum := new(uint256.Int)
	for _, a := range accounts {
		sum.Add(sum, &a.PendingWithdrawal)
	}
	return sum
}

// exec runs fn under the pool mutex and commits. A rejected operation
// leaves nothing to commit but the epoch lock, which is idempotent.
func (p *Pool) exec(fn func() error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := fn()
	if err != nil && !reverts.IsRevertErr(err) {
		logger.Error("pool operation failed", "err", err)
	}
	if cerr := p.commit(); cerr != nil {
		return cerr
	}
	return err
}

// commit persists every change atomically, then hands the queued calls to
// the dispatcher.
func (p *Pool) commit() error {
	bulk := p.store.Bulk()
	if err := p.writeTo(bulk); err != nil {
		return errors.Wrap(err, "stage pool state")
	}
	if err := bulk.Write(); err != nil {
		return errors.Wrap(err, "commit pool state")
	}
	p.dirty = newChanges()

	calls := p.outbox
	p.outbox = nil
	for _, call := range calls {
		p.dispatcher.Dispatch(call)
	}
	updateGauges(p.ledger)
	return nil
}

func (p *Pool) touchAccount(id chain.AccountID) {
	p.dirty.accounts[id] = struct{}{}
}

func (p *Pool) touchValidator(id chain.AccountID) {
	p.dirty.validators[id] = struct{}{}
}

func (p *Pool) touchOp(id lock.OpID) {
	p.dirty.ops[id] = struct{}{}
}

func (p *Pool) epoch() chain.Epoch {
	return p.clock.Current()
}

// getValidator returns the validator record or a not found revert.
func (p *Pool) getValidator(id chain.AccountID) (*validator.Info, error) {
	v := p.validators.Get(id)
	if v == nil {
		return nil, reverts.Newf(reverts.NotFound, "validator %s not found", id)
	}
	return v, nil
}

// getAccount returns the account record or a not found revert.
func (p *Pool) getAccount(id chain.AccountID) (*account.Account, error) {
	a := p.accounts[id]
	if a == nil {
		return nil, reverts.Newf(reverts.NotFound, "account %s not found", id)
	}
	return a, nil
}

func (p *Pool) requireNotBusy() error {
	if p.ledger.IsBusy() {
		return reverts.Newf(reverts.Busy, "pool is %s", &p.ledger.Busy)
	}
	return nil
}

func (p *Pool) requireOwner(caller chain.AccountID) error {
	if caller != p.ledger.Owner {
		return reverts.Newf(reverts.Unauthorized, "%s is not the owner", caller)
	}
	return nil
}

func requireU128(x *uint256.Int) error {
	if !amount.IsU128(x) {
		return reverts.Newf(reverts.Arithmetic, "amount %s exceeds 128 bits", x.Dec())
	}
	return nil
}

//
// Queries
//

// Epoch returns the current epoch.
func (p *Pool) Epoch() chain.Epoch {
	return p.epoch()
}

// SharePrice returns the value of one whole share.
func (p *Pool) SharePrice() *uint256.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ledger.SharePrice()
}

// Ledger returns a copy of the pool ledger.
func (p *Pool) Ledger() *ledger.Ledger {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ledger.Clone()
}

// AccountView is an account with its share value at the current price.
type AccountView struct {
	ID chain.AccountID
	account.Account
	StakedBalance *uint256.Int
	Withdrawable  bool // pending withdrawal matured
}

// Account returns a snapshot of the account. Unknown accounts read as empty.
func (p *Pool) Account(id chain.AccountID) *AccountView {
	p.mu.Lock()
	defer p.mu.Unlock()
	view := &AccountView{ID: id}
	if a := p.accounts[id]; a != nil {
		view.Account = *a
	}
	view.StakedBalance = p.ledger.AmountFor(&view.Shares)
	view.Withdrawable = !view.PendingWithdrawal.IsZero() && view.Account.CanWithdraw(p.epoch())
	return view
}

// NumAccounts returns the number of non-empty accounts.
func (p *Pool) NumAccounts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.accounts)
}

// Validator returns a copy of the validator record, or nil.
func (p *Pool) Validator(id chain.AccountID) *validator.Info {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v := p.validators.Get(id); v != nil {
		return v.Clone()
	}
	return nil
}

// Validators returns copies of all validator records ordered by id.
func (p *Pool) Validators() []*validator.Info {
	p.mu.Lock()
	defer p.mu.Unlock()
	all := p.validators.All()
	for i, v := range all {
		all[i] = v.Clone()
	}
	return all
}

// PendingOps returns copies of the outstanding operations ordered by id.
func (p *Pool) PendingOps() []*PendingOp {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sortedOps()
}
