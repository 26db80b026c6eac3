// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/liquidpool/chain"
	"github.com/vechain/liquidpool/kv"
	"github.com/vechain/liquidpool/pool/account"
	"github.com/vechain/liquidpool/pool/ledger"
	"github.com/vechain/liquidpool/pool/lock"
	"github.com/vechain/liquidpool/pool/validator"
)

// Every record is stored as a version byte followed by its RLP body.
const (
	ledgerVersion      byte = 1
	accountVersion     byte = 1
	validatorVersionV1 byte = 1
	validatorVersion   byte = 2
	opVersion          byte = 1
)

var (
	ledgerKey       = []byte("ledger")
	metaBucket      = kv.Bucket("m")
	accountBucket   = kv.Bucket("a")
	validatorBucket = kv.Bucket("v")
	opBucket        = kv.Bucket("o")
)

func encode(version byte, val any) ([]byte, error) {
	body, err := rlp.EncodeToBytes(val)
	if err != nil {
		return nil, err
	}
	return append([]byte{version}, body...), nil
}

func decode(data []byte, version byte, val any) error {
	if len(data) == 0 {
		return errors.New("empty record")
	}
	if data[0] != version {
		return errors.Errorf("unsupported record version %d, want %d", data[0], version)
	}
	return rlp.DecodeBytes(data[1:], val)
}

func opKey(id lock.OpID) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], uint64(id))
	return k[:]
}

// storage maps the pool's records onto a kv store.
type storage struct {
	meta       kv.Store
	accounts   kv.Store
	validators kv.Store
	ops        kv.Store
}

func newStorage(store kv.Store) *storage {
	return &storage{
		meta:       metaBucket.NewStore(store),
		accounts:   accountBucket.NewStore(store),
		validators: validatorBucket.NewStore(store),
		ops:        opBucket.NewStore(store),
	}
}

// loadLedger returns nil if the store holds no pool.
func (s *storage) loadLedger() (*ledger.Ledger, error) {
	data, err := s.meta.Get(ledgerKey)
	if err != nil {
		if s.meta.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get ledger")
	}
	var l ledger.Ledger
	if err := decode(data, ledgerVersion, &l); err != nil {
		return nil, errors.Wrap(err, "decode ledger")
	}
	return &l, nil
}

func (s *storage) loadAccounts() (map[chain.AccountID]*account.Account, error) {
	accounts := make(map[chain.AccountID]*account.Account)
	iter := s.accounts.Iterate(kv.Range{})
	defer iter.Release()
	for iter.Next() {
		var a account.Account
		if err := decode(iter.Value(), accountVersion, &a); err != nil {
			return nil, errors.Wrapf(err, "decode account %s", iter.Key())
		}
		accounts[chain.AccountID(iter.Key())] = &a
	}
	return accounts, errors.Wrap(iter.Error(), "iterate accounts")
}

// loadValidators returns the registry and the ids of records upgraded from an
// older layout, which need rewriting.
func (s *storage) loadValidators() (*validator.Registry, []chain.AccountID, error) {
	reg := validator.NewRegistry()
	var upgraded []chain.AccountID
	iter := s.validators.Iterate(kv.Range{})
	defer iter.Release()
	for iter.Next() {
		id := chain.AccountID(iter.Key())
		data := iter.Value()
		if len(data) > 0 && data[0] == validatorVersionV1 {
			var old validator.V1
			if err := decode(data, validatorVersionV1, &old); err != nil {
				return nil, nil, errors.Wrapf(err, "decode v1 validator %s", id)
			}
			v, wasLocked := validator.UpgradeV1(&old)
			if wasLocked {
				logger.Warn("dropped lock of legacy validator record", "validator", id)
			}
			reg.Put(v)
			upgraded = append(upgraded, id)
			continue
		}
		var v validator.Info
		if err := decode(data, validatorVersion, &v); err != nil {
			return nil, nil, errors.Wrapf(err, "decode validator %s", id)
		}
		reg.Put(&v)
	}
	return reg, upgraded, errors.Wrap(iter.Error(), "iterate validators")
}

func (s *storage) loadOps() (map[lock.OpID]*PendingOp, error) {
	ops := make(map[lock.OpID]*PendingOp)
	iter := s.ops.Iterate(kv.Range{})
	defer iter.Release()
	for iter.Next() {
		var op PendingOp
		if err := decode(iter.Value(), opVersion, &op); err != nil {
			return nil, errors.Wrap(err, "decode pending op")
		}
		if !op.Kind.Valid() {
			return nil, errors.Errorf("pending op #%d has unknown kind %d", op.ID, uint8(op.Kind))
		}
		ops[op.ID] = &op
	}
	return ops, errors.Wrap(iter.Error(), "iterate pending ops")
}

// changes tracks the records touched since the last commit.
type changes struct {
	accounts   map[chain.AccountID]struct{}
	validators map[chain.AccountID]struct{}
	ops        map[lock.OpID]struct{}
}

func newChanges() changes {
	return changes{
		accounts:   make(map[chain.AccountID]struct{}),
		validators: make(map[chain.AccountID]struct{}),
		ops:        make(map[lock.OpID]struct{}),
	}
}

// writeTo stages the ledger and every touched record into bulk. Records that
// no longer exist, and empty accounts, are deleted.
func (p *Pool) writeTo(bulk kv.Bulk) error {
	data, err := encode(ledgerVersion, p.ledger)
	if err != nil {
		return errors.Wrap(err, "encode ledger")
	}
	if err := metaBucket.NewPutter(bulk).Put(ledgerKey, data); err != nil {
		return err
	}

	accounts := accountBucket.NewPutter(bulk)
	for id := range p.dirty.accounts {
		a := p.accounts[id]
		if a == nil || a.IsEmpty() {
			delete(p.accounts, id)
			if err := accounts.Delete([]byte(id)); err != nil {
				return err
			}
			continue
		}
		data, err := encode(accountVersion, a)
		if err != nil {
			return errors.Wrapf(err, "encode account %s", id)
		}
		if err := accounts.Put([]byte(id), data); err != nil {
			return err
		}
	}

	validators := validatorBucket.NewPutter(bulk)
	for id := range p.dirty.validators {
		v := p.validators.Get(id)
		if v == nil {
			if err := validators.Delete([]byte(id)); err != nil {
				return err
			}
			continue
		}
		data, err := encode(validatorVersion, v)
		if err != nil {
			return errors.Wrapf(err, "encode validator %s", id)
		}
		if err := validators.Put([]byte(id), data); err != nil {
			return err
		}
	}

	ops := opBucket.NewPutter(bulk)
	for id := range p.dirty.ops {
		op := p.ops[id]
		if op == nil {
			if err := ops.Delete(opKey(id)); err != nil {
				return err
			}
			continue
		}
		data, err := encode(opVersion, op)
		if err != nil {
			return errors.Wrapf(err, "encode op %d", id)
		}
		if err := ops.Put(opKey(id), data); err != nil {
			return err
		}
	}
	return nil
}
