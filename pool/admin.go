// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"github.com/holiman/uint256"

	"github.com/vechain/liquidpool/amount"
	"github.com/vechain/liquidpool/chain"
	"github.com/vechain/liquidpool/pool/ledger"
	"github.com/vechain/liquidpool/pool/reverts"
	"github.com/vechain/liquidpool/pool/validator"
)

// Bounds of the minimum deposit.
var (
	MinDepositLowerBound = chain.Near(1)
	MinDepositUpperBound = chain.Near(100)
)

// AddValidator registers a validator to delegate to.
func (p *Pool) AddValidator(caller, id chain.AccountID) error {
	return p.exec(func() error {
		if err := p.requireOwner(caller); err != nil {
			return err
		}
		if id.IsZero() {
			return reverts.New(reverts.Precondition, "empty validator id")
		}
		if p.validators.Get(id) != nil {
			return reverts.Newf(reverts.Precondition, "validator %s already exists", id)
		}
		p.validators.Put(validator.New(id))
		p.touchValidator(id)
		logger.Info("added validator", "validator", id)
		return nil
	})
}

// RemoveValidator deletes a validator that holds nothing of the pool's.
func (p *Pool) RemoveValidator(caller, id chain.AccountID) error {
	return p.exec(func() error {
		if err := p.requireOwner(caller); err != nil {
			return err
		}
		v, err := p.getValidator(id)
		if err != nil {
			return err
		}
		if v.IsLocked() {
			return reverts.Newf(reverts.Busy, "validator %s is %s", id, &v.Lock)
		}
		if !v.IsEmpty() {
			return reverts.Newf(reverts.Precondition, "validator %s still holds %s staked, %s to withdraw", id, v.Staked.Dec(), v.ToWithdraw.Dec())
		}
		p.validators.Delete(id)
		p.touchValidator(id)
		logger.Info("removed validator", "validator", id)
		return nil
	})
}

// PauseValidator excludes a validator from selection and auto-compounding.
func (p *Pool) PauseValidator(caller, id chain.AccountID) error {
	return p.setValidatorPaused(caller, id, true)
}

// ResumeValidator undoes PauseValidator.
func (p *Pool) ResumeValidator(caller, id chain.AccountID) error {
	return p.setValidatorPaused(caller, id, false)
}

func (p *Pool) setValidatorPaused(caller, id chain.AccountID, paused bool) error {
	return p.exec(func() error {
		if err := p.requireOwner(caller); err != nil {
			return err
		}
		v, err := p.getValidator(id)
		if err != nil {
			return err
		}
		if v.Paused == paused {
			return reverts.Newf(reverts.Precondition, "validator %s paused is already %v", id, paused)
		}
		v.Paused = paused
		p.touchValidator(id)
		logger.Info("validator pause changed", "validator", id, "paused", paused)
		return nil
	})
}

// UpdateOperations replaces the pause switches.
func (p *Pool) UpdateOperations(caller chain.AccountID, ops ledger.Operations) error {
	return p.exec(func() error {
		if err := p.requireOwner(caller); err != nil {
			return err
		}
		p.ledger.Operations = ops
		logger.Info("operations updated", "operations", ops)
		return nil
	})
}

// ProposeRewardFee stages a new reward fee. It takes effect when committed
// after the configured wait.
func (p *Pool) ProposeRewardFee(caller chain.AccountID, fee amount.Fraction) error {
	return p.exec(func() error {
		if err := p.requireOwner(caller); err != nil {
			return err
		}
		if err := fee.Validate(ledger.MaxRewardFee); err != nil {
			return reverts.Newf(reverts.Precondition, "reward fee %v: %v", fee, err)
		}
		p.ledger.ProposedFee = &fee
		p.ledger.FeeProposedEpoch = p.epoch()
		logger.Info("reward fee proposed", "fee", fee, "current", p.ledger.RewardFee)
		return nil
	})
}

// CommitRewardFee applies the proposed reward fee.
func (p *Pool) CommitRewardFee(caller chain.AccountID) error {
	return p.exec(func() error {
		if err := p.requireOwner(caller); err != nil {
			return err
		}
		l := p.ledger
		if l.ProposedFee == nil {
			return reverts.New(reverts.Precondition, "no reward fee proposed")
		}
		if ready := l.FeeProposedEpoch + p.cfg.RewardFeeWaitEpochs; p.epoch() < ready {
			return reverts.Newf(reverts.Precondition, "reward fee can be committed from epoch %d", ready)
		}
		l.RewardFee = *l.ProposedFee
		l.ProposedFee = nil
		logger.Info("reward fee committed", "fee", l.RewardFee)
		return nil
	})
}

// SetOperator changes the receiver of the reward fee.
func (p *Pool) SetOperator(caller, operator chain.AccountID) error {
	return p.exec(func() error {
		if err := p.requireOwner(caller); err != nil {
			return err
		}
		if operator.IsZero() {
			return reverts.New(reverts.Precondition, "empty operator id")
		}
		p.ledger.Operator = operator
		logger.Info("operator changed", "operator", operator)
		return nil
	})
}

// SetMinDeposit changes the smallest accepted deposit.
func (p *Pool) SetMinDeposit(caller chain.AccountID, amt *uint256.Int) error {
	return p.exec(func() error {
		if err := p.requireOwner(caller); err != nil {
			return err
		}
		if amt.Lt(MinDepositLowerBound) || amt.Gt(MinDepositUpperBound) {
			return reverts.Newf(reverts.Precondition, "min deposit %s out of [%s, %s]", amt.Dec(), MinDepositLowerBound.Dec(), MinDepositUpperBound.Dec())
		}
		p.ledger.MinDeposit.Set(amt)
		return nil
	})
}

// AddReserve raises the liquid balance the pool never pays out by amt,
// which the owner attaches.
func (p *Pool) AddReserve(caller chain.AccountID, amt *uint256.Int) error {
	return p.exec(func() error {
		if err := p.requireOwner(caller); err != nil {
			return err
		}
		if err := p.credit(amt); err != nil {
			return err
		}
		p.ledger.Reserve.Add(&p.ledger.Reserve, amt)
		logger.Info("reserve added", "from", caller, "amount", amt.Dec(), "reserve", p.ledger.Reserve.Dec())
		return nil
	})
}

// Fund adds amt, attached by the owner, to the pool's liquid balance
// without minting shares. The operator fee is paid out of such funds.
func (p *Pool) Fund(caller chain.AccountID, amt *uint256.Int) error {
	return p.exec(func() error {
		if err := p.requireOwner(caller); err != nil {
			return err
		}
		if err := p.credit(amt); err != nil {
			return err
		}
		logger.Info("pool funded", "from", caller, "amount", amt.Dec())
		return nil
	})
}

func (p *Pool) credit(amt *uint256.Int) error {
	if err := requireU128(amt); err != nil {
		return err
	}
	if amt.IsZero() {
		return reverts.New(reverts.Precondition, "amount must be positive")
	}
	if err := requireU128(new(uint256.Int).Add(&p.ledger.Balance, amt)); err != nil {
		return err
	}
	p.ledger.Balance.Add(&p.ledger.Balance, amt)
	return nil
}
