// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stakepool serves the pool ledger and its owner settings.
package stakepool

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/liquidpool/amount"
	"github.com/vechain/liquidpool/api/utils"
	"github.com/vechain/liquidpool/chain"
	"github.com/vechain/liquidpool/pool"
	"github.com/vechain/liquidpool/pool/lock"
)

type StakePool struct {
	pool *pool.Pool
}

func New(pool *pool.Pool) *StakePool {
	return &StakePool{pool}
}

func (s *StakePool) handleGetPool(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, convertPool(s.pool.Ledger(), s.pool.Epoch(), s.pool.NumAccounts()))
}

func (s *StakePool) handleGetPrice(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, &SharePrice{
		Epoch:      s.pool.Epoch(),
		SharePrice: utils.NewAmount(s.pool.SharePrice()),
	})
}

func (s *StakePool) handleGetOps(w http.ResponseWriter, _ *http.Request) error {
	ops := s.pool.PendingOps()
	list := make([]*PendingOp, 0, len(ops))
	for _, op := range ops {
		list = append(list, convertOp(op))
	}
	return utils.WriteJSON(w, list)
}

func (s *StakePool) handleUpdateOperations(caller chain.AccountID, req *http.Request) error {
	var body Operations
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	return s.pool.UpdateOperations(caller, body.toLedger())
}

func (s *StakePool) handleProposeRewardFee(caller chain.AccountID, req *http.Request) error {
	var body amount.Fraction
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	return s.pool.ProposeRewardFee(caller, body)
}

func (s *StakePool) handleCommitRewardFee(caller chain.AccountID, _ *http.Request) error {
	return s.pool.CommitRewardFee(caller)
}

func (s *StakePool) handleSetOperator(caller chain.AccountID, req *http.Request) error {
	var body SetOperator
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	operator, err := utils.AccountID(body.Operator, "operator")
	if err != nil {
		return err
	}
	return s.pool.SetOperator(caller, operator)
}

func (s *StakePool) handleResolveOp(caller chain.AccountID, req *http.Request) error {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	var body ResolveOp
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	return s.pool.ResolveOp(caller, lock.OpID(id), body.Succeeded)
}

func (s *StakePool) withAmount(op func(chain.AccountID, *uint256.Int) error) func(chain.AccountID, *http.Request) error {
	return func(caller chain.AccountID, req *http.Request) error {
		var body AmountBody
		if err := utils.ParseJSON(req.Body, &body); err != nil {
			return utils.BadRequest(errors.WithMessage(err, "body"))
		}
		if body.Amount == nil {
			return utils.BadRequest(errors.New("body: amount required"))
		}
		return op(caller, body.Amount.Int())
	}
}

// update wraps a caller-authorized ledger change, answering with the new
// ledger snapshot.
func (s *StakePool) update(op func(caller chain.AccountID, req *http.Request) error) utils.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		caller, err := utils.Caller(req)
		if err != nil {
			return err
		}
		if err := op(caller, req); err != nil {
			return err
		}
		return s.handleGetPool(w, req)
	}
}

func (s *StakePool) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /pool").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetPool))
	sub.Path("/price").
		Methods(http.MethodGet).
		Name("GET /pool/price").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetPrice))
	sub.Path("/ops").
		Methods(http.MethodGet).
		Name("GET /pool/ops").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetOps))
	sub.Path("/ops/{id}/resolve").
		Methods(http.MethodPost).
		Name("POST /pool/ops/{id}/resolve").
		HandlerFunc(utils.WrapHandlerFunc(s.update(s.handleResolveOp)))

	sub.Path("/operations").
		Methods(http.MethodPut).
		Name("PUT /pool/operations").
		HandlerFunc(utils.WrapHandlerFunc(s.update(s.handleUpdateOperations)))
	sub.Path("/reward-fee").
		Methods(http.MethodPost).
		Name("POST /pool/reward-fee").
		HandlerFunc(utils.WrapHandlerFunc(s.update(s.handleProposeRewardFee)))
	sub.Path("/reward-fee/commit").
		Methods(http.MethodPost).
		Name("POST /pool/reward-fee/commit").
		HandlerFunc(utils.WrapHandlerFunc(s.update(s.handleCommitRewardFee)))
	sub.Path("/operator").
		Methods(http.MethodPut).
		Name("PUT /pool/operator").
		HandlerFunc(utils.WrapHandlerFunc(s.update(s.handleSetOperator)))
	sub.Path("/min-deposit").
		Methods(http.MethodPut).
		Name("PUT /pool/min-deposit").
		HandlerFunc(utils.WrapHandlerFunc(s.update(s.withAmount(s.pool.SetMinDeposit))))
	sub.Path("/reserve").
		Methods(http.MethodPost).
		Name("POST /pool/reserve").
		HandlerFunc(utils.WrapHandlerFunc(s.update(s.withAmount(s.pool.AddReserve))))
	sub.Path("/fund").
		Methods(http.MethodPost).
		Name("POST /pool/fund").
		HandlerFunc(utils.WrapHandlerFunc(s.update(s.withAmount(s.pool.Fund))))
}
