// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/liquidpool/api/utils"
	"github.com/vechain/liquidpool/chain"
	"github.com/vechain/liquidpool/pool"
)

type Accounts struct {
	pool       *pool.Pool
	depositors map[chain.AccountID]bool
}

// New serves the accounts of p. Deposits are accepted only from depositors,
// the relayers that credit a transfer after they have seen it arrive.
func New(pool *pool.Pool, depositors []chain.AccountID) *Accounts {
	trusted := make(map[chain.AccountID]bool, len(depositors))
	for _, id := range depositors {
		trusted[id] = true
	}
	return &Accounts{
		pool,
		trusted,
	}
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.AccountID(mux.Vars(req)["id"], "id")
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertAccount(a.pool.Account(id)))
}

func (a *Accounts) handleDeposit(w http.ResponseWriter, req *http.Request) error {
	caller, err := utils.Caller(req)
	if err != nil {
		return err
	}
	if !a.depositors[caller] {
		return utils.Forbidden(errors.Errorf("%s may not credit deposits", caller))
	}
	var body DepositRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Amount == nil {
		return utils.BadRequest(errors.New("body: amount required"))
	}
	beneficiary, err := utils.AccountID(body.Account, "account")
	if err != nil {
		return err
	}
	shares, err := a.pool.Deposit(beneficiary, body.Amount.Int())
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &DepositResult{Shares: utils.NewAmount(shares)})
}

func (a *Accounts) handleUnstake(w http.ResponseWriter, req *http.Request) error {
	caller, err := utils.Caller(req)
	if err != nil {
		return err
	}
	amt, all, err := parseAmountRequest(req)
	if err != nil {
		return err
	}
	var released *uint256.Int
	if all {
		released, err = a.pool.RequestUnstakeAll(caller)
	} else {
		released, err = a.pool.RequestUnstake(caller, amt)
	}
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &UnstakeResult{Released: utils.NewAmount(released)})
}

func (a *Accounts) handleWithdraw(w http.ResponseWriter, req *http.Request) error {
	caller, err := utils.Caller(req)
	if err != nil {
		return err
	}
	amt, all, err := parseAmountRequest(req)
	if err != nil {
		return err
	}
	if all {
		amt, err = a.pool.WithdrawAll(caller)
	} else {
		err = a.pool.Withdraw(caller, amt)
	}
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &WithdrawResult{Amount: utils.NewAmount(amt)})
}

func parseAmountRequest(req *http.Request) (*uint256.Int, bool, error) {
	var body AmountRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return nil, false, utils.BadRequest(errors.WithMessage(err, "body"))
	}
	switch {
	case body.All && body.Amount != nil:
		return nil, false, utils.BadRequest(errors.New("body: amount and all are exclusive"))
	case body.All:
		return nil, true, nil
	case body.Amount == nil:
		return nil, false, utils.BadRequest(errors.New("body: amount required"))
	}
	return body.Amount.Int(), false, nil
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/deposit").
		Methods(http.MethodPost).
		Name("POST /accounts/deposit").
		HandlerFunc(utils.WrapHandlerFunc(a.handleDeposit))
	sub.Path("/unstake").
		Methods(http.MethodPost).
		Name("POST /accounts/unstake").
		HandlerFunc(utils.WrapHandlerFunc(a.handleUnstake))
	sub.Path("/withdraw").
		Methods(http.MethodPost).
		Name("POST /accounts/withdraw").
		HandlerFunc(utils.WrapHandlerFunc(a.handleWithdraw))
	sub.Path("/{id}").
		Methods(http.MethodGet).
		Name("GET /accounts/{id}").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetAccount))
}
