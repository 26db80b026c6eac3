// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package epochs exposes the epoch reconciler and the auto-compounder, so
// an external scheduler can drive them in place of the built-in keeper.
package epochs

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vechain/liquidpool/api/utils"
	"github.com/vechain/liquidpool/chain"
	"github.com/vechain/liquidpool/pool"
)

type Epoch struct {
	Current                 uint64 `json:"current"`
	LastReconciliationEpoch uint64 `json:"lastReconciliationEpoch"`
}

// Result tells whether a trigger started a remote operation.
type Result struct {
	Started bool `json:"started"`
}

type Epochs struct {
	pool *pool.Pool
}

func New(pool *pool.Pool) *Epochs {
	return &Epochs{pool}
}

func (e *Epochs) handleGetEpoch(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, &Epoch{
		Current:                 e.pool.Epoch(),
		LastReconciliationEpoch: e.pool.Ledger().LastReconciliationEpoch,
	})
}

func trigger(op func() (bool, error)) utils.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) error {
		started, err := op()
		if err != nil {
			return err
		}
		return utils.WriteJSON(w, &Result{Started: started})
	}
}

func triggerOn(op func(chain.AccountID) (bool, error)) utils.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		id, err := utils.AccountID(mux.Vars(req)["id"], "id")
		if err != nil {
			return err
		}
		return trigger(func() (bool, error) { return op(id) })(w, req)
	}
}

// started adapts operations that either start their remote call or fail.
func started(op func(chain.AccountID) error) func(chain.AccountID) (bool, error) {
	return func(id chain.AccountID) (bool, error) {
		if err := op(id); err != nil {
			return false, err
		}
		return true, nil
	}
}

func (e *Epochs) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /epochs").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetEpoch))
	sub.Path("/lock").
		Methods(http.MethodPost).
		Name("POST /epochs/lock").
		HandlerFunc(utils.WrapHandlerFunc(trigger(e.pool.LockEpoch)))
	sub.Path("/stake").
		Methods(http.MethodPost).
		Name("POST /epochs/stake").
		HandlerFunc(utils.WrapHandlerFunc(trigger(e.pool.SettleStake)))
	sub.Path("/unstake").
		Methods(http.MethodPost).
		Name("POST /epochs/unstake").
		HandlerFunc(utils.WrapHandlerFunc(trigger(e.pool.SettleUnstake)))
	sub.Path("/withdraw/{id}").
		Methods(http.MethodPost).
		Name("POST /epochs/withdraw/{id}").
		HandlerFunc(utils.WrapHandlerFunc(triggerOn(started(e.pool.SettleWithdraw))))
	sub.Path("/autocompound/{id}").
		Methods(http.MethodPost).
		Name("POST /epochs/autocompound/{id}").
		HandlerFunc(utils.WrapHandlerFunc(triggerOn(e.pool.Autocompound)))
	sub.Path("/sync/{id}").
		Methods(http.MethodPost).
		Name("POST /epochs/sync/{id}").
		HandlerFunc(utils.WrapHandlerFunc(triggerOn(started(e.pool.SyncValidatorBalance))))
}
