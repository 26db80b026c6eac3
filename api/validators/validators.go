// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validators

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/liquidpool/api/utils"
	"github.com/vechain/liquidpool/chain"
	"github.com/vechain/liquidpool/pool"
	"github.com/vechain/liquidpool/pool/reverts"
)

type Validators struct {
	pool *pool.Pool
}

func New(pool *pool.Pool) *Validators {
	return &Validators{pool}
}

func (v *Validators) handleGetValidators(w http.ResponseWriter, _ *http.Request) error {
	current := v.pool.Epoch()
	all := v.pool.Validators()
	list := make([]*Validator, 0, len(all))
	for _, info := range all {
		list = append(list, convertValidator(info, current))
	}
	return utils.WriteJSON(w, list)
}

func (v *Validators) handleGetValidator(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.AccountID(mux.Vars(req)["id"], "id")
	if err != nil {
		return err
	}
	info := v.pool.Validator(id)
	if info == nil {
		return reverts.Newf(reverts.NotFound, "validator %s not found", id)
	}
	return utils.WriteJSON(w, convertValidator(info, v.pool.Epoch()))
}

func (v *Validators) handleAddValidator(w http.ResponseWriter, req *http.Request) error {
	caller, err := utils.Caller(req)
	if err != nil {
		return err
	}
	var body AddValidator
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	id, err := utils.AccountID(body.ID, "id")
	if err != nil {
		return err
	}
	if err := v.pool.AddValidator(caller, id); err != nil {
		return err
	}
	return utils.WriteJSON(w, convertValidator(v.pool.Validator(id), v.pool.Epoch()))
}

// handleUpdate wraps the owner operations addressing one validator.
func (v *Validators) handleUpdate(op func(caller, id chain.AccountID) error) utils.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		caller, err := utils.Caller(req)
		if err != nil {
			return err
		}
		id, err := utils.AccountID(mux.Vars(req)["id"], "id")
		if err != nil {
			return err
		}
		if err := op(caller, id); err != nil {
			return err
		}
		if info := v.pool.Validator(id); info != nil {
			return utils.WriteJSON(w, convertValidator(info, v.pool.Epoch()))
		}
		return utils.HTTPError(nil, http.StatusNoContent)
	}
}

func (v *Validators) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /validators").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetValidators))
	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /validators").
		HandlerFunc(utils.WrapHandlerFunc(v.handleAddValidator))
	sub.Path("/{id}").
		Methods(http.MethodGet).
		Name("GET /validators/{id}").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetValidator))
	sub.Path("/{id}").
		Methods(http.MethodDelete).
		Name("DELETE /validators/{id}").
		HandlerFunc(utils.WrapHandlerFunc(v.handleUpdate(v.pool.RemoveValidator)))
	sub.Path("/{id}/pause").
		Methods(http.MethodPost).
		Name("POST /validators/{id}/pause").
		HandlerFunc(utils.WrapHandlerFunc(v.handleUpdate(v.pool.PauseValidator)))
	sub.Path("/{id}/resume").
		Methods(http.MethodPost).
		Name("POST /validators/{id}/resume").
		HandlerFunc(utils.WrapHandlerFunc(v.handleUpdate(v.pool.ResumeValidator)))
}
