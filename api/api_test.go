// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vechain/liquidpool/api/apitest"
	"github.com/vechain/liquidpool/api/middleware"
	"github.com/vechain/liquidpool/chain"
)

func TestAPI_Routes(t *testing.T) {
	env := apitest.New(t).WithValidators(apitest.V1)
	handler := New(env.Pool, Options{AllowedOrigins: "*", Depositors: []chain.AccountID{apitest.Relayer}})

	rr := apitest.Call(t, handler, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.Equal(t, "/pool", rr.Header().Get("Location"))

	rr = apitest.Call(t, handler, http.MethodPost, "/accounts/deposit", apitest.Relayer, map[string]string{"account": "alice.near", "amount": chain.Near(2).Dec()})
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))

	for _, path := range []string{"/pool", "/pool/price", "/pool/ops", "/accounts/alice.near", "/validators", "/epochs"} {
		rr = apitest.Call(t, handler, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}

	rr = apitest.Call(t, handler, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAPI_DepositsClosedWithoutDepositors(t *testing.T) {
	env := apitest.New(t)
	handler := New(env.Pool, Options{})

	rr := apitest.Call(t, handler, http.MethodPost, "/accounts/deposit", apitest.Relayer, map[string]string{"account": "alice.near", "amount": chain.Near(2).Dec()})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Zero(t, env.Pool.NumAccounts())
}

func TestAPI_DisableEpochTriggers(t *testing.T) {
	env := apitest.New(t)
	handler := New(env.Pool, Options{DisableEpochTriggers: true})

	rr := apitest.Call(t, handler, http.MethodPost, "/epochs/stake", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
