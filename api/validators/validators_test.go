// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validators

import (
	"net/http"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/liquidpool/api/apitest"
	"github.com/vechain/liquidpool/chain"
)

func TestValidators(t *testing.T) {
	env := apitest.New(t)
	router := mux.NewRouter()
	New(env.Pool).Mount(router, "/validators")

	rr := apitest.Call(t, router, http.MethodPost, "/validators", apitest.Alice, &AddValidator{ID: apitest.V1.String()})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	var added Validator
	apitest.Decode(t, apitest.Call(t, router, http.MethodPost, "/validators", apitest.Owner, &AddValidator{ID: apitest.V1.String()}), &added)
	assert.Equal(t, apitest.V1.String(), added.ID)
	assert.Equal(t, "idle", added.Lock)
	assert.True(t, added.Unlocked)

	rr = apitest.Call(t, router, http.MethodPost, "/validators", apitest.Owner, &AddValidator{ID: apitest.V1.String()})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "already exists")

	rr = apitest.Call(t, router, http.MethodPost, "/validators", apitest.Owner, &AddValidator{ID: "x"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	require.NoError(t, env.Pool.AddValidator(apitest.Owner, apitest.V2))

	var list []Validator
	apitest.Decode(t, apitest.Call(t, router, http.MethodGet, "/validators", "", nil), &list)
	require.Len(t, list, 2)
	assert.Equal(t, apitest.V1.String(), list[0].ID)
	assert.Equal(t, apitest.V2.String(), list[1].ID)

	var paused Validator
	apitest.Decode(t, apitest.Call(t, router, http.MethodPost, "/validators/v1.poolv1.near/pause", apitest.Owner, nil), &paused)
	assert.True(t, paused.Paused)
	rr = apitest.Call(t, router, http.MethodPost, "/validators/v1.poolv1.near/pause", apitest.Owner, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	apitest.Decode(t, apitest.Call(t, router, http.MethodPost, "/validators/v1.poolv1.near/resume", apitest.Owner, nil), &paused)
	assert.False(t, paused.Paused)

	rr = apitest.Call(t, router, http.MethodDelete, "/validators/v1.poolv1.near", apitest.Owner, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = apitest.Call(t, router, http.MethodGet, "/validators/v1.poolv1.near", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = apitest.Call(t, router, http.MethodDelete, "/validators/v1.poolv1.near", apitest.Owner, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestValidators_RemoveHoldingStake(t *testing.T) {
	env := apitest.New(t).WithValidators(apitest.V1)
	router := mux.NewRouter()
	New(env.Pool).Mount(router, "/validators")

	_, err := env.Pool.Deposit(apitest.Alice, chain.Near(5))
	require.NoError(t, err)
	started, err := env.Pool.SettleStake()
	require.NoError(t, err)
	require.True(t, started)

	var v Validator
	apitest.Decode(t, apitest.Call(t, router, http.MethodGet, "/validators/v1.poolv1.near", "", nil), &v)
	assert.Contains(t, v.Lock, "awaiting")

	rr := apitest.Call(t, router, http.MethodDelete, "/validators/v1.poolv1.near", apitest.Owner, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	env.Flush()
	apitest.Decode(t, apitest.Call(t, router, http.MethodGet, "/validators/v1.poolv1.near", "", nil), &v)
	assert.Equal(t, "idle", v.Lock)
	assert.Equal(t, chain.Near(5), v.Staked.Int())

	rr = apitest.Call(t, router, http.MethodDelete, "/validators/v1.poolv1.near", apitest.Owner, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "still holds")
}
