// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package apitest runs a pool against the in-memory staking pool for API
// tests. Remote calls are queued and executed on Flush.
package apitest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/vechain/liquidpool/amount"
	"github.com/vechain/liquidpool/chain"
	"github.com/vechain/liquidpool/epoch"
	"github.com/vechain/liquidpool/lvldb"
	"github.com/vechain/liquidpool/pool"
	"github.com/vechain/liquidpool/pool/lock"
	"github.com/vechain/liquidpool/remote"
	"github.com/vechain/liquidpool/remote/mockpool"
)

const (
	Owner    = chain.AccountID("owner.near")
	Operator = chain.AccountID("operator.near")
	Alice    = chain.AccountID("alice.near")
	Bob      = chain.AccountID("bob.near")
	Relayer  = chain.AccountID("relayer.near")
	V1       = chain.AccountID("v1.poolv1.near")
	V2       = chain.AccountID("v2.poolv1.near")

	StartEpoch = 100
)

type Env struct {
	Pool   *pool.Pool
	Clock  *epoch.Manual
	Remote *mockpool.MockPool

	t     *testing.T
	db    *lvldb.LevelDB
	mu    sync.Mutex
	queue []remote.Call
}

func New(t *testing.T) *Env {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &Env{
		Clock: epoch.NewManual(StartEpoch),
		t:     t,
		db:    db,
	}
	env.Remote = mockpool.New().WithClock(env.Clock)

	genesis := &pool.Genesis{
		Owner:     Owner,
		Operator:  Operator,
		RewardFee: amount.NewFraction(1, 10),
		Reserve:   new(uint256.Int),
	}
	env.Pool, err = pool.New(db, env.Clock, env, pool.DefaultConfig(), genesis)
	require.NoError(t, err)
	return env
}

// WithValidators registers ids with both the pool and the staking pool.
func (e *Env) WithValidators(ids ...chain.AccountID) *Env {
	for _, id := range ids {
		require.NoError(e.t, e.Pool.AddValidator(Owner, id))
		e.Remote.AddValidator(id)
	}
	return e
}

// Reopen drops the queued calls and opens the pool again from its store.
func (e *Env) Reopen() *Env {
	e.mu.Lock()
	e.queue = nil
	e.mu.Unlock()

	p, err := pool.New(e.db, e.Clock, e, pool.DefaultConfig(), nil)
	require.NoError(e.t, err)
	e.Pool = p
	return e
}

func (e *Env) Dispatch(call remote.Call) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queue = append(e.queue, call)
}

// Queued returns the number of calls awaiting Flush.
func (e *Env) Queued() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// Flush executes queued calls, including those their completion queues.
func (e *Env) Flush() {
	for {
		e.mu.Lock()
		if len(e.queue) == 0 {
			e.mu.Unlock()
			return
		}
		call := e.queue[0]
		e.queue = e.queue[1:]
		e.mu.Unlock()

		out := remote.Execute(context.Background(), e.Remote, e.Remote, call)
		require.NoError(e.t, e.Pool.Complete(lock.OpID(call.Op), out))
	}
}

// Call serves one request on handler. body, if not nil, is JSON encoded; a
// non-empty caller is sent as the X-Account-Id header.
func Call(t *testing.T, handler http.Handler, method, path string, caller chain.AccountID, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set("X-Account-Id", caller.String())
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// Decode unmarshals a successful response into v.
func Decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v))
}
