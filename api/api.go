// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api serves the pool over HTTP.
package api

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/liquidpool/api/accounts"
	"github.com/vechain/liquidpool/api/epochs"
	"github.com/vechain/liquidpool/api/middleware"
	"github.com/vechain/liquidpool/api/stakepool"
	"github.com/vechain/liquidpool/api/utils"
	"github.com/vechain/liquidpool/api/validators"
	"github.com/vechain/liquidpool/chain"
	"github.com/vechain/liquidpool/pool"
)

type Options struct {
	AllowedOrigins       string
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	Log5xxErrors         bool
	EnableMetrics        bool
	DisableEpochTriggers bool // leave reconciliation to the built-in keeper only
	// Depositors are the relayers trusted to credit deposits they have
	// seen arrive. With none, deposits are closed.
	Depositors []chain.AccountID
}

// New return api router
func New(p *pool.Pool, opts Options) http.HandlerFunc {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()
	router.Path("/").
		Handler(http.RedirectHandler("/pool", http.StatusTemporaryRedirect))

	stakepool.New(p).
		Mount(router, "/pool")
	accounts.New(p, opts.Depositors).
		Mount(router, "/accounts")
	validators.New(p).
		Mount(router, "/validators")
	if !opts.DisableEpochTriggers {
		epochs.New(p).
			Mount(router, "/epochs")
	}

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"content-type", strings.ToLower(utils.CallerHeader), strings.ToLower(middleware.RequestIDHeader)}),
		handlers.ExposedHeaders([]string{strings.ToLower(middleware.RequestIDHeader)}),
	)(handler)

	enabled := opts.EnableReqLogger
	if enabled == nil {
		enabled = &atomic.Bool{}
	}
	handler = middleware.RequestLoggerMiddleware(log.New("pkg", "api"), enabled, opts.SlowQueriesThreshold, opts.Log5xxErrors)(handler)
	handler = middleware.RequestID(handler)

	return handler.ServeHTTP
}
