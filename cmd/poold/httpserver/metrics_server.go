// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package httpserver

import (
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/liquidpool/metrics"
)

// StartMetricsServer exposes the prometheus meters at /metrics on addr.
func StartMetricsServer(addr string) (string, func(), error) {
	router := mux.NewRouter()
	router.Path("/metrics").
		Methods(http.MethodGet).
		Handler(metrics.HTTPHandler())
	return listen("metrics", addr, "/metrics", handlers.CompressHandler(router), time.Second)
}
