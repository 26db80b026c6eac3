// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package httpserver

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/vechain/liquidpool/api/admin"
	"github.com/vechain/liquidpool/health"
)

// StartAdminServer serves the operator endpoints, log level, request
// logging and health, under /admin on addr.
func StartAdminServer(addr string, logLevel *slog.LevelVar, apiLogs *atomic.Bool, h *health.Health) (string, func(), error) {
	return listen("admin", addr, "/admin", admin.New(logLevel, apiLogs, h), 5*time.Second)
}
