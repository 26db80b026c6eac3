// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package httpserver

import (
	"time"

	"github.com/vechain/liquidpool/api"
	"github.com/vechain/liquidpool/pool"
)

// StartAPIServer serves the pool API on addr. It returns the base url and a
// function stopping the server.
func StartAPIServer(addr string, p *pool.Pool, opts api.Options) (string, func(), error) {
	return listen("API", addr, "", api.New(p, opts), 5*time.Second)
}
