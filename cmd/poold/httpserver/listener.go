// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package httpserver starts the daemon's HTTP listeners.
package httpserver

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
)

// listener is one started HTTP server.
type listener struct {
	srv  *http.Server
	done sync.WaitGroup
}

// listen binds addr and serves handler until the returned closer runs. The
// url is the bound address followed by path.
func listen(name, addr, path string, handler http.Handler, readTimeout time.Duration) (string, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen %s addr [%v]", name, addr)
	}
	l := &listener{srv: &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       readTimeout,
	}}
	l.done.Go(func() {
		if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("http server stopped", "server", name, "err", err)
		}
	})
	return "http://" + ln.Addr().String() + path, l.close, nil
}

func (l *listener) close() {
	l.srv.Close()
	l.done.Wait()
}
