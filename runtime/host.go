// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package runtime executes the pool's remote calls and drives its epoch
// maintenance.
package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"

	"github.com/vechain/liquidpool/metrics"
	"github.com/vechain/liquidpool/pool/lock"
	"github.com/vechain/liquidpool/remote"
)

var logger = log.New("pkg", "runtime")

// SetLogger replaces the package logger.
func SetLogger(l log.Logger) {
	logger = l
}

var metricCallDuration = metrics.LazyLoadHistogramVec(
	"remote_call_duration_ms", []string{"method", "outcome"}, metrics.BucketRemoteCalls,
)

// Completer receives the outcome of every executed call.
type Completer interface {
	Complete(id lock.OpID, out remote.Outcome) error
}

// Host is the pool's Dispatcher. Dispatch only queues the call; Run executes
// queued calls concurrently and reports each outcome to the Completer.
type Host struct {
	client  remote.Client
	bank    remote.Bank
	limit   int
	timeout time.Duration

	mu      sync.Mutex
	queue   []remote.Call
	running int
	wake    chan struct{}
}

// NewHost creates a host executing at most limit calls at once. Reads are
// bounded by timeout, a zero timeout meaning no bound. Calls moving funds
// run until the remote side answers: abandoning one would report a failure
// for a transfer that may still land.
func NewHost(client remote.Client, bank remote.Bank, limit int, timeout time.Duration) *Host {
	if limit <= 0 {
		limit = 1
	}
	return &Host{
		client:  client,
		bank:    bank,
		limit:   limit,
		timeout: timeout,
		wake:    make(chan struct{}, 1),
	}
}

// Dispatch queues call. It never blocks.
func (h *Host) Dispatch(call remote.Call) {
	h.mu.Lock()
	h.queue = append(h.queue, call)
	h.mu.Unlock()

	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of calls queued or executing.
func (h *Host) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queue) + h.running
}

func (h *Host) take() []remote.Call {
	h.mu.Lock()
	defer h.mu.Unlock()
	calls := h.queue
	h.queue = nil
	h.running += len(calls)
	return calls
}

func (h *Host) done() {
	h.mu.Lock()
	h.running--
	h.mu.Unlock()
}

// Run executes calls until ctx is done, then waits for the executing ones.
// Calls still queued at that point stay pending in the pool and are
// recovered when it is reopened.
func (h *Host) Run(ctx context.Context, c Completer) error {
	var g errgroup.Group
	g.SetLimit(h.limit)
	defer g.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.wake:
		}
		for _, call := range h.take() {
			g.Go(func() error {
				defer h.done()
				h.execute(ctx, c, call)
				return nil
			})
		}
	}
}

func (h *Host) execute(ctx context.Context, c Completer, call remote.Call) {
	callCtx := context.WithoutCancel(ctx)
	if h.timeout > 0 && call.Method.ReadOnly() {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, h.timeout)
		defer cancel()
	}

	start := time.Now()
	out := remote.Execute(callCtx, h.client, h.bank, call)
	outcome := "success"
	if !out.OK() {
		outcome = "failure"
	}
	metricCallDuration().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{
		"method":  string(call.Method),
		"outcome": outcome,
	})
	logger.Debug("remote call finished", "call", call, "outcome", outcome, "elapsed", time.Since(start))

	if err := c.Complete(lock.OpID(call.Op), out); err != nil {
		logger.Error("failed to complete remote call", "call", call, "err", err)
	}
}
