// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package httpclient talks to a validator gateway over JSON/HTTP.
//
// Calls that move funds are sent once; whether a failed one took effect is
// for the pool to compensate. Read-only calls are retried with exponential
// backoff.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/sethvargo/go-retry"

	"github.com/vechain/liquidpool/chain"
	"github.com/vechain/liquidpool/remote"
)

var (
	_ remote.Client = (*Client)(nil)
	_ remote.Bank   = (*Client)(nil)
)

// Options configure a Client.
type Options struct {
	Timeout      time.Duration // per request
	ReadRetries  uint64        // extra attempts of read-only calls
	RetryBackoff time.Duration // first retry delay, doubled on every attempt
}

// DefaultOptions returns the options used by the daemon.
func DefaultOptions() Options {
	return Options{
		Timeout:      10 * time.Second,
		ReadRetries:  3,
		RetryBackoff: 200 * time.Millisecond,
	}
}

// Client is a remote.Client and remote.Bank backed by a gateway URL.
type Client struct {
	baseURL string
	http    *http.Client
	opts    Options
}

// New creates a client of the gateway at baseURL.
func New(baseURL string, opts Options) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse gateway url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("unsupported gateway scheme %q", u.Scheme)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: opts.Timeout},
		opts:    opts,
	}, nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway status %d: %s", e.Code, e.Message)
}

type amountRequest struct {
	Amount string `json:"amount"`
}

type transferRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type balanceResponse struct {
	Balance string `json:"balance"`
}

type accountResponse struct {
	Staked      string `json:"staked"`
	Unstaked    string `json:"unstaked"`
	CanWithdraw bool   `json:"canWithdraw"`
}

func validatorPath(id chain.AccountID, action string) string {
	return "/validators/" + url.PathEscape(id.String()) + "/" + action
}

func (c *Client) DepositAndStake(ctx context.Context, validator chain.AccountID, amount *uint256.Int) error {
	return c.do(ctx, http.MethodPost, validatorPath(validator, "deposit-and-stake"), &amountRequest{amount.Dec()}, nil)
}

func (c *Client) Unstake(ctx context.Context, validator chain.AccountID, amount *uint256.Int) error {
	return c.do(ctx, http.MethodPost, validatorPath(validator, "unstake"), &amountRequest{amount.Dec()}, nil)
}

func (c *Client) WithdrawAll(ctx context.Context, validator chain.AccountID) error {
	return c.do(ctx, http.MethodPost, validatorPath(validator, "withdraw-all"), nil, nil)
}

func (c *Client) GetStakedBalance(ctx context.Context, validator chain.AccountID) (*uint256.Int, error) {
	var res balanceResponse
	if err := c.read(ctx, validatorPath(validator, "staked-balance"), &res); err != nil {
		return nil, err
	}
	balance, err := uint256.FromDecimal(res.Balance)
	if err != nil {
		return nil, errors.Wrapf(err, "decode balance %q", res.Balance)
	}
	return balance, nil
}

func (c *Client) GetAccount(ctx context.Context, validator chain.AccountID) (*remote.Account, error) {
	var res accountResponse
	if err := c.read(ctx, validatorPath(validator, "account"), &res); err != nil {
		return nil, err
	}
	staked, err := uint256.FromDecimal(res.Staked)
	if err != nil {
		return nil, errors.Wrapf(err, "decode staked %q", res.Staked)
	}
	unstaked, err := uint256.FromDecimal(res.Unstaked)
	if err != nil {
		return nil, errors.Wrapf(err, "decode unstaked %q", res.Unstaked)
	}
	acc := &remote.Account{CanWithdraw: res.CanWithdraw}
	acc.Staked.Set(staked)
	acc.Unstaked.Set(unstaked)
	return acc, nil
}

func (c *Client) Transfer(ctx context.Context, to chain.AccountID, amount *uint256.Int) error {
	return c.do(ctx, http.MethodPost, "/transfers", &transferRequest{To: to.String(), Amount: amount.Dec()}, nil)
}

// read performs a GET, retrying transport failures and 5xx responses.
func (c *Client) read(ctx context.Context, path string, res any) error {
	backoff := retry.WithMaxRetries(c.opts.ReadRetries, retry.NewExponential(c.opts.RetryBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.do(ctx, http.MethodGet, path, nil, res)
		if err == nil {
			return nil
		}
		var se *StatusError
		if errors.As(err, &se) && se.Code < http.StatusInternalServerError {
			return err
		}
		return retry.RetryableError(err)
	})
}

func (c *Client) do(ctx context.Context, method, path string, req, res any) error {
	var body io.Reader
	if req != nil {
		data, err := json.Marshal(req)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.WithMessagef(&StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(msg))}, "%s %s", method, path)
	}
	if res == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(res); err != nil {
		return errors.Wrapf(err, "decode %s response", path)
	}
	return nil
}
