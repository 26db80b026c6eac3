// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"net/http"
	"strconv"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/liquidpool/amount"
	"github.com/vechain/liquidpool/chain"
)

// CallerHeader carries the id of the account invoking a pool operation.
const CallerHeader = "X-Account-Id"

// Caller returns the validated account id carried by the request.
func Caller(r *http.Request) (chain.AccountID, error) {
	raw := r.Header.Get(CallerHeader)
	if raw == "" {
		return "", Forbidden(errors.Errorf("missing %s header", CallerHeader))
	}
	id, err := chain.ParseAccountID(raw)
	if err != nil {
		return "", BadRequest(errors.WithMessage(err, "caller"))
	}
	return id, nil
}

// AccountID parses a path or body account id.
func AccountID(raw string, name string) (chain.AccountID, error) {
	id, err := chain.ParseAccountID(raw)
	if err != nil {
		return "", BadRequest(errors.WithMessage(err, name))
	}
	return id, nil
}

// Amount is a base-asset quantity in its smallest denomination, JSON encoded
// as a decimal string.
type Amount uint256.Int

// NewAmount copies x.
func NewAmount(x *uint256.Int) *Amount {
	if x == nil {
		return (*Amount)(amount.Zero())
	}
	return (*Amount)(x.Clone())
}

// Int returns the amount as uint256.
func (a *Amount) Int() *uint256.Int {
	return (*uint256.Int)(a)
}

func (a *Amount) String() string {
	return a.Int().Dec()
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(a.String())), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return errors.New("amount must be a quoted decimal string")
	}
	x, err := uint256.FromDecimal(s)
	if err != nil {
		return errors.WithMessagef(err, "amount %q", s)
	}
	*a = Amount(*x)
	return nil
}
