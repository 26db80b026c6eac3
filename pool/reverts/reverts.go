// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Kind classifies why a pool operation was rejected.
type Kind uint8

const (
	Precondition Kind = iota
	Busy
	Unauthorized
	Arithmetic
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Precondition:
		return "precondition"
	case Busy:
		return "busy"
	case Unauthorized:
		return "unauthorized"
	case Arithmetic:
		return "arithmetic"
	case NotFound:
		return "not found"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ErrRevert is a rejection of a pool operation. A rejected operation leaves
// no state change behind.
type ErrRevert struct {
	kind    Kind
	message string
}

func New(kind Kind, message string) *ErrRevert {
	return &ErrRevert{kind: kind, message: message}
}

func Newf(kind Kind, format string, args ...any) *ErrRevert {
	return New(kind, fmt.Sprintf(format, args...))
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

func IsRevertErr(err any) bool {
	_, ok := As(err)
	return ok
}

// As returns the revert carried by err, if any.
func As(err any) (*ErrRevert, bool) {
	if err == nil {
		return nil, false
	}
	e, ok := err.(error)
	if !ok {
		return nil, false
	}
	var ve *ErrRevert
	if errors.As(e, &ve) {
		return ve, true
	}
	return nil, false
}

// IsKind returns true if err is a revert of the given kind.
func IsKind(err error, kind Kind) bool {
	ve, ok := As(err)
	return ok && ve.kind == kind
}
