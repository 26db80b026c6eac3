// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func Test_Reverts(t *testing.T) {
	revert := New(Busy, "test")
	assert.Equal(t, "test", revert.message)
	assert.Equal(t, revert.Error(), revert.message)
	assert.Equal(t, Busy, revert.Kind())

	assert.True(t, IsRevertErr(revert))
	assert.True(t, IsRevertErr(errors.Wrap(revert, "wrapped")))
	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr(fmt.Errorf("test")))
	assert.False(t, IsRevertErr(big.NewInt(0)))

	assert.True(t, IsKind(errors.Wrap(revert, "wrapped"), Busy))
	assert.False(t, IsKind(revert, NotFound))
	assert.False(t, IsKind(fmt.Errorf("test"), Busy))
}

func TestNewf(t *testing.T) {
	err := Newf(Precondition, "amount %d below %d", 1, 2)
	assert.Equal(t, "amount 1 below 2", err.Error())
	assert.Equal(t, "precondition", err.Kind().String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}
