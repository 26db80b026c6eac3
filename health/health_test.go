// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth_NoTickYet(t *testing.T) {
	h := New(time.Minute, func() int { return 3 })

	status, err := h.Status()
	require.NoError(t, err)
	assert.False(t, status.Healthy)
	assert.Nil(t, status.KeeperTick)
	assert.Equal(t, 3, status.PendingOps)
}

func TestHealth_KeeperTicked(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	h := New(time.Minute, nil)
	h.now = func() time.Time { return now }

	h.KeeperTicked(12, errors.New("pool is busy"))
	status, err := h.Status()
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	require.NotNil(t, status.KeeperTick)
	assert.Equal(t, uint64(12), status.KeeperTick.Epoch)
	assert.Equal(t, "pool is busy", status.KeeperTick.Error)

	now = now.Add(2 * time.Minute)
	status, err = h.Status()
	require.NoError(t, err)
	assert.False(t, status.Healthy)

	h.KeeperTicked(13, nil)
	status, err = h.Status()
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Empty(t, status.KeeperTick.Error)
}
