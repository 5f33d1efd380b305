// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer(t *testing.T) {
	epoch := uint64(4)
	buf := NewBuffer(func() uint64 { return epoch })

	buf.Add(&Event{Name: Staked})
	epoch = 5
	buf.Add((&Event{Name: Unstaked}).WithData(map[string]int{"n": 1}))
	buf.Add(&Event{Name: Claimed})
	assert.Equal(t, 3, buf.Len())

	buf.Truncate(2)
	assert.Equal(t, 2, buf.Len())

	list := buf.Drain()
	assert.Equal(t, 0, buf.Len())
	if assert.Len(t, list, 2) {
		assert.Equal(t, uint64(4), list[0].Epoch)
		assert.Equal(t, uint64(5), list[1].Epoch)
		assert.JSONEq(t, `{"n":1}`, string(list[1].Data))
	}
}

func TestNilBuffer(t *testing.T) {
	var buf *Buffer
	assert.NotPanics(t, func() { buf.Add(&Event{Name: Staked}) })
}
