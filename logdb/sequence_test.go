// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequence(t *testing.T) {
	tests := []struct {
		epoch uint64
		index uint32
	}{
		{0, 0},
		{1, 1},
		{1 << 34, 1<<indexBits - 1},
		{1<<(63-indexBits) - 1, 7},
	}
	for _, tt := range tests {
		s := NewSequence(tt.epoch, tt.index)
		assert.Equal(t, tt.epoch, s.Epoch())
		assert.Equal(t, tt.index, s.Index())
		assert.True(t, s >= 0)
	}

	assert.Panics(t, func() { NewSequence(0, 1<<indexBits) })
	assert.Panics(t, func() { NewSequence(1<<(63-indexBits), 0) })
}

func TestSequenceNext(t *testing.T) {
	assert.Equal(t, NewSequence(0, 0), Sequence(-1).Next(0))
	assert.Equal(t, NewSequence(3, 5), NewSequence(3, 4).Next(3))
	assert.Equal(t, NewSequence(4, 0), NewSequence(3, 4).Next(4))
	assert.True(t, NewSequence(3, 4) < NewSequence(4, 0))
}
