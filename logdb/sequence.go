// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

const indexBits = 28

// Sequence orders events globally: the epoch in the high bits and the index
// of the event within the epoch in the low 28 bits.
type Sequence int64

func NewSequence(epoch uint64, index uint32) Sequence {
	if index>>indexBits != 0 {
		panic("index too large")
	}
	if epoch>>(63-indexBits) != 0 {
		panic("epoch too large")
	}
	return Sequence(epoch<<indexBits) | Sequence(index)
}

func (s Sequence) Epoch() uint64 {
	return uint64(s) >> indexBits
}

func (s Sequence) Index() uint32 {
	return uint32(s & (1<<indexBits - 1))
}

// Next returns the sequence following s for an event stamped with epoch.
func (s Sequence) Next(epoch uint64) Sequence {
	if s < 0 || s.Epoch() != epoch {
		return NewSequence(epoch, 0)
	}
	return NewSequence(epoch, s.Index()+1)
}
