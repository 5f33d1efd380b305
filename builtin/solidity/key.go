// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"encoding/binary"

	"github.com/pozk/ledger/pozk"
)

type Key interface {
	Bytes() []byte
}

// Uint64Key is a big-endian integer key.
type Uint64Key uint64

func (k Uint64Key) Bytes() []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(k))
}

// CompositeKey concatenates fixed-width key parts.
type CompositeKey []byte

func (k CompositeKey) Bytes() []byte {
	return k
}

// Compose builds a key from parts. Parts must have fixed width for the
// result to be unambiguous.
func Compose(parts ...Key) CompositeKey {
	var k []byte
	for _, p := range parts {
		k = append(k, p.Bytes()...)
	}
	return k
}

// RoleKey is a one byte role key part.
type RoleKey pozk.Role

func (k RoleKey) Bytes() []byte {
	return []byte{byte(k)}
}

// Slot derives a storage position from a name.
func Slot(name string) pozk.Bytes32 {
	return pozk.BytesToBytes32([]byte(name))
}
