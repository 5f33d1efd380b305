// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"crypto/rand"
	"math/big"
	mathrand "math/rand/v2"

	"github.com/pozk/ledger/pozk"
)

func RandomHash() (b pozk.Bytes32) {
	rand.Read(b[:])
	return
}

func RandAddress() (addr pozk.Address) {
	rand.Read(addr[:])
	return
}

func RandAddresses(n int) []pozk.Address {
	addrs := make([]pozk.Address, n)
	for i := range addrs {
		addrs[i] = RandAddress()
	}
	return addrs
}

// RandAmount returns a positive amount below max.
func RandAmount(max int64) *big.Int {
	return big.NewInt(1 + mathrand.Int64N(max-1)) //#nosec G404
}

func RandIntN(n int) int {
	return mathrand.N(n) //#nosec G404
}
