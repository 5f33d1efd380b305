// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pozk

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
)

// ParseAmount parses a decimal or 0x-prefixed hex amount.
func ParseAmount(s string) (*big.Int, error) {
	v, ok := math.ParseBig256(s)
	if !ok {
		return nil, errors.New("invalid amount")
	}
	return v, nil
}

// MinBig returns a copy of the smaller of a and b.
func MinBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}

// Zero returns a fresh zero value.
func Zero() *big.Int {
	return new(big.Int)
}
