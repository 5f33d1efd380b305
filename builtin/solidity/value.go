// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/pozk/ledger/pozk"
)

// Value stores one rlp encoded value at a fixed position.
type Value[V any] struct {
	context *Context
	pos     pozk.Bytes32
}

func NewValue[V any](context *Context, pos pozk.Bytes32) *Value[V] {
	return &Value[V]{context: context, pos: pos}
}

func (v *Value[V]) Get() (value V, err error) {
	err = v.context.state.DecodeStorage(v.context.address, v.pos, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

func (v *Value[V]) Set(value V) error {
	return v.context.state.EncodeStorage(v.context.address, v.pos, func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

// Uint256 stores a non-negative big integer, similar to an uint256 state variable.
type Uint256 struct {
	v *Value[*big.Int]
}

func NewUint256(context *Context, pos pozk.Bytes32) *Uint256 {
	return &Uint256{NewValue[*big.Int](context, pos)}
}

func (u *Uint256) Get() (*big.Int, error) {
	value, err := u.v.Get()
	if err != nil {
		return nil, err
	}
	if value == nil {
		return new(big.Int), nil
	}
	return value, nil
}

func (u *Uint256) Set(value *big.Int) error {
	return u.v.Set(value)
}

func (u *Uint256) Add(value *big.Int) error {
	current, err := u.Get()
	if err != nil {
		return err
	}
	return u.Set(current.Add(current, value))
}

func (u *Uint256) Sub(value *big.Int) error {
	current, err := u.Get()
	if err != nil {
		return err
	}
	return u.Set(current.Sub(current, value))
}
