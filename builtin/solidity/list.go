// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/pozk/ledger/pozk"
)

// List is an append-only array keyed by an owner key, like a dynamic array
// inside a Solidity mapping.
type List[K Key, V any] struct {
	lengths *Mapping[K, uint64]
	items   *Mapping[CompositeKey, V]
}

func NewList[K Key, V any](context *Context, pos pozk.Bytes32) *List[K, V] {
	return &List[K, V]{
		lengths: NewMapping[K, uint64](context, pozk.Blake2b(pos.Bytes(), []byte("len"))),
		items:   NewMapping[CompositeKey, V](context, pozk.Blake2b(pos.Bytes(), []byte("items"))),
	}
}

func (l *List[K, V]) Len(owner K) (uint64, error) {
	return l.lengths.Get(owner)
}

func (l *List[K, V]) Get(owner K, index uint64) (V, error) {
	return l.items.Get(Compose(owner, Uint64Key(index)))
}

func (l *List[K, V]) Append(owner K, value V) error {
	n, err := l.lengths.Get(owner)
	if err != nil {
		return err
	}
	if err := l.items.Set(Compose(owner, Uint64Key(n)), value); err != nil {
		return err
	}
	return l.lengths.Set(owner, n+1)
}

// All returns every element in insertion order.
func (l *List[K, V]) All(owner K) ([]V, error) {
	n, err := l.lengths.Get(owner)
	if err != nil {
		return nil, err
	}
	all := make([]V, 0, n)
	for i := range n {
		v, err := l.Get(owner, i)
		if err != nil {
			return nil, err
		}
		all = append(all, v)
	}
	return all, nil
}
