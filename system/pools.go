// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package system

import (
	"math/big"

	"github.com/pozk/ledger/builtin/reward"
	"github.com/pozk/ledger/cache"
	"github.com/pozk/ledger/pozk"
)

type poolKey struct {
	epoch  uint64
	prover pozk.Address
}

// cachedSizer serves pool sizes of closed epochs from a shared LRU. Inputs
// of a closed epoch's pool never change, so entries stay valid. Sizes computed
// during a session are held back until the session is committed.
type cachedSizer struct {
	inner reward.PoolSizer
	clock reward.Clock
	lru   *cache.LRU[poolKey, *big.Int]
	fresh map[poolKey]*big.Int
}

func newCachedSizer(inner reward.PoolSizer, clock reward.Clock, lru *cache.LRU[poolKey, *big.Int]) *cachedSizer {
	return &cachedSizer{inner: inner, clock: clock, lru: lru}
}

func (c *cachedSizer) Pool(epoch uint64, prover pozk.Address) (*big.Int, error) {
	h, err := c.clock.Height()
	if err != nil {
		return nil, err
	}
	if epoch >= h {
		return c.inner.Pool(epoch, prover)
	}
	key := poolKey{epoch, prover}
	if v, ok := c.fresh[key]; ok {
		return new(big.Int).Set(v), nil
	}
	if v, ok := c.lru.Get(key); ok {
		return new(big.Int).Set(v), nil
	}
	v, err := c.inner.Pool(epoch, prover)
	if err != nil {
		return nil, err
	}
	if c.fresh == nil {
		c.fresh = make(map[poolKey]*big.Int)
	}
	c.fresh[key] = new(big.Int).Set(v)
	return v, nil
}

// publish moves sizes computed in this session into the shared cache.
func (c *cachedSizer) publish() {
	if c == nil {
		return
	}
	for k, v := range c.fresh {
		c.lru.Add(k, v)
	}
	c.fresh = nil
}
