// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"slices"
	"sync/atomic"

	"github.com/qianbin/directcache"
)

// Cache keeps recently read or committed slot values in memory.
// A nil *Cache is valid and caches nothing.
type Cache struct {
	slots     *directcache.Cache
	hit, miss atomic.Int64
}

// NewCache creates a cache with the given size in megabytes.
func NewCache(sizeMB int) *Cache {
	if sizeMB <= 0 {
		return nil
	}
	return &Cache{slots: directcache.New(sizeMB * 1024 * 1024)}
}

// Get returns a copy of the cached value.
func (c *Cache) Get(key []byte) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	var val []byte
	if c.slots.AdvGet(key, func(v []byte) {
		val = slices.Clone(v)
	}, false) {
		c.hit.Add(1)
		return val, true
	}
	c.miss.Add(1)
	return nil, false
}

// Set stores the value; an empty value records an absent slot.
func (c *Cache) Set(key, val []byte) {
	if c == nil {
		return
	}
	_ = c.slots.Set(key, val)
}

// Stats returns hit and miss counters.
func (c *Cache) Stats() (hit, miss int64) {
	if c == nil {
		return 0, 0
	}
	return c.hit.Load(), c.miss.Load()
}
