// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package cache holds in-process caches for values that never change once
// their epoch is closed.
package cache

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

// LRU is a typed LRU cache over golang-lru that counts hits and misses.
type LRU[K comparable, V any] struct {
	inner *lru.Cache
	stats Stats
}

// NewLRU creates a cache holding at most size entries.
// size should be > 0, or an error returned.
func NewLRU[K comparable, V any](size int) (*LRU[K, V], error) {
	inner, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "new lru")
	}
	return &LRU[K, V]{inner: inner}, nil
}

// Get returns the cached value for key.
func (l *LRU[K, V]) Get(key K) (V, bool) {
	if v, ok := l.inner.Get(key); ok {
		l.stats.Hit()
		return v.(V), true
	}
	l.stats.Miss()
	var zero V
	return zero, false
}

// Add stores the value for key, evicting the oldest entry when full.
func (l *LRU[K, V]) Add(key K, val V) {
	l.inner.Add(key, val)
}

// Len returns the count of cached entries.
func (l *LRU[K, V]) Len() int {
	return l.inner.Len()
}

// Purge drops every entry.
func (l *LRU[K, V]) Purge() {
	l.inner.Purge()
}

// GetOrLoad first tries the cache, and calls load on a miss.
// Values loaded with an error are not cached.
func (l *LRU[K, V]) GetOrLoad(key K, load func(K) (V, error)) (V, error) {
	if v, ok := l.Get(key); ok {
		return v, nil
	}
	v, err := load(key)
	if err != nil {
		return v, err
	}
	l.Add(key, v)
	return v, nil
}

// Stats returns the hit/miss counters.
func (l *LRU[K, V]) Stats() *Stats {
	return &l.stats
}
