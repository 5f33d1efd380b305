// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"fmt"
	"sync"

	"github.com/pozk/ledger/cache"
	"github.com/pozk/ledger/logdb"
)

// messageCache shares encoded event messages between subscribers.
type messageCache struct {
	cache *cache.LRU[logdb.Sequence, []byte]
	mu    sync.Mutex
}

func newMessageCache(cacheSize uint32) *messageCache {
	if cacheSize > 1000 {
		cacheSize = 1000
	}
	if cacheSize == 0 {
		cacheSize = 1
	}
	c, err := cache.NewLRU[logdb.Sequence, []byte](int(cacheSize))
	if err != nil {
		// only fails for a non-positive size
		panic(fmt.Errorf("failed to create message cache: %v", err))
	}
	return &messageCache{cache: c}
}

// GetOrAdd returns the message of the event at seq, creating it on a miss.
// The second return value indicates whether the message is newly generated.
func (mc *messageCache) GetOrAdd(seq logdb.Sequence, createMessage func() ([]byte, error)) ([]byte, bool, error) {
	if msg, ok := mc.cache.Get(seq); ok {
		return msg, false, nil
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()
	if msg, ok := mc.cache.Get(seq); ok {
		return msg, false, nil
	}
	msg, err := createMessage()
	if err != nil {
		return nil, false, err
	}
	mc.cache.Add(seq, msg)
	return msg, true, nil
}
