// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import "sync/atomic"

// Stats counts cache lookups.
type Stats struct {
	hit, miss atomic.Int64
	rate      atomic.Int32
}

// Hit records a hit and returns the total.
func (s *Stats) Hit() int64 { return s.hit.Add(1) }

// Miss records a miss and returns the total.
func (s *Stats) Miss() int64 { return s.miss.Add(1) }

// Snapshot returns the counters and whether the hit rate, in permille,
// moved since the previous snapshot.
func (s *Stats) Snapshot() (changed bool, hit, miss int64) {
	hit = s.hit.Load()
	miss = s.miss.Load()

	var rate int32
	if lookups := hit + miss; lookups > 0 {
		rate = int32(hit * 1000 / lookups)
	}
	return s.rate.Swap(rate) != rate, hit, miss
}
