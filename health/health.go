// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"sync"
	"time"
)

type Status struct {
	Healthy     bool       `json:"healthy"`
	Height      uint64     `json:"height"`
	LastAdvance *time.Time `json:"lastAdvance"`
}

// Health tracks whether the epoch ticker is still making progress.
type Health struct {
	lock        sync.RWMutex
	lastAdvance time.Time
	height      uint64
	maxSilence  time.Duration
}

func New(maxSilence time.Duration) *Health {
	return &Health{maxSilence: maxSilence}
}

// Advanced records a successful tick observing height.
func (h *Health) Advanced(height uint64) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.lastAdvance = time.Now()
	h.height = height
}

// Status reports unhealthy until the first tick and whenever the last one
// is older than maxSilence. A non-positive maxSilence uses the configured one.
func (h *Health) Status(maxSilence time.Duration) *Status {
	h.lock.RLock()
	defer h.lock.RUnlock()

	if maxSilence <= 0 {
		maxSilence = h.maxSilence
	}
	status := &Status{Height: h.height}
	if !h.lastAdvance.IsZero() {
		last := h.lastAdvance
		status.LastAdvance = &last
		status.Healthy = time.Since(last) <= maxSilence
	}
	return status
}
