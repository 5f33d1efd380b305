// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"time"

	"github.com/pozk/ledger/health"
	"github.com/pozk/ledger/log"
	"github.com/pozk/ledger/system"
)

type advancer interface {
	Advance() (*system.EpochInfo, error)
}

// runTicker commits due epoch boundaries every interval until ctx is done.
// Operations tick the clock themselves, so this only keeps an idle ledger
// from lagging behind wall time. h may be nil.
func runTicker(ctx context.Context, adv advancer, h *health.Health, interval time.Duration) error {
	if interval <= 0 {
		interval = defaultTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var height uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			info, err := adv.Advance()
			if err != nil {
				log.Warn("failed to advance epoch", "err", err)
				continue
			}
			if h != nil {
				h.Advanced(info.Height)
			}
			if info.Height != height {
				log.Info("epoch advanced", "height", info.Height, "startedAt", info.StartedAt)
				height = info.Height
			}
		}
	}
}
