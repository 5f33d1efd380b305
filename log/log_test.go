// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"log/slog"
	"math/big"
	"testing"

	gethlog "github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
)

func TestLazyLogger(t *testing.T) {
	old := gethlog.Root()
	defer gethlog.SetDefault(old)

	logger := WithContext("pkg", "test")

	var buf bytes.Buffer
	SetDefault(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: LevelDebug}))

	logger.Debug("staked", "amount", 10)
	assert.Contains(t, buf.String(), "pkg=test")
	assert.Contains(t, buf.String(), "msg=staked")
	assert.Contains(t, buf.String(), "amount=10")

	buf.Reset()
	logger.New("epoch", 3).Info("closed")
	assert.Contains(t, buf.String(), "epoch=3")
	assert.Contains(t, buf.String(), "pkg=test")

	buf.Reset()
	logger.Trace("hidden")
	assert.Empty(t, buf.String())
	assert.False(t, logger.Enabled(LevelTrace))
	assert.True(t, logger.Enabled(LevelInfo))
}

func TestFromVerbosity(t *testing.T) {
	assert.Equal(t, LevelCrit, FromVerbosity(0))
	assert.Equal(t, LevelError, FromVerbosity(1))
	assert.Equal(t, LevelWarn, FromVerbosity(2))
	assert.Equal(t, LevelInfo, FromVerbosity(3))
	assert.Equal(t, LevelDebug, FromVerbosity(4))
	assert.Equal(t, LevelTrace, FromVerbosity(5))
	assert.Equal(t, LevelTrace, FromVerbosity(9))
}

func TestHandlerLevelChange(t *testing.T) {
	old := gethlog.Root()
	defer gethlog.SetDefault(old)

	for name, newHandler := range map[string]func(*bytes.Buffer, *slog.LevelVar) slog.Handler{
		"terminal": func(buf *bytes.Buffer, lvl *slog.LevelVar) slog.Handler { return NewTerminalHandler(buf, lvl, false) },
		"json":     func(buf *bytes.Buffer, lvl *slog.LevelVar) slog.Handler { return NewJSONHandler(buf, lvl) },
	} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			lvl := new(slog.LevelVar)
			lvl.Set(LevelInfo)
			SetDefault(newHandler(&buf, lvl))
			logger := WithContext("pkg", "test")

			logger.Debug("before")
			assert.Empty(t, buf.String())

			lvl.Set(LevelDebug)
			assert.True(t, logger.Enabled(LevelDebug))
			logger.Debug("after", "amount", big.NewInt(42))
			assert.Contains(t, buf.String(), "after")
			assert.Contains(t, buf.String(), "42")
			assert.Contains(t, buf.String(), "test")

			buf.Reset()
			lvl.Set(LevelWarn)
			logger.Info("muted")
			assert.Empty(t, buf.String())
		})
	}
}
