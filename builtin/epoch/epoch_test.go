// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epoch

import (
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pozk/ledger/builtin/reverts"
	"github.com/pozk/ledger/events"
	"github.com/pozk/ledger/lvldb"
	"github.com/pozk/ledger/pozk"
	"github.com/pozk/ledger/state"
	"github.com/pozk/ledger/test/datagen"
)

func M(a ...any) []any {
	return a
}

func newEpoch(t *testing.T, dao pozk.Address) (*Epoch, *events.Buffer) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	buf := events.NewBuffer(nil)
	e := New(pozk.BytesToAddress([]byte("Epoch")), state.New(db, nil), buf)
	require.NoError(t, e.Init(1000, 60, pozk.Permissioned, []pozk.Address{dao}))
	return e, buf
}

func TestTryAdvance(t *testing.T) {
	dao := datagen.RandAddress()
	e, buf := newEpoch(t, dao)

	tests := []struct {
		now      uint64
		expected []any
		height   uint64
	}{
		{1000, M(uint64(0), false, nil), 0},
		{1059, M(uint64(0), false, nil), 0},
		{1060, M(uint64(0), true, nil), 1},
		{1060, M(uint64(0), false, nil), 1},
		{1200, M(uint64(1), true, nil), 2}, // several periods elapsed, still one step
		{1200, M(uint64(0), false, nil), 2},
		{900, M(uint64(0), false, nil), 2}, // clock behind start
		{1260, M(uint64(2), true, nil), 3},
	}
	for i, tt := range tests {
		assert.Equal(t, tt.expected, M(e.TryAdvance(tt.now)), "case %d", i)
		assert.Equal(t, M(tt.height, nil), M(e.Height()), "case %d", i)
	}

	rec, err := e.Record(1)
	assert.Nil(t, err)
	assert.Equal(t, &Record{Height: 1, StartedAt: 1060, EndedAt: 1200}, rec)

	rec, err = e.Record(3)
	assert.Nil(t, err)
	assert.Nil(t, rec)

	assert.Equal(t, M(true, nil), M(e.Closed(2)))
	assert.Equal(t, M(false, nil), M(e.Closed(3)))

	evs := buf.Drain()
	assert.Len(t, evs, 3)
	for _, ev := range evs {
		assert.Equal(t, events.EpochClosed, ev.Name)
	}
}

func TestPeek(t *testing.T) {
	e, _ := newEpoch(t, datagen.RandAddress())
	assert.Equal(t, M(uint64(0), nil), M(e.Peek(1059)))
	assert.Equal(t, M(uint64(1), nil), M(e.Peek(1060)))
	assert.Equal(t, M(uint64(0), nil), M(e.Height()))
}

func TestMonotonicHeight(t *testing.T) {
	e, _ := newEpoch(t, datagen.RandAddress())
	f := fuzz.New().NilChance(0)

	var last uint64
	for range 500 {
		var step uint16
		f.Fuzz(&step)
		started, _ := e.StartedAt()
		now := started + uint64(step%120)

		before, _ := e.Height()
		_, advanced, err := e.TryAdvance(now)
		require.NoError(t, err)
		after, _ := e.Height()

		assert.GreaterOrEqual(t, after, last)
		if advanced {
			assert.Equal(t, before+1, after)
		} else {
			assert.Equal(t, before, after)
		}
		last = after
	}
}

func TestGovernance(t *testing.T) {
	dao := datagen.RandAddress()
	stranger := datagen.RandAddress()
	e, _ := newEpoch(t, dao)

	assert.True(t, reverts.Is(e.SetPeriod(stranger, 10), reverts.AuthorizationDenied))
	assert.True(t, reverts.Is(e.SetPeriod(dao, 0), reverts.StateViolation))
	assert.Nil(t, e.SetPeriod(dao, 10))
	assert.Equal(t, M(uint64(10), nil), M(e.Period()))

	// effective for the running epoch
	assert.Equal(t, M(uint64(0), true, nil), M(e.TryAdvance(1010)))

	assert.True(t, reverts.Is(e.SetMode(stranger, pozk.Permissionless), reverts.AuthorizationDenied))
	assert.Nil(t, e.SetMode(dao, pozk.Permissionless))
	assert.Equal(t, M(pozk.Permissionless, nil), M(e.Mode()))

	assert.True(t, reverts.Is(e.AddDao(stranger, stranger, true), reverts.AuthorizationDenied))
	assert.Nil(t, e.AddDao(dao, stranger, true))
	assert.Equal(t, M(true, nil), M(e.IsDao(stranger)))
	assert.Nil(t, e.AddDao(stranger, dao, false))
	assert.Equal(t, M(false, nil), M(e.IsDao(dao)))
	assert.True(t, reverts.Is(e.RequireDao(dao), reverts.AuthorizationDenied))
}
