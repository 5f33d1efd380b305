// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package system

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pozk/ledger/events"
	"github.com/pozk/ledger/lvldb"
	"github.com/pozk/ledger/state"
)

func TestCommitFailsOnUnstampedEvent(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := New(db, nil, state.NewCache(1), Options{Now: func() uint64 { return 1000 }})
	require.NoError(t, err)
	head := s.Head()

	ss := s.newSession()
	ss.stampErr = errors.New("storage unavailable")
	ss.buf.Add(&events.Event{Name: events.Staked})

	err = s.commit(ss, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stamp event epoch")
	assert.Contains(t, err.Error(), "storage unavailable")
	assert.Equal(t, head, s.Head())

	evs, err := s.EventsAfter(head, 10)
	require.NoError(t, err)
	assert.Empty(t, evs)
}
