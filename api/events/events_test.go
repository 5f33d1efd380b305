// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events_test

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apievents "github.com/pozk/ledger/api/events"
	"github.com/pozk/ledger/events"
	"github.com/pozk/ledger/logdb"
	"github.com/pozk/ledger/pozk"
)

const limit = 5

var (
	stakeAddr = pozk.BytesToAddress([]byte("Stake"))
	alice     = pozk.BytesToAddress([]byte("alice"))
	bob       = pozk.BytesToAddress([]byte("bob"))
)

func newServer(t *testing.T, n int) *httptest.Server {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	w, err := db.NewWriter()
	require.NoError(t, err)
	seq := logdb.Sequence(-1)
	for i := range n {
		epoch := uint64(i / 3)
		seq = seq.Next(epoch)
		account := alice
		if i%2 == 1 {
			account = bob
		}
		require.NoError(t, w.Write(seq, &events.Event{
			Name:     events.Staked,
			Epoch:    epoch,
			Contract: stakeAddr,
			Account:  account,
			Role:     pozk.RolePlayer,
			Amount:   big.NewInt(int64(i + 1)),
		}))
	}
	require.NoError(t, w.Commit())

	router := mux.NewRouter()
	apievents.New(db, limit).Mount(router, "/logs/event")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, body any) (*http.Response, []byte) {
	data, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := http.Post(ts.URL+"/logs/event", "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer res.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(res.Body)
	require.NoError(t, err)
	return res, buf.Bytes()
}

func TestFilter(t *testing.T) {
	ts := newServer(t, 4)

	res, body := post(t, ts, apievents.EventFilter{})
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	var list []*apievents.Event
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 4)
	assert.Equal(t, "player", list[0].Role)
	assert.Equal(t, int64(1), (*big.Int)(list[0].Amount).Int64())

	role := "player"
	res, body = post(t, ts, apievents.EventFilter{
		CriteriaSet: []*apievents.EventCriteria{{Account: &bob, Role: &role}},
		Order:       logdb.DESC,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	list = nil
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 2)
	assert.Greater(t, list[0].Seq, list[1].Seq)

	from := uint64(1)
	res, body = post(t, ts, apievents.EventFilter{Range: &apievents.Range{From: &from}})
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	list = nil
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, uint64(1), list[0].Epoch)
}

func TestFilterLimits(t *testing.T) {
	ts := newServer(t, limit+1)

	res, _ := post(t, ts, apievents.EventFilter{})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, _ = post(t, ts, apievents.EventFilter{Options: &apievents.Options{Limit: limit + 1}})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, body := post(t, ts, apievents.EventFilter{Options: &apievents.Options{Offset: 1, Limit: limit}})
	require.Equal(t, http.StatusOK, res.StatusCode)
	var list []*apievents.Event
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, limit)
}

func TestFilterBadRequests(t *testing.T) {
	ts := newServer(t, 1)
	from, to := uint64(2), uint64(1)
	bad := "nobody"

	for _, body := range []any{
		map[string]any{"unknown": 1},
		apievents.EventFilter{Range: &apievents.Range{From: &from, To: &to}},
		apievents.EventFilter{CriteriaSet: []*apievents.EventCriteria{nil}},
		apievents.EventFilter{CriteriaSet: []*apievents.EventCriteria{{Role: &bad}}},
		apievents.EventFilter{Order: "sideways"},
	} {
		res, _ := post(t, ts, body)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode, "%+v", body)
	}
}

func TestMatch(t *testing.T) {
	name := events.Staked
	ev := &logdb.Event{Event: &events.Event{Name: events.Staked, Account: alice, Role: pozk.RolePlayer}}

	assert.True(t, apievents.Match(nil, ev))
	assert.True(t, apievents.Match([]*logdb.EventCriteria{{Name: &name}}, ev))
	assert.False(t, apievents.Match([]*logdb.EventCriteria{{Account: &bob}}, ev))
	assert.True(t, apievents.Match([]*logdb.EventCriteria{{Account: &bob}, {Account: &alice}}, ev))
}
