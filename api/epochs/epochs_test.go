// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epochs_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pozk/ledger/api/epochs"
	"github.com/pozk/ledger/test/testsys"
)

func newServer(t *testing.T) (*testsys.Sys, *httptest.Server) {
	sys := testsys.New(t)
	router := mux.NewRouter()
	epochs.New(sys.System).Mount(router, "")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return sys, ts
}

func TestEpochs(t *testing.T) {
	sys, ts := newServer(t)

	body, code := testsys.HTTPGet(t, ts.URL+"/epoch")
	require.Equal(t, http.StatusOK, code, string(body))
	var ep epochs.Epoch
	require.NoError(t, json.Unmarshal(body, &ep))
	assert.Equal(t, epochs.Epoch{Height: 0, StartedAt: 1000, Period: testsys.Period, Mode: "permissionless", Now: 1000}, ep)

	_, code = testsys.HTTPGet(t, ts.URL+"/epochs/0")
	assert.Equal(t, http.StatusNotFound, code)

	sys.Forward(testsys.Period)

	// reads see the boundary before it is committed
	body, _ = testsys.HTTPGet(t, ts.URL+"/epoch")
	require.NoError(t, json.Unmarshal(body, &ep))
	assert.Equal(t, uint64(1), ep.Height)
	assert.Equal(t, uint64(1010), ep.StartedAt)
	_, code = testsys.HTTPGet(t, ts.URL+"/epochs/0")
	assert.Equal(t, http.StatusOK, code)

	body, code = testsys.HTTPPost(t, ts.URL+"/epoch/advance", nil)
	require.Equal(t, http.StatusOK, code, string(body))
	require.NoError(t, json.Unmarshal(body, &ep))
	assert.Equal(t, uint64(1), ep.Height)
	assert.Equal(t, uint64(1010), ep.StartedAt)

	body, code = testsys.HTTPGet(t, ts.URL+"/epochs/0")
	require.Equal(t, http.StatusOK, code, string(body))
	var rec epochs.Record
	require.NoError(t, json.Unmarshal(body, &rec))
	assert.Equal(t, epochs.Record{Height: 0, StartedAt: 1000, EndedAt: 1010}, rec)

	_, code = testsys.HTTPGet(t, ts.URL+"/epochs/abc")
	assert.Equal(t, http.StatusBadRequest, code)
}
