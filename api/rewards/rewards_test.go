// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards_test

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pozk/ledger/api/rewards"
	"github.com/pozk/ledger/pozk"
	"github.com/pozk/ledger/test/testsys"
)

func newServer(t *testing.T) (*testsys.Sys, *httptest.Server) {
	sys := testsys.New(t)
	router := mux.NewRouter()
	rewards.New(sys.System).Mount(router, "/rewards")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return sys, ts
}

func TestRewards(t *testing.T) {
	sys, ts := newServer(t)
	sys.StakeAll()
	sys.Work(1)

	url := ts.URL + "/rewards/0/" + testsys.Prover.String() + "/" + testsys.Miner.String()
	body, code := testsys.HTTPGet(t, url)
	require.Equal(t, http.StatusOK, code, string(body))
	var r rewards.Reward
	require.NoError(t, json.Unmarshal(body, &r))
	assert.False(t, r.Final)
	assert.Equal(t, "miner", r.Role)

	sys.Tick()

	// one task earns 18% of the miner half of the issuance
	body, _ = testsys.HTTPGet(t, url)
	require.NoError(t, json.Unmarshal(body, &r))
	assert.True(t, r.Final)
	assert.False(t, r.Collected)
	assert.Equal(t, int64(90), (*big.Int)(r.Base).Int64())
	assert.Zero(t, (*big.Int)(r.Extra).Sign())
	assert.Nil(t, r.Token)

	_, err := sys.Collect(0, testsys.Prover, testsys.Miner, pozk.RoleMiner)
	require.NoError(t, err)
	body, _ = testsys.HTTPGet(t, url)
	require.NoError(t, json.Unmarshal(body, &r))
	assert.True(t, r.Collected)

	body, _ = testsys.HTTPGet(t, ts.URL+"/rewards/0/"+testsys.Prover.String()+"/"+testsys.Player.String()+"?role=player")
	require.NoError(t, json.Unmarshal(body, &r))
	assert.Equal(t, "player", r.Role)
	assert.Equal(t, int64(90), (*big.Int)(r.Base).Int64())

	_, code = testsys.HTTPGet(t, url+"?role=judge")
	assert.Equal(t, http.StatusBadRequest, code)
	// the prover role earns no task rewards
	_, code = testsys.HTTPGet(t, url+"?role=prover")
	assert.Equal(t, http.StatusConflict, code)
}
