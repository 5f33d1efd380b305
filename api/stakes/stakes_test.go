// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes_test

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pozk/ledger/api/stakes"
	"github.com/pozk/ledger/pozk"
	"github.com/pozk/ledger/test/testsys"
)

func newServer(t *testing.T) (*testsys.Sys, *httptest.Server) {
	sys := testsys.New(t)
	router := mux.NewRouter()
	stakes.New(sys.System).Mount(router, "/stakes")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return sys, ts
}

func TestStakes(t *testing.T) {
	sys, ts := newServer(t)
	sys.StakeAll()
	require.NoError(t, sys.Unstake(testsys.Miner, pozk.RoleMiner, testsys.Prover, big.NewInt(100)))

	body, code := testsys.HTTPGet(t, ts.URL+"/stakes/"+testsys.Miner.String())
	require.Equal(t, http.StatusOK, code, string(body))
	var acc stakes.Account
	require.NoError(t, json.Unmarshal(body, &acc))
	require.Len(t, acc.Positions, 1)
	pos := acc.Positions[0]
	assert.Equal(t, "miner", pos.Role)
	require.NotNil(t, pos.Subject)
	assert.Equal(t, testsys.Prover, *pos.Subject)
	assert.Zero(t, (*big.Int)(pos.Staked).Sign())
	assert.Equal(t, int64(100), (*big.Int)(pos.Unstaking).Int64())
	assert.Equal(t, uint64(1), pos.UnstakingReadyAt)
	assert.Zero(t, (*big.Int)(acc.Claimable).Sign())

	body, _ = testsys.HTTPGet(t, ts.URL+"/stakes/"+testsys.Player.String())
	require.NoError(t, json.Unmarshal(body, &acc))
	require.Len(t, acc.Positions, 1)
	assert.Equal(t, "player", acc.Positions[0].Role)
	assert.Nil(t, acc.Positions[0].Subject)

	// unstaked amount matures at the next epoch
	sys.Forward(testsys.Period)
	body, code = testsys.HTTPGet(t, ts.URL+"/stakes/"+testsys.Miner.String()+"/claimable")
	require.Equal(t, http.StatusOK, code, string(body))
	var res struct {
		Claimable *math.HexOrDecimal256 `json:"claimable"`
	}
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, int64(100), (*big.Int)(res.Claimable).Int64())

	_, code = testsys.HTTPGet(t, ts.URL+"/stakes/nobody")
	assert.Equal(t, http.StatusBadRequest, code)
}
