// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vesting

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pozk/ledger/builtin/reverts"
	"github.com/pozk/ledger/builtin/token"
	"github.com/pozk/ledger/events"
	"github.com/pozk/ledger/lvldb"
	"github.com/pozk/ledger/pozk"
	"github.com/pozk/ledger/state"
	"github.com/pozk/ledger/test/datagen"
)

type gov pozk.Address

func (g gov) RequireDao(caller pozk.Address) error {
	if caller != pozk.Address(g) {
		return reverts.Denied("dao only")
	}
	return nil
}

var base = pozk.BytesToAddress([]byte("base"))

func TestReserveAndRelease(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	st := state.New(db, nil)
	buf := events.NewBuffer(nil)
	bank := token.New(pozk.BytesToAddress([]byte("Token")), st, buf)
	dao := datagen.RandAddress()
	v := New(pozk.BytesToAddress([]byte("Vesting")), st, buf, base, gov(dao), bank)

	funder := datagen.RandAddress()
	require.NoError(t, bank.Mint(base, funder, big.NewInt(250)))
	require.NoError(t, v.ApproveForReward(funder, big.NewInt(250)))
	assert.True(t, reverts.Is(v.ApproveForReward(funder, big.NewInt(1)), reverts.InsufficientBalance))

	assert.True(t, reverts.Is(v.SetIssuance(funder, big.NewInt(100)), reverts.AuthorizationDenied))
	require.NoError(t, v.SetIssuance(dao, big.NewInt(100)))

	for e, want := range []int64{100, 100, 50, 0} {
		got, err := v.Reserve(uint64(e))
		require.NoError(t, err)
		assert.Equal(t, want, got.Int64(), "epoch %d", e)
	}
	_, err = v.Reserve(0)
	assert.True(t, reverts.Is(err, reverts.AlreadySettled))

	to := datagen.RandAddress()
	require.NoError(t, v.Release(2, to, big.NewInt(30)))
	require.NoError(t, v.Release(2, to, big.NewInt(20)))
	assert.True(t, reverts.Is(v.Release(2, to, big.NewInt(1)), reverts.InsufficientBalance))
	assert.True(t, reverts.Is(v.Release(3, to, big.NewInt(1)), reverts.InsufficientBalance))

	bal, err := bank.Balance(base, to)
	require.NoError(t, err)
	assert.Equal(t, int64(50), bal.Int64())

	unreserved, err := v.Unreserved()
	require.NoError(t, err)
	assert.Zero(t, unreserved.Sign())
}
