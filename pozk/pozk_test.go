// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pozk_test

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pozk/ledger/pozk"
)

func TestParseAddress(t *testing.T) {
	want := pozk.BytesToAddress([]byte{0xab, 0xcd})

	tests := []struct {
		in string
		ok bool
	}{
		{"0x000000000000000000000000000000000000abcd", true},
		{"0X000000000000000000000000000000000000ABCD", true},
		{"000000000000000000000000000000000000abcd", true},
		{"1x000000000000000000000000000000000000abcd", false},
		{"0x00abcd", false},
		{"0x00000000000000000000000000000000000zabcd", false},
		{"", false},
	}
	for _, tt := range tests {
		got, err := pozk.ParseAddress(tt.in)
		if tt.ok {
			require.NoError(t, err, tt.in)
			assert.Equal(t, want, got, tt.in)
		} else {
			assert.Error(t, err, tt.in)
		}
	}
	assert.Panics(t, func() { pozk.MustParseAddress("nope") })
}

func TestAddressText(t *testing.T) {
	addr := pozk.BytesToAddress([]byte("miner"))
	data, err := json.Marshal(addr)
	require.NoError(t, err)
	assert.Equal(t, `"`+addr.String()+`"`, string(data))

	var back pozk.Address
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, addr, back)
	assert.False(t, back.IsZero())
	assert.True(t, pozk.Address{}.IsZero())
}

func TestRoleAndMode(t *testing.T) {
	for _, r := range []pozk.Role{pozk.RoleProver, pozk.RoleMiner, pozk.RolePlayer} {
		assert.True(t, r.Valid())
		parsed, err := pozk.ParseRole(" " + r.String() + " ")
		require.NoError(t, err)
		assert.Equal(t, r, parsed)
	}
	assert.False(t, pozk.Role(0).Valid())
	assert.Equal(t, "unknown", pozk.Role(9).String())
	assert.True(t, pozk.RoleMiner.HasSubject())
	assert.False(t, pozk.RolePlayer.HasSubject())
	_, err := pozk.ParseRole("judge")
	assert.Error(t, err)

	for _, m := range []pozk.Mode{pozk.Permissioned, pozk.Permissionless} {
		parsed, err := pozk.ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
	_, err = pozk.ParseMode("open")
	assert.Error(t, err)
}

func TestAmounts(t *testing.T) {
	v, err := pozk.ParseAmount("0x10")
	require.NoError(t, err)
	assert.Equal(t, int64(16), v.Int64())
	v, err = pozk.ParseAmount("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Int64())
	_, err = pozk.ParseAmount("-")
	assert.Error(t, err)

	a, b := big.NewInt(3), big.NewInt(5)
	m := pozk.MinBig(a, b)
	assert.Equal(t, int64(3), m.Int64())
	m.SetInt64(7)
	assert.Equal(t, int64(3), a.Int64())
	assert.Equal(t, 0, pozk.Zero().Sign())
}
