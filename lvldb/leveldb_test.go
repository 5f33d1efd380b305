// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pozk/ledger/kv"
)

func TestLevelDB(t *testing.T) {
	db, err := New(t.TempDir(), Options{})
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Get([]byte("missing"))
	assert.True(t, db.IsNotFound(err))

	assert.Nil(t, db.Put([]byte("k"), []byte("v")))
	v, err := db.Get([]byte("k"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v"), v)

	assert.Nil(t, db.Delete([]byte("k")))
	has, err := db.Has([]byte("k"))
	assert.Nil(t, err)
	assert.False(t, has)
}

func TestBulk(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	b := db.Bulk()
	b.Put([]byte("p1"), []byte{1})
	b.Put([]byte("p2"), []byte{2})
	b.Put([]byte("q1"), []byte{3})
	assert.Equal(t, 3, b.Len())

	has, _ := db.Has([]byte("p1"))
	assert.False(t, has, "not visible before write")

	assert.Nil(t, b.Write())
	assert.Equal(t, 0, b.Len())

	it := db.Iterate(kv.PrefixRange([]byte("p")))
	defer it.Release()
	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	assert.Equal(t, []string{"p1", "p2"}, keys)
}
