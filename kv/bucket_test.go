// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pozk/ledger/kv"
	"github.com/pozk/ledger/lvldb"
)

func TestBucket(t *testing.T) {
	db, err := lvldb.NewMem()
	assert.Nil(t, err)
	defer db.Close()

	b := kv.Bucket("s")
	assert.Nil(t, b.NewPutter(db).Put([]byte("k"), []byte("v")))

	v, err := db.Get([]byte("sk"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v"), v)

	v, err = b.NewGetter(db).Get([]byte("k"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v"), v)

	_, err = b.NewGetter(db).Get([]byte("x"))
	assert.True(t, db.IsNotFound(err))

	ok, err := b.NewGetter(db).Has([]byte("k"))
	assert.Nil(t, err)
	assert.True(t, ok)

	assert.Nil(t, b.NewPutter(db).Delete([]byte("k")))
	ok, _ = db.Has([]byte("sk"))
	assert.False(t, ok)
}

func TestBucketRange(t *testing.T) {
	db, _ := lvldb.NewMem()
	defer db.Close()

	db.Put([]byte("a1"), []byte{1})
	db.Put([]byte("b1"), []byte{2})
	db.Put([]byte("b2"), []byte{3})
	db.Put([]byte("c1"), []byte{4})

	it := db.Iterate(kv.Bucket("b").Range())
	defer it.Release()

	var vals []byte
	for it.Next() {
		vals = append(vals, it.Value()...)
	}
	assert.Nil(t, it.Error())
	assert.Equal(t, []byte{2, 3}, vals)
}
