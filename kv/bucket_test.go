// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakevault/stakevault/kv"
	"github.com/stakevault/stakevault/lvldb"
)

func TestBucketIsolation(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	b1 := kv.Bucket("b1-").ProxyGetPutter(db)
	b2 := kv.Bucket("b2-").ProxyGetPutter(db)

	require.NoError(t, b1.Put([]byte("key"), []byte("one")))
	require.NoError(t, b2.Put([]byte("key"), []byte("two")))

	v1, err := b1.Get([]byte("key"))
	require.NoError(t, err)
	v2, err := b2.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), v1)
	assert.Equal(t, []byte("two"), v2)

	require.NoError(t, b1.Delete([]byte("key")))
	_, err = b1.Get([]byte("key"))
	assert.True(t, b1.IsNotFound(err))
	_, err = b2.Get([]byte("key"))
	assert.NoError(t, err)
}

func TestBucketIterator(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	bucket := kv.Bucket("pfx-").ProxyGetPutter(db)
	require.NoError(t, bucket.Put([]byte("a"), []byte("1")))
	require.NoError(t, bucket.Put([]byte("b"), []byte("2")))
	require.NoError(t, db.Put([]byte("unrelated"), []byte("3")))

	iter := bucket.NewIterator(kv.Range{})
	defer iter.Release()

	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	require.NoError(t, iter.Error())
	// prefix stripped, unrelated keys invisible
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestBucketBatch(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	bucket := kv.Bucket("pfx-").ProxyGetPutter(db)
	batch := bucket.NewBatch()
	require.NoError(t, batch.Put([]byte("k"), []byte("v")))
	require.NoError(t, batch.Write())

	value, err := db.Get([]byte("pfx-k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)
}
