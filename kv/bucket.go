// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import "github.com/syndtr/goleveldb/leveldb/util"

// Bucket provides logical bucket for a kv store, by prefixing all keys.
type Bucket string

// ProxyGetter returns a getter which prepends the bucket prefix to all keys.
func (b Bucket) ProxyGetter(src Getter) Getter {
	return &bucketGetter{string(b), src}
}

// ProxyPutter returns a putter which prepends the bucket prefix to all keys.
func (b Bucket) ProxyPutter(src Putter) Putter {
	return &bucketPutter{string(b), src}
}

// ProxyGetPutter returns a get-putter which prepends the bucket prefix to all keys.
func (b Bucket) ProxyGetPutter(src GetPutter) GetPutter {
	return &struct {
		Getter
		Putter
	}{
		b.ProxyGetter(src),
		b.ProxyPutter(src),
	}
}

type bucketGetter struct {
	prefix string
	src    Getter
}

func (g *bucketGetter) Get(key []byte) ([]byte, error) {
	return g.src.Get(append([]byte(g.prefix), key...))
}

func (g *bucketGetter) Has(key []byte) (bool, error) {
	return g.src.Has(append([]byte(g.prefix), key...))
}

func (g *bucketGetter) IsNotFound(err error) bool {
	return g.src.IsNotFound(err)
}

func (g *bucketGetter) NewIterator(r Range) Iterator {
	start := append([]byte(g.prefix), r.Start...)
	var limit []byte
	if len(r.Limit) == 0 {
		limit = util.BytesPrefix([]byte(g.prefix)).Limit
	} else {
		limit = append([]byte(g.prefix), r.Limit...)
	}
	return &bucketIterator{len(g.prefix), g.src.NewIterator(Range{start, limit})}
}

type bucketPutter struct {
	prefix string
	src    Putter
}

func (p *bucketPutter) Put(key, value []byte) error {
	return p.src.Put(append([]byte(p.prefix), key...), value)
}

func (p *bucketPutter) Delete(key []byte) error {
	return p.src.Delete(append([]byte(p.prefix), key...))
}

func (p *bucketPutter) NewBatch() Batch {
	return &bucketBatch{p.prefix, p.src.NewBatch()}
}

type bucketBatch struct {
	prefix string
	src    Batch
}

func (b *bucketBatch) Put(key, value []byte) error {
	return b.src.Put(append([]byte(b.prefix), key...), value)
}

func (b *bucketBatch) Delete(key []byte) error {
	return b.src.Delete(append([]byte(b.prefix), key...))
}

func (b *bucketBatch) NewBatch() Batch { return b.src.NewBatch() }
func (b *bucketBatch) Len() int        { return b.src.Len() }
func (b *bucketBatch) Write() error    { return b.src.Write() }

type bucketIterator struct {
	prefixLen int
	src       Iterator
}

func (i *bucketIterator) Next() bool    { return i.src.Next() }
func (i *bucketIterator) Release()      { i.src.Release() }
func (i *bucketIterator) Error() error  { return i.src.Error() }
func (i *bucketIterator) Value() []byte { return i.src.Value() }

// Key returns the key with the bucket prefix stripped.
func (i *bucketIterator) Key() []byte {
	return i.src.Key()[i.prefixLen:]
}
