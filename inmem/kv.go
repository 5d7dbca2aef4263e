package inmem

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/google/btree"
	"github.com/weiplanet/docmigrate/kv"
)

// ensure *KVStore implement kv.Store interface
var _ kv.Store = (*KVStore)(nil)

// KVStore is an in memory btree backed kv.Store.
type KVStore struct {
	mu      sync.RWMutex
	buckets map[string]*Bucket
}

// NewKVStore creates an instance of a KVStore.
func NewKVStore() *KVStore {
	return &KVStore{
		buckets: map[string]*Bucket{},
	}
}

// View opens up a transaction with a read lock.
func (s *KVStore) View(ctx context.Context, fn func(kv.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&Tx{
		kv:       s,
		writable: false,
		ctx:      ctx,
	})
}

// Update opens up a transaction with a write lock.
func (s *KVStore) Update(ctx context.Context, fn func(kv.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&Tx{
		kv:       s,
		writable: true,
		ctx:      ctx,
	})
}

// Flush removes all data from the buckets. Used for testing.
func (s *KVStore) Flush(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.buckets {
		b.btree.Clear(false)
	}
}

// Tx is an in memory transaction.
// TODO: make transactions actually transactional
type Tx struct {
	kv       *KVStore
	writable bool
	ctx      context.Context
}

// Context returns the context for the transaction.
func (t *Tx) Context() context.Context {
	return t.ctx
}

// WithContext sets the context for the transaction.
func (t *Tx) WithContext(ctx context.Context) {
	t.ctx = ctx
}

// Bucket retrieves the bucket at the provided key. Writable transactions
// create the bucket when it is missing.
func (t *Tx) Bucket(b []byte) (kv.Bucket, error) {
	bkt, ok := t.kv.buckets[string(b)]
	if !ok {
		if !t.writable {
			return nil, kv.ErrBucketNotFound
		}
		bkt = &Bucket{btree: btree.New(2)}
		t.kv.buckets[string(b)] = bkt
	}

	return &bucket{
		Bucket:   bkt,
		writable: t.writable,
	}, nil
}

// Bucket is a btree that implements kv.Bucket.
type Bucket struct {
	btree *btree.BTree
}

type bucket struct {
	*Bucket
	writable bool
}

// Put wraps the put method of a kv bucket and ensures that the
// bucket is writable.
func (b *bucket) Put(key, value []byte) error {
	if b.writable {
		return b.Bucket.Put(key, value)
	}
	return kv.ErrTxNotWritable
}

// Delete wraps the delete method of a kv bucket and ensures that the
// bucket is writable.
func (b *bucket) Delete(key []byte) error {
	if b.writable {
		return b.Bucket.Delete(key)
	}
	return kv.ErrTxNotWritable
}

type item struct {
	key   []byte
	value []byte
}

// Less is used to implement btree.Item.
func (i *item) Less(b btree.Item) bool {
	j, ok := b.(*item)
	if !ok {
		return false
	}

	return bytes.Compare(i.key, j.key) < 0
}

// Get retrieves the value at the provided key.
func (b *Bucket) Get(key []byte) ([]byte, error) {
	i := b.btree.Get(&item{key: key})

	if i == nil {
		return nil, kv.ErrKeyNotFound
	}

	j, ok := i.(*item)
	if !ok {
		return nil, fmt.Errorf("error item is type %T not *item", i)
	}

	return j.value, nil
}

// Put sets the key value pair provided.
func (b *Bucket) Put(key []byte, value []byte) error {
	// the caller may reuse its buffers after Put returns
	k := append([]byte(nil), key...)
	v := append([]byte(nil), value...)
	_ = b.btree.ReplaceOrInsert(&item{key: k, value: v})
	return nil
}

// Delete removes the key provided.
func (b *Bucket) Delete(key []byte) error {
	_ = b.btree.Delete(&item{key: key})
	return nil
}

// ForwardCursor returns a cursor over a snapshot of the bucket, starting at seek
// and ranging in the configured direction.
func (b *Bucket) ForwardCursor(seek []byte, opts ...kv.CursorOption) (kv.ForwardCursor, error) {
	config := kv.NewCursorConfig(opts...)

	var (
		pairs []pair
		err   error
	)
	iter := func(i btree.Item) bool {
		j, ok := i.(*item)
		if !ok {
			err = fmt.Errorf("error item is type %T not *item", i)
			return false
		}

		if config.SkipFirst && len(pairs) == 0 && bytes.Equal(j.key, seek) {
			return true
		}

		if !config.HasPrefix(j.key) {
			return false
		}

		pairs = append(pairs, pair{key: j.key, value: j.value})
		return config.Limit <= 0 || len(pairs) < config.Limit
	}

	switch {
	case config.Direction == kv.CursorDescending && len(seek) == 0:
		b.btree.Descend(iter)
	case config.Direction == kv.CursorDescending:
		b.btree.DescendLessOrEqual(&item{key: seek}, iter)
	default:
		b.btree.AscendGreaterOrEqual(&item{key: seek}, iter)
	}

	if err != nil {
		return nil, err
	}

	return &cursor{pairs: pairs}, nil
}

type pair struct {
	key, value []byte
}

// cursor is a static cursor over a snapshot of key value pairs.
type cursor struct {
	pairs  []pair
	n      int
	closed bool
}

// Next returns the next pair of the snapshot.
func (c *cursor) Next() ([]byte, []byte) {
	if c.closed || c.n >= len(c.pairs) {
		return nil, nil
	}
	p := c.pairs[c.n]
	c.n++
	return p.key, p.value
}

// Err always returns nil.
func (c *cursor) Err() error {
	return nil
}

// Close marks the cursor closed.
func (c *cursor) Close() error {
	c.closed = true
	return nil
}
