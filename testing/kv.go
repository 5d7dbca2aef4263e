package testing

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/weiplanet/docmigrate/kv"
)

// KVStoreInitFunc returns a fresh kv.Store and a func that releases it.
type KVStoreInitFunc func(*testing.T) (kv.Store, func())

// KVStore runs the kv.Store conformance tests against the store returned by init.
func KVStore(init KVStoreInitFunc, t *testing.T) {
	tests := []struct {
		name string
		fn   func(KVStoreInitFunc, *testing.T)
	}{
		{name: "PutGetDelete", fn: KVPutGetDelete},
		{name: "ReadOnly", fn: KVReadOnly},
		{name: "ForwardCursor", fn: KVForwardCursor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(init, t)
		})
	}
}

// KVPutGetDelete tests basic bucket operations.
func KVPutGetDelete(init KVStoreInitFunc, t *testing.T) {
	s, done := init(t)
	defer done()
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket([]byte("things"))
		if err != nil {
			return err
		}
		return b.Put([]byte("a"), []byte("1"))
	}))

	require.NoError(t, s.View(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket([]byte("things"))
		require.NoError(t, err)
		v, err := b.Get([]byte("a"))
		require.NoError(t, err)
		require.Equal(t, []byte("1"), v)

		_, err = b.Get([]byte("b"))
		require.ErrorIs(t, err, kv.ErrKeyNotFound)
		require.True(t, kv.IsNotFound(err))
		return nil
	}))

	require.NoError(t, s.Update(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket([]byte("things"))
		if err != nil {
			return err
		}
		return b.Delete([]byte("a"))
	}))

	require.NoError(t, s.View(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket([]byte("things"))
		require.NoError(t, err)
		_, err = b.Get([]byte("a"))
		require.True(t, kv.IsNotFound(err))
		return nil
	}))
}

// KVReadOnly tests that view transactions neither create buckets nor write.
func KVReadOnly(init KVStoreInitFunc, t *testing.T) {
	s, done := init(t)
	defer done()
	ctx := context.Background()

	require.NoError(t, s.View(ctx, func(tx kv.Tx) error {
		_, err := tx.Bucket([]byte("missing"))
		require.ErrorIs(t, err, kv.ErrBucketNotFound)
		return nil
	}))

	require.NoError(t, s.Update(ctx, func(tx kv.Tx) error {
		_, err := tx.Bucket([]byte("things"))
		return err
	}))

	require.NoError(t, s.View(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket([]byte("things"))
		require.NoError(t, err)
		require.ErrorIs(t, b.Put([]byte("a"), []byte("1")), kv.ErrTxNotWritable)
		return nil
	}))
}

// KVForwardCursor tests seek, direction, prefix, skip and limit hints.
func KVForwardCursor(init KVStoreInitFunc, t *testing.T) {
	s, done := init(t)
	defer done()
	ctx := context.Background()

	keys := []string{"aa/01", "aa/02", "aa/03", "ab/01", "ab/02", "b/01"}
	require.NoError(t, s.Update(ctx, func(tx kv.Tx) error {
		b, err := tx.Bucket([]byte("cursor"))
		if err != nil {
			return err
		}
		for i, k := range keys {
			if err := b.Put([]byte(k), []byte(fmt.Sprintf("v%d", i))); err != nil {
				return err
			}
		}
		return nil
	}))

	tests := []struct {
		name string
		seek string
		opts []kv.CursorOption
		want []string
	}{
		{
			name: "all",
			want: keys,
		},
		{
			name: "seek",
			seek: "ab/01",
			want: []string{"ab/01", "ab/02", "b/01"},
		},
		{
			name: "seek between keys",
			seek: "aa/025",
			want: []string{"aa/03", "ab/01", "ab/02", "b/01"},
		},
		{
			name: "skip first",
			seek: "ab/01",
			opts: []kv.CursorOption{kv.WithCursorSkipFirstItem()},
			want: []string{"ab/02", "b/01"},
		},
		{
			name: "skip first when seek is absent",
			seek: "aa/025",
			opts: []kv.CursorOption{kv.WithCursorSkipFirstItem()},
			want: []string{"aa/03", "ab/01", "ab/02", "b/01"},
		},
		{
			name: "limit",
			opts: []kv.CursorOption{kv.WithCursorLimit(2)},
			want: []string{"aa/01", "aa/02"},
		},
		{
			name: "prefix",
			seek: "aa/",
			opts: []kv.CursorOption{kv.WithCursorPrefix([]byte("aa/"))},
			want: []string{"aa/01", "aa/02", "aa/03"},
		},
		{
			name: "descending",
			opts: []kv.CursorOption{kv.WithCursorDirection(kv.CursorDescending)},
			want: []string{"b/01", "ab/02", "ab/01", "aa/03", "aa/02", "aa/01"},
		},
		{
			name: "descending from seek with skip",
			seek: "ab/01",
			opts: []kv.CursorOption{
				kv.WithCursorDirection(kv.CursorDescending),
				kv.WithCursorSkipFirstItem(),
				kv.WithCursorLimit(2),
			},
			want: []string{"aa/03", "aa/02"},
		},
		{
			name: "seek past end",
			seek: "c",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			require.NoError(t, s.View(ctx, func(tx kv.Tx) error {
				b, err := tx.Bucket([]byte("cursor"))
				if err != nil {
					return err
				}
				var seek []byte
				if tt.seek != "" {
					seek = []byte(tt.seek)
				}
				cur, err := b.ForwardCursor(seek, tt.opts...)
				if err != nil {
					return err
				}
				return kv.WalkCursor(ctx, cur, func(k, v []byte) (bool, error) {
					got = append(got, string(k))
					return true, nil
				})
			}))
			require.Equal(t, tt.want, got)
		})
	}
}
