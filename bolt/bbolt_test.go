package bolt_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/weiplanet/docmigrate/bolt"
	"github.com/weiplanet/docmigrate/kv"
	"go.uber.org/zap/zaptest"
)

func NewTestKVStore(t *testing.T) (*bolt.KVStore, func(), error) {
	f, err := os.CreateTemp("", "docmigrate-bolt-")
	if err != nil {
		return nil, nil, errors.New("unable to open temporary boltdb file")
	}
	f.Close()

	path := f.Name()
	s := bolt.NewKVStore(zaptest.NewLogger(t), path, bolt.WithNoSync)
	if err := s.Open(context.Background()); err != nil {
		return nil, nil, err
	}

	close := func() {
		s.Close()
		os.Remove(path)
	}

	return s, close, nil
}

func initKVStore(t *testing.T) (kv.Store, func()) {
	s, closeFn, err := NewTestKVStore(t)
	if err != nil {
		t.Fatalf("failed to create new kv store: %v", err)
	}
	return s, closeFn
}

func TestKVStore_Open_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "docmigrate.bolt")
	s := bolt.NewKVStore(nil, path)
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("failed to open: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected bolt file to exist: %v", err)
	}
	if s.DB() == nil {
		t.Fatal("expected open db")
	}
}
