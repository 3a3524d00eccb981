package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerStore keeps cached values on local disk so a restarted single instance
// can serve the last listing without calling the oracle.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (or creates) the store under dir. An empty dir keeps
// everything in memory.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	dir = strings.TrimSpace(dir)
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (s *BadgerStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := badger.NewEntry([]byte(key), value)
	if ttl > 0 {
		e = e.WithTTL(ttl)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(e)
	})
}

func (s *BadgerStore) Delete(_ context.Context, key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (s *BadgerStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
