package store

import (
	"github.com/cockroachdb/pebble"
)

// Store is a small wrapper around a Pebble DB instance shared by the
// failure and success record stores.
type Store struct {
	DB       *pebble.DB
	DataFile string
}

// Open opens (or creates) a pebble DB at the given dataFile path.
func Open(dataFile string) (*Store, error) {
	db, err := pebble.Open(dataFile, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Store{DB: db, DataFile: dataFile}, nil
}

// Put stores a value under the given key.
func (s *Store) Put(key string, value []byte) error {
	return s.DB.Set([]byte(key), value, pebble.Sync)
}

// Get returns the value for the given key, or (nil, nil) when the key is
// absent.
func (s *Store) Get(key string) ([]byte, error) {
	value, closer, err := s.DB.Get([]byte(key))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	defer closer.Close()

	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, nil
}

// Delete removes the key from the DB.
func (s *Store) Delete(key string) error {
	return s.DB.Delete([]byte(key), pebble.Sync)
}

// Each calls fn for every key/value pair. The slices passed to fn are only
// valid for the duration of the call.
func (s *Store) Each(fn func(key, value []byte) error) error {
	iter, err := s.DB.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Close closes the underlying DB.
func (s *Store) Close() error {
	return s.DB.Close()
}
