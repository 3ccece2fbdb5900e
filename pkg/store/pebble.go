package store

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"nanopubd/pkg/logger"
)

// ErrNotFound is returned when a key is absent.
var ErrNotFound = errors.New("store: key not found")

// Store is a thin keyed-document/blob layer over a Pebble database. The
// journal and nanopub code go through it and never touch Pebble directly,
// so the backing engine can be swapped without touching core logic.
type Store struct {
	db *pebble.DB
}

// Open opens (or creates) a Pebble database at the given path.
func Open(path string) (*Store, error) {
	logger.Info("opening_pebble_db", "path", path)
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	logger.Info("pebble_closed")
	return err
}

// Ready reports whether the store is opened and usable.
func (s *Store) Ready() bool {
	return s != nil && s.db != nil
}

// Get returns the value stored under key, or ErrNotFound.
func (s *Store) Get(key string) ([]byte, error) {
	if s.db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	v, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	out := make([]byte, len(v))
	copy(out, v)
	_ = closer.Close()
	return out, nil
}

// Has reports whether key exists.
func (s *Store) Has(key string) (bool, error) {
	_, err := s.Get(key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Set durably stores value under key (synced write).
func (s *Store) Set(key string, value []byte) error {
	if s.db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	return s.db.Set([]byte(key), value, pebble.Sync)
}

// ScanPrefix calls fn for every key with the given prefix, in key order.
// A non-nil error from fn aborts the scan.
func (s *Store) ScanPrefix(prefix string, fn func(key string, value []byte) error) error {
	if s.db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	lower := []byte(prefix)
	upper := upperBound(lower)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return err
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		k := string(iter.Key())
		v := make([]byte, len(iter.Value()))
		copy(v, iter.Value())
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return iter.Error()
}

// upperBound returns the smallest key greater than every key with the
// given prefix.
func upperBound(prefix []byte) []byte {
	out := append([]byte{}, prefix...)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] < 0xff {
			out[i]++
			return out[:i+1]
		}
	}
	return nil // prefix is all 0xff; scan to the end
}
