package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	bolt "go.etcd.io/bbolt"

	"github.com/neuropassword/npass/internal/constants"
)

// BoltStore is a Store persisted in a single bbolt database file.
// bbolt holds an exclusive file lock, so two processes sharing one store file
// serialize on Open instead of overwriting each other mid-write.
type BoltStore struct {
	db     *bolt.DB
	path   string
	bucket []byte

	mu     sync.RWMutex
	closed bool
}

// OpenBolt opens (creating if necessary) the store at path.
func OpenBolt(path string) (*BoltStore, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: constants.StoreOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", path, err)
	}

	bucket := []byte(constants.StoreBucket)
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create store bucket: %w", err)
	}

	return &BoltStore{db: db, path: path, bucket: bucket}, nil
}

// Path returns the database file path.
func (s *BoltStore) Path() string {
	return s.path
}

// Get returns the value stored under key.
func (s *BoltStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, ErrClosed
	}

	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		// bbolt values are only valid inside the transaction; string() copies.
		value = string(v)
		found = true
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return value, found, nil
}

// Set writes a single key.
func (s *BoltStore) Set(key, value string) error {
	return s.SetMany(map[string]string{key: value})
}

// SetMany writes all pairs in one transaction.
func (s *BoltStore) SetMany(values map[string]string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		for k, v := range values {
			if err := b.Put([]byte(k), []byte(v)); err != nil {
				return fmt.Errorf("put %q: %w", k, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	return nil
}

// Delete removes keys in one transaction.
func (s *BoltStore) Delete(keys ...string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		for _, k := range keys {
			if err := b.Delete([]byte(k)); err != nil {
				return fmt.Errorf("delete %q: %w", k, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete from store: %w", err)
	}
	return nil
}

// Close closes the database. It is safe to call more than once.
func (s *BoltStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
