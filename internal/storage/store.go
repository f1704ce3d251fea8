// Package storage provides the durable string-keyed, string-valued store that
// backs the session and the folder cache.
package storage

import "errors"

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Store is a small key-value store. SetMany and Delete are atomic: either
// every key is written/removed or none is.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	// Set writes a single key.
	Set(key, value string) error
	// SetMany writes all pairs in one atomic update.
	SetMany(values map[string]string) error
	// Delete removes keys in one atomic update. Missing keys are ignored.
	Delete(keys ...string) error
	// Close releases the underlying resources.
	Close() error
}
