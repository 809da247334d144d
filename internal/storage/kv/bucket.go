// Package kv provides key-value buckets backed by SQLite or memory.
package kv

// Bucket is the interface for key-value storage operations.
type Bucket interface {
	// Name returns the bucket name.
	Name() string

	// IsPersistent returns true if the bucket is backed by SQLite.
	IsPersistent() bool

	// Store saves a value with the given key.
	// The value must be JSON-serializable for persistent buckets.
	Store(key string, value any) error

	// Get retrieves a value by key.
	// Returns nil if the key doesn't exist.
	Get(key string) (any, error)

	// Delete removes a key from the bucket.
	// Returns true if the key existed.
	Delete(key string) (bool, error)

	// Keys returns all keys in the bucket.
	Keys() ([]string, error)
}
