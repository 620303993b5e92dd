// Package kv defines the abstraction for the key/value database the
// document store persists serialized graphs into.
//
// The package also provides a default implementation backed by bbolt
// (https://github.com/etcd-io/bbolt).
//
// Documentation Last Review: 13.05.2024
package kv

// Bucket is a general interface to operate on a database bucket.
type Bucket interface {
	// Get reads the key from the bucket and returns the value, or nil if the
	// key does not exist. The value is only valid for the duration of the
	// transaction.
	Get(key []byte) []byte

	// Set assigns the value to the provided key.
	Set(key, value []byte) error

	// Delete deletes the key from the bucket.
	Delete(key []byte) error

	// ForEach iterates over all the items in the bucket in key order. The
	// iteration stops when the callback returns an error.
	ForEach(fn func(k, v []byte) error) error
}

// DB is a general interface to operate over a key/value database.
type DB interface {
	// View executes the provided read-only transaction against the bucket.
	// It returns an error if the bucket does not exist.
	View(bucket []byte, fn func(Bucket) error) error

	// Update executes the provided writable transaction against the bucket,
	// creating it if necessary.
	Update(bucket []byte, fn func(Bucket) error) error

	// Close closes the database and frees the resources.
	Close() error
}
