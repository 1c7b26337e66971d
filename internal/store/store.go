package store

// LegacySalt is the fixed salt used by stores that cannot persist their own,
// such as FailFast.
var LegacySalt = []byte("72d12af4-adf5-42f6-938f-d504210d5492")

// Store is a durable, write-once key/value store for credential material.
// Keys are opaque digests produced by a Hasher seeded with Salt.
type Store interface {
	// GetRaw returns the value stored under key. The boolean reports
	// whether the key was present.
	GetRaw(key []byte) ([]byte, bool, error)

	// PutRaw inserts value under key. Implementations must fail with
	// ErrStoreInvariantViolation if the key already exists.
	PutRaw(key, value []byte) error

	// Salt returns the per-store salt mixed into every key digest. It must
	// be stable for the lifetime of the store location.
	Salt() []byte

	// Close releases any resources held by the store.
	Close() error
}
