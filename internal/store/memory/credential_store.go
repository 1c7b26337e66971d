package memory

import (
	"sync"

	"github.com/wolfeidau/nixcrypto/internal/store"
)

var _ store.Store = (*CredentialStore)(nil)

// CredentialStore is an in-memory write-once store for development and testing.
type CredentialStore struct {
	mu      sync.RWMutex
	records map[string][]byte // indexed by raw store key
	salt    []byte
}

// NewCredentialStore creates an empty store with the given salt. A nil salt
// falls back to store.LegacySalt.
func NewCredentialStore(salt []byte) *CredentialStore {
	if salt == nil {
		salt = store.LegacySalt
	}
	return &CredentialStore{
		records: make(map[string][]byte),
		salt:    append([]byte(nil), salt...),
	}
}

// GetRaw returns a copy of the value stored under key.
func (s *CredentialStore) GetRaw(key []byte) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, exists := s.records[string(key)]
	if !exists {
		return nil, false, nil
	}

	return append([]byte(nil), value...), true, nil
}

// PutRaw stores a copy of value, refusing to replace an existing key.
func (s *CredentialStore) PutRaw(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[string(key)]; exists {
		return store.ErrStoreInvariantViolation
	}

	s.records[string(key)] = append([]byte(nil), value...)

	return nil
}

func (s *CredentialStore) Salt() []byte {
	return append([]byte(nil), s.salt...)
}

// Len returns the number of stored records.
func (s *CredentialStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *CredentialStore) Close() error {
	return nil
}
