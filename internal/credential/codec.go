package credential

import (
	"context"
	"fmt"

	"github.com/wolfeidau/nixcrypto/internal/pki"
	"github.com/wolfeidau/nixcrypto/internal/store"
)

// Codec ties a store key to the type of value stored under it.
type Codec[V any] interface {
	// StoreKey derives the store key for salt. It must be deterministic.
	StoreKey(salt []byte) []byte
	Encode(value V) ([]byte, error)
	Decode(data []byte) (V, error)
}

// KeyIdentity names a private key. It is hashed into a store key and never
// stored itself.
type KeyIdentity struct {
	KeyType string
	KeyID   string
}

var _ Codec[*pki.PrivateKey] = KeyIdentity{}

func (id KeyIdentity) String() string {
	return id.KeyType + "/" + id.KeyID
}

// StoreKey hashes the key type tag followed by the key id.
func (id KeyIdentity) StoreKey(salt []byte) []byte {
	h := store.NewHasher(salt)
	h.WriteString(id.KeyType)
	h.WriteString(id.KeyID)
	return h.Sum()
}

// Encode stores private keys as PKCS#8 PEM.
func (id KeyIdentity) Encode(key *pki.PrivateKey) ([]byte, error) {
	return key.MarshalPEM()
}

// Decode parses a stored key and checks it has the identity's key type.
func (id KeyIdentity) Decode(data []byte) (*pki.PrivateKey, error) {
	key, err := pki.ParsePrivateKeyPEM(data)
	if err != nil {
		return nil, err
	}

	if key.Type().String() != id.KeyType {
		return nil, fmt.Errorf("%w: stored key for %s has type %q", store.ErrCodec, id, key.Type())
	}

	return key, nil
}

// Get looks up the value for key. The boolean is false on a miss.
func Get[V any](ctx context.Context, m *Manager, key Codec[V]) (V, bool, error) {
	var zero V

	data, ok, err := m.store.GetRaw(key.StoreKey(m.store.Salt()))
	if err != nil {
		m.metrics.StoreErrorsTotal.Add(ctx, 1)
		return zero, false, err
	}
	if !ok {
		return zero, false, nil
	}

	value, err := key.Decode(data)
	if err != nil {
		return zero, false, err
	}

	return value, true, nil
}

// Put encodes and inserts value. Storing under an existing key fails with
// store.ErrStoreInvariantViolation.
func Put[V any](ctx context.Context, m *Manager, key Codec[V], value V) error {
	data, err := key.Encode(value)
	if err != nil {
		return err
	}

	if err := m.store.PutRaw(key.StoreKey(m.store.Salt()), data); err != nil {
		m.metrics.StoreErrorsTotal.Add(ctx, 1)
		return err
	}

	return nil
}
