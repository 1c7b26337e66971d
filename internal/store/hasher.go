package store

import (
	"crypto/sha256"
	"hash"
)

// KeySize is the length in bytes of every store key.
const KeySize = sha256.Size

// Hasher derives store keys. It is a SHA-256 digest seeded with the store
// salt; identities feed their canonical fields in a fixed order.
type Hasher struct {
	h hash.Hash
}

// NewHasher returns a Hasher seeded with salt.
func NewHasher(salt []byte) *Hasher {
	h := sha256.New()
	h.Write(salt)
	return &Hasher{h: h}
}

// Write feeds one identity field into the digest. It never fails.
func (h *Hasher) Write(field []byte) (int, error) {
	return h.h.Write(field)
}

// WriteString is Write for string fields.
func (h *Hasher) WriteString(field string) (int, error) {
	return h.h.Write([]byte(field))
}

// Sum returns the 32 byte store key.
func (h *Hasher) Sum() []byte {
	return h.h.Sum(nil)
}
