// Package pki generates and encodes key material and builds X.509
// certificates from fully specified, caller-supplied parameters.
package pki

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/wolfeidau/nixcrypto/internal/store"
)

// KeyType tags the algorithm of a private key.
type KeyType string

const (
	// KeyTypeRSA is a 4096 bit RSA key.
	KeyTypeRSA KeyType = "rsa"
)

// RSAKeyBits is the modulus size used for generated RSA keys.
const RSAKeyBits = 4096

// PEM block types
const (
	pemTypePrivateKey    = "PRIVATE KEY"
	pemTypeRSAPrivateKey = "RSA PRIVATE KEY"
	pemTypePublicKey     = "PUBLIC KEY"
	pemTypeRSAPublicKey  = "RSA PUBLIC KEY"
	pemTypeCertificate   = "CERTIFICATE"
)

// ParseKeyType validates a key type tag.
func ParseKeyType(s string) (KeyType, error) {
	switch KeyType(s) {
	case KeyTypeRSA:
		return KeyTypeRSA, nil
	default:
		return "", fmt.Errorf("%w: the value %q is not a known private key type", store.ErrValidation, s)
	}
}

func (t KeyType) String() string {
	return string(t)
}

// PrivateKey is an asymmetric private key tagged with its KeyType. The public
// half is always derived, never stored separately.
type PrivateKey struct {
	keyType KeyType
	signer  crypto.Signer
}

// GenerateKey creates fresh key material for the given type.
func GenerateKey(keyType KeyType) (*PrivateKey, error) {
	switch keyType {
	case KeyTypeRSA:
		key, err := rsa.GenerateKey(rand.Reader, RSAKeyBits)
		if err != nil {
			return nil, fmt.Errorf("failed to generate RSA key: %w", err)
		}
		return &PrivateKey{keyType: KeyTypeRSA, signer: key}, nil
	default:
		return nil, fmt.Errorf("%w: the value %q is not a known private key type", store.ErrValidation, keyType)
	}
}

// NewPrivateKey wraps an existing key. Only RSA keys are supported.
func NewPrivateKey(signer crypto.Signer) (*PrivateKey, error) {
	switch signer.(type) {
	case *rsa.PrivateKey:
		return &PrivateKey{keyType: KeyTypeRSA, signer: signer}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported private key algorithm %T", store.ErrCodec, signer)
	}
}

// Type returns the key's algorithm tag.
func (k *PrivateKey) Type() KeyType {
	return k.keyType
}

// Signer returns the underlying crypto.Signer.
func (k *PrivateKey) Signer() crypto.Signer {
	return k.signer
}

// PublicKey derives the public half.
func (k *PrivateKey) PublicKey() crypto.PublicKey {
	return k.signer.Public()
}

// PublicPEM returns the public half as a PKIX "PUBLIC KEY" PEM block.
func (k *PrivateKey) PublicPEM() (string, error) {
	return EncodePublicKeyPEM(k.PublicKey())
}

// MarshalPEM encodes the private key as a PKCS#8 "PRIVATE KEY" PEM block.
func (k *PrivateKey) MarshalPEM() ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(k.signer)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal private key: %v", store.ErrCodec, err)
	}

	return pem.EncodeToMemory(&pem.Block{
		Type:  pemTypePrivateKey,
		Bytes: der,
	}), nil
}

// Fingerprint returns the Base58-encoded SHA-256 of the public key DER. It
// identifies a key in logs without exposing it.
func (k *PrivateKey) Fingerprint() (string, error) {
	return Fingerprint(k.PublicKey())
}

// Fingerprint returns the Base58-encoded SHA-256 of the PKIX DER encoding of pub.
func Fingerprint(pub crypto.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal public key: %v", store.ErrCodec, err)
	}

	hash := sha256.Sum256(der)
	return base58.Encode(hash[:]), nil
}

// EncodePublicKeyPEM encodes pub as a PKIX "PUBLIC KEY" PEM block.
func EncodePublicKeyPEM(pub crypto.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal public key: %v", store.ErrCodec, err)
	}

	return string(pem.EncodeToMemory(&pem.Block{
		Type:  pemTypePublicKey,
		Bytes: der,
	})), nil
}
