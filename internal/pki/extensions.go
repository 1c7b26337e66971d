package pki

import (
	"crypto"
	"crypto/sha1" // #nosec G505 - RFC 5280 key identifiers are defined over SHA-1
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"

	"github.com/wolfeidau/nixcrypto/internal/store"
)

// KeyUsage declares the KeyUsage extension.
type KeyUsage struct {
	Critical    bool
	KeyCertSign bool
	CRLSign     bool
}

// BasicConstraints declares the BasicConstraints extension.
type BasicConstraints struct {
	Critical bool
	CA       bool
}

// KeyUsage bit positions (RFC 5280, section 4.2.1.3)
const (
	keyUsageBitKeyCertSign = 5
	keyUsageBitCRLSign     = 6
)

func (ku KeyUsage) extension() (pkix.Extension, error) {
	var bits asn1.BitString
	if ku.KeyCertSign || ku.CRLSign {
		var b byte
		bits.BitLength = keyUsageBitKeyCertSign + 1
		if ku.KeyCertSign {
			b |= 1 << (7 - keyUsageBitKeyCertSign)
		}
		if ku.CRLSign {
			b |= 1 << (7 - keyUsageBitCRLSign)
			bits.BitLength = keyUsageBitCRLSign + 1
		}
		bits.Bytes = []byte{b}
	}

	value, err := asn1.Marshal(bits)
	if err != nil {
		return pkix.Extension{}, fmt.Errorf("failed to marshal key usage: %w", err)
	}

	return pkix.Extension{Id: OIDExtensionKeyUsage, Critical: ku.Critical, Value: value}, nil
}

// basicConstraints omits cA when false, as DER requires for DEFAULT FALSE.
type basicConstraints struct {
	IsCA bool `asn1:"optional"`
}

func (bc BasicConstraints) extension() (pkix.Extension, error) {
	value, err := asn1.Marshal(basicConstraints{IsCA: bc.CA})
	if err != nil {
		return pkix.Extension{}, fmt.Errorf("failed to marshal basic constraints: %w", err)
	}

	return pkix.Extension{Id: OIDExtensionBasicConstraints, Critical: bc.Critical, Value: value}, nil
}

// KeyIdentifier returns the RFC 5280 method 1 key identifier: the SHA-1 of
// the subjectPublicKey BIT STRING.
func KeyIdentifier(pub crypto.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal public key: %v", store.ErrCodec, err)
	}

	var spki struct {
		Algorithm pkix.AlgorithmIdentifier
		PublicKey asn1.BitString
	}
	if _, err := asn1.Unmarshal(der, &spki); err != nil {
		return nil, fmt.Errorf("%w: failed to parse public key info: %v", store.ErrCodec, err)
	}

	sum := sha1.Sum(spki.PublicKey.Bytes) // #nosec G401
	return sum[:], nil
}

func subjectKeyIDExtension(keyID []byte) (pkix.Extension, error) {
	value, err := asn1.Marshal(keyID)
	if err != nil {
		return pkix.Extension{}, fmt.Errorf("failed to marshal subject key identifier: %w", err)
	}

	return pkix.Extension{Id: OIDExtensionSubjectKeyID, Value: value}, nil
}

type authorityKeyID struct {
	ID []byte `asn1:"optional,tag:0"`
}

func authorityKeyIDExtension(keyID []byte) (pkix.Extension, error) {
	value, err := asn1.Marshal(authorityKeyID{ID: keyID})
	if err != nil {
		return pkix.Extension{}, fmt.Errorf("failed to marshal authority key identifier: %w", err)
	}

	return pkix.Extension{Id: OIDExtensionAuthorityKeyID, Value: value}, nil
}
