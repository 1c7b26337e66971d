package pki

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/wolfeidau/nixcrypto/internal/store"
)

// ParsePrivateKeyPEM decodes a PKCS#8 "PRIVATE KEY" or PKCS#1
// "RSA PRIVATE KEY" block.
func ParsePrivateKeyPEM(data []byte) (*PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: failed to decode private key PEM", store.ErrCodec)
	}

	var (
		key any
		err error
	)
	switch block.Type {
	case pemTypePrivateKey:
		key, err = x509.ParsePKCS8PrivateKey(block.Bytes)
	case pemTypeRSAPrivateKey:
		key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	default:
		return nil, fmt.Errorf("%w: unexpected PEM block type %q for a private key", store.ErrCodec, block.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse private key: %v", store.ErrCodec, err)
	}

	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("%w: private key of type %T cannot sign", store.ErrCodec, key)
	}

	return NewPrivateKey(signer)
}

// ParsePublicKeyPEM decodes a PKIX "PUBLIC KEY" or PKCS#1 "RSA PUBLIC KEY"
// block. Any algorithm supported by crypto/x509 is accepted.
func ParsePublicKeyPEM(data []byte) (crypto.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: failed to decode public key PEM", store.ErrCodec)
	}

	var (
		pub any
		err error
	)
	switch block.Type {
	case pemTypePublicKey:
		pub, err = x509.ParsePKIXPublicKey(block.Bytes)
	case pemTypeRSAPublicKey:
		pub, err = x509.ParsePKCS1PublicKey(block.Bytes)
	default:
		return nil, fmt.Errorf("%w: unexpected PEM block type %q for a public key", store.ErrCodec, block.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse public key: %v", store.ErrCodec, err)
	}

	return pub, nil
}

// ParseCertificatePEM decodes a single "CERTIFICATE" block.
func ParseCertificatePEM(data []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemTypeCertificate {
		return nil, fmt.Errorf("%w: failed to decode certificate PEM", store.ErrCodec)
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse certificate: %v", store.ErrCodec, err)
	}

	return cert, nil
}
