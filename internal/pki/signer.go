package pki

import (
	"crypto"
	"crypto/rand"
	"crypto/x509"
	"fmt"
)

// CASigner signs certificate templates to create certificates.
type CASigner interface {
	// SignCertificate signs template on behalf of the DER encoded issuer
	// name and returns the DER encoded certificate. The template must be
	// fully populated, including its public key.
	SignCertificate(template *x509.Certificate, rawIssuer []byte) ([]byte, error)

	// PublicKey returns the public half of the signing key.
	PublicKey() crypto.PublicKey
}

var _ CASigner = (*PrivateKey)(nil)

// SignCertificate signs template with SHA256WithRSA. PKCS#1 v1.5 signatures
// are deterministic, so identical templates produce identical certificates.
func (k *PrivateKey) SignCertificate(template *x509.Certificate, rawIssuer []byte) ([]byte, error) {
	if template.PublicKey == nil {
		return nil, fmt.Errorf("certificate template has no public key")
	}

	parent := &x509.Certificate{
		RawSubject: rawIssuer,
		PublicKey:  k.PublicKey(),
	}

	template.SignatureAlgorithm = x509.SHA256WithRSA

	der, err := x509.CreateCertificate(rand.Reader, template, parent, template.PublicKey, k.signer)
	if err != nil {
		return nil, fmt.Errorf("failed to sign certificate: %w", err)
	}

	return der, nil
}
