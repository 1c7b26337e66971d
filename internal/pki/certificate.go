package pki

import (
	"crypto"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"time"

	"github.com/wolfeidau/nixcrypto/internal/store"
)

// CertificateTemplate fully describes one certificate apart from the key
// that signs it. Nothing is defaulted from the clock or randomness, so the
// same template signed by the same key always yields the same certificate.
type CertificateTemplate struct {
	// SubjectPublicKey is a PEM encoded public key. When nil the
	// certificate is self-signed and carries the signing key's public half.
	SubjectPublicKey *string

	Issuer  []NameEntry
	Subject []NameEntry

	Serial uint32

	// StartDate and ExpiryDate are strict RFC3339 timestamps.
	StartDate  string
	ExpiryDate string

	KeyUsage         *KeyUsage
	BasicConstraints *BasicConstraints
}

// PreparedTemplate is a validated template with its key parsed, names
// encoded and dates resolved, ready to be signed.
type PreparedTemplate struct {
	serial     uint32
	subjectKey crypto.PublicKey
	issuer     []byte
	subject    []byte
	notBefore  time.Time
	notAfter   time.Time
	extensions []pkix.Extension
}

// Validate checks every field of the template without signing anything.
func (t CertificateTemplate) Validate() error {
	_, err := t.Prepare()
	return err
}

// Prepare validates the template and resolves everything signing needs.
func (t CertificateTemplate) Prepare() (*PreparedTemplate, error) {
	p := &PreparedTemplate{serial: t.Serial}

	if t.SubjectPublicKey != nil {
		pub, err := ParsePublicKeyPEM([]byte(*t.SubjectPublicKey))
		if err != nil {
			return nil, fmt.Errorf("subject public key: %w", err)
		}
		p.subjectKey = pub
	}

	var err error
	if p.issuer, err = encodeName(t.Issuer); err != nil {
		return nil, fmt.Errorf("issuer name: %w", err)
	}
	if p.subject, err = encodeName(t.Subject); err != nil {
		return nil, fmt.Errorf("subject name: %w", err)
	}

	if p.notBefore, err = parseTimestamp("start_date", t.StartDate); err != nil {
		return nil, err
	}
	if p.notAfter, err = parseTimestamp("expiry_date", t.ExpiryDate); err != nil {
		return nil, err
	}

	if t.KeyUsage != nil {
		ext, err := t.KeyUsage.extension()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrValidation, err)
		}
		p.extensions = append(p.extensions, ext)
	}

	if t.BasicConstraints != nil {
		ext, err := t.BasicConstraints.extension()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrValidation, err)
		}
		p.extensions = append(p.extensions, ext)
	}

	return p, nil
}

func parseTimestamp(field, value string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q is not an RFC3339 timestamp: %v", store.ErrTimeFormat, field, value, err)
	}

	return ts, nil
}

// BuildCertificate assembles and signs the certificate described by tmpl.
// Extensions appear in a fixed order: KeyUsage and BasicConstraints when
// declared, then SubjectKeyIdentifier and AuthorityKeyIdentifier, the latter
// identifying the signing key.
func BuildCertificate(signer CASigner, tmpl CertificateTemplate) (*Certificate, error) {
	p, err := tmpl.Prepare()
	if err != nil {
		return nil, err
	}

	return p.Sign(signer)
}

// Sign builds and signs the certificate with signer.
func (p *PreparedTemplate) Sign(signer CASigner) (*Certificate, error) {
	subjectKey := p.subjectKey
	if subjectKey == nil {
		subjectKey = signer.PublicKey()
	}

	subjectKeyID, err := KeyIdentifier(subjectKey)
	if err != nil {
		return nil, fmt.Errorf("subject key identifier: %w", err)
	}

	authorityKeyID, err := KeyIdentifier(signer.PublicKey())
	if err != nil {
		return nil, fmt.Errorf("authority key identifier: %w", err)
	}

	ski, err := subjectKeyIDExtension(subjectKeyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrCodec, err)
	}

	aki, err := authorityKeyIDExtension(authorityKeyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrCodec, err)
	}

	extensions := make([]pkix.Extension, 0, len(p.extensions)+2)
	extensions = append(extensions, p.extensions...)
	extensions = append(extensions, ski, aki)

	template := &x509.Certificate{
		SerialNumber:    new(big.Int).SetUint64(uint64(p.serial)),
		RawSubject:      p.subject,
		NotBefore:       p.notBefore,
		NotAfter:        p.notAfter,
		PublicKey:       subjectKey,
		ExtraExtensions: extensions,
	}

	der, err := signer.SignCertificate(template, p.issuer)
	if err != nil {
		return nil, err
	}

	return ParseCertificateDER(der)
}

// Certificate is a signed X.509 certificate.
type Certificate struct {
	der  []byte
	cert *x509.Certificate
}

// ParseCertificateDER wraps a DER encoded certificate.
func ParseCertificateDER(der []byte) (*Certificate, error) {
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse certificate: %v", store.ErrCodec, err)
	}

	return &Certificate{der: der, cert: cert}, nil
}

// DER returns a copy of the encoded certificate.
func (c *Certificate) DER() []byte {
	return append([]byte(nil), c.der...)
}

// X509 returns the parsed certificate.
func (c *Certificate) X509() *x509.Certificate {
	return c.cert
}

// PEM returns the certificate as a "CERTIFICATE" PEM block.
func (c *Certificate) PEM() string {
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  pemTypeCertificate,
		Bytes: c.der,
	}))
}
