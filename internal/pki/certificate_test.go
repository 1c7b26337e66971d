package pki

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/asn1"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/nixcrypto/internal/store"
)

func caTemplate() CertificateTemplate {
	return CertificateTemplate{
		Issuer:     []NameEntry{{Name: "CN", Value: "Example Root CA"}, {Name: "O", Value: "Example"}},
		Subject:    []NameEntry{{Name: "CN", Value: "Example Root CA"}, {Name: "O", Value: "Example"}},
		Serial:     1,
		StartDate:  "2024-01-01T00:00:00Z",
		ExpiryDate: "2034-01-01T00:00:00Z",
		KeyUsage: &KeyUsage{
			Critical:    true,
			KeyCertSign: true,
			CRLSign:     true,
		},
		BasicConstraints: &BasicConstraints{
			Critical: false,
			CA:       true,
		},
	}
}

func extensionIDs(cert *x509.Certificate) []asn1.ObjectIdentifier {
	ids := make([]asn1.ObjectIdentifier, 0, len(cert.Extensions))
	for _, ext := range cert.Extensions {
		ids = append(ids, ext.Id)
	}
	return ids
}

func TestBuildCertificate_SelfSigned(t *testing.T) {
	key := testKey(t)

	cert, err := BuildCertificate(key, caTemplate())
	require.NoError(t, err)

	parsed := cert.X509()
	require.True(t, key.Signer().(*rsa.PrivateKey).PublicKey.Equal(parsed.PublicKey))
	require.NoError(t, parsed.CheckSignature(parsed.SignatureAlgorithm, parsed.RawTBSCertificate, parsed.Signature))
	require.NoError(t, parsed.CheckSignatureFrom(parsed))

	assert.Equal(t, x509.SHA256WithRSA, parsed.SignatureAlgorithm)
	assert.Equal(t, int64(1), parsed.SerialNumber.Int64())
	assert.Equal(t, "Example Root CA", parsed.Subject.CommonName)
	assert.Equal(t, []string{"Example"}, parsed.Issuer.Organization)
	assert.True(t, parsed.NotBefore.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, parsed.NotAfter.Equal(time.Date(2034, 1, 1, 0, 0, 0, 0, time.UTC)))

	assert.True(t, parsed.BasicConstraintsValid)
	assert.True(t, parsed.IsCA)
	assert.Equal(t, x509.KeyUsageCertSign|x509.KeyUsageCRLSign, parsed.KeyUsage)

	// self-signed: both identifiers name the same key
	assert.Equal(t, parsed.SubjectKeyId, parsed.AuthorityKeyId)
}

func TestBuildCertificate_ExtensionOrderAndCriticality(t *testing.T) {
	key := testKey(t)

	cert, err := BuildCertificate(key, caTemplate())
	require.NoError(t, err)

	exts := cert.X509().Extensions
	require.Equal(t, []asn1.ObjectIdentifier{
		OIDExtensionKeyUsage,
		OIDExtensionBasicConstraints,
		OIDExtensionSubjectKeyID,
		OIDExtensionAuthorityKeyID,
	}, extensionIDs(cert.X509()))

	assert.True(t, exts[0].Critical)
	assert.False(t, exts[1].Critical)
	assert.False(t, exts[2].Critical)
	assert.False(t, exts[3].Critical)

	t.Run("criticality is taken from the template", func(t *testing.T) {
		tmpl := caTemplate()
		tmpl.KeyUsage.Critical = false
		tmpl.BasicConstraints.Critical = true

		cert, err := BuildCertificate(key, tmpl)
		require.NoError(t, err)

		exts := cert.X509().Extensions
		assert.False(t, exts[0].Critical)
		assert.True(t, exts[1].Critical)
	})

	t.Run("undeclared extensions are omitted", func(t *testing.T) {
		tmpl := caTemplate()
		tmpl.KeyUsage = nil
		tmpl.BasicConstraints = nil

		cert, err := BuildCertificate(key, tmpl)
		require.NoError(t, err)

		require.Equal(t, []asn1.ObjectIdentifier{
			OIDExtensionSubjectKeyID,
			OIDExtensionAuthorityKeyID,
		}, extensionIDs(cert.X509()))
		assert.False(t, cert.X509().BasicConstraintsValid)
	})
}

func TestBuildCertificate_Deterministic(t *testing.T) {
	key := testKey(t)

	first, err := BuildCertificate(key, caTemplate())
	require.NoError(t, err)

	second, err := BuildCertificate(key, caTemplate())
	require.NoError(t, err)

	require.Equal(t, first.DER(), second.DER())
	require.Equal(t, first.PEM(), second.PEM())
}

func TestPreparedTemplate_Sign(t *testing.T) {
	key := testKey(t)

	prepared, err := caTemplate().Prepare()
	require.NoError(t, err)

	first, err := prepared.Sign(key)
	require.NoError(t, err)
	second, err := prepared.Sign(key)
	require.NoError(t, err)

	built, err := BuildCertificate(key, caTemplate())
	require.NoError(t, err)

	require.Equal(t, built.DER(), first.DER())
	require.Equal(t, first.DER(), second.DER())
	assert.Equal(t, int64(caTemplate().Serial), first.X509().SerialNumber.Int64())
}

func TestBuildCertificate_ExplicitSubjectKey(t *testing.T) {
	signer := testKey(t)
	subject := testKey(t)

	subjectPEM, err := subject.PublicPEM()
	require.NoError(t, err)

	tmpl := caTemplate()
	tmpl.SubjectPublicKey = &subjectPEM
	tmpl.Subject = []NameEntry{{Name: "CN", Value: "leaf.example.com"}}
	tmpl.BasicConstraints = &BasicConstraints{Critical: true, CA: false}

	cert, err := BuildCertificate(signer, tmpl)
	require.NoError(t, err)

	parsed := cert.X509()
	require.True(t, subject.Signer().(*rsa.PrivateKey).PublicKey.Equal(parsed.PublicKey))

	digest := sha256.Sum256(parsed.RawTBSCertificate)
	require.NoError(t, rsa.VerifyPKCS1v15(&signer.Signer().(*rsa.PrivateKey).PublicKey, crypto.SHA256, digest[:], parsed.Signature))

	subjectKeyID, err := KeyIdentifier(subject.PublicKey())
	require.NoError(t, err)
	signerKeyID, err := KeyIdentifier(signer.PublicKey())
	require.NoError(t, err)

	assert.Equal(t, subjectKeyID, parsed.SubjectKeyId)
	assert.Equal(t, signerKeyID, parsed.AuthorityKeyId)
	assert.NotEqual(t, parsed.SubjectKeyId, parsed.AuthorityKeyId)
	assert.False(t, parsed.IsCA)
}

func TestBuildCertificate_Serial(t *testing.T) {
	key := testKey(t)

	for _, serial := range []uint32{0, 42, math.MaxUint32} {
		tmpl := caTemplate()
		tmpl.Serial = serial

		cert, err := BuildCertificate(key, tmpl)
		require.NoError(t, err)
		require.Equal(t, uint64(serial), cert.X509().SerialNumber.Uint64())
	}
}

func TestBuildCertificate_NameOrder(t *testing.T) {
	key := testKey(t)

	forward := caTemplate()
	forward.Subject = []NameEntry{{Name: "CN", Value: "a"}, {Name: "O", Value: "b"}}

	reversed := caTemplate()
	reversed.Subject = []NameEntry{{Name: "O", Value: "b"}, {Name: "CN", Value: "a"}}

	c1, err := BuildCertificate(key, forward)
	require.NoError(t, err)
	c2, err := BuildCertificate(key, reversed)
	require.NoError(t, err)

	require.NotEqual(t, c1.X509().RawSubject, c2.X509().RawSubject)

	want, err := encodeName(forward.Subject)
	require.NoError(t, err)
	require.Equal(t, want, c1.X509().RawSubject)

	names := c1.X509().Subject.Names
	require.Len(t, names, 2)
	assert.Equal(t, "a", names[0].Value)
	assert.Equal(t, "b", names[1].Value)
}

func TestBuildCertificate_Errors(t *testing.T) {
	key := testKey(t)
	badPEM := "not a public key"

	tests := []struct {
		name    string
		mutate  func(*CertificateTemplate)
		wantErr error
		wantMsg string
	}{
		{
			name:    "start date without time",
			mutate:  func(c *CertificateTemplate) { c.StartDate = "2024-01-01" },
			wantErr: store.ErrTimeFormat,
			wantMsg: "start_date",
		},
		{
			name:    "expiry date with space separator",
			mutate:  func(c *CertificateTemplate) { c.ExpiryDate = "2034-01-01 00:00:00Z" },
			wantErr: store.ErrTimeFormat,
			wantMsg: "expiry_date",
		},
		{
			name:    "empty expiry date",
			mutate:  func(c *CertificateTemplate) { c.ExpiryDate = "" },
			wantErr: store.ErrTimeFormat,
			wantMsg: "expiry_date",
		},
		{
			name: "duplicate subject attribute via alias",
			mutate: func(c *CertificateTemplate) {
				c.Subject = []NameEntry{{Name: "CN", Value: "a"}, {Name: "commonName", Value: "b"}}
			},
			wantErr: store.ErrValidation,
			wantMsg: "subject name",
		},
		{
			name: "duplicate issuer attribute via OID",
			mutate: func(c *CertificateTemplate) {
				c.Issuer = []NameEntry{{Name: "O", Value: "a"}, {Name: "2.5.4.10", Value: "b"}}
			},
			wantErr: store.ErrValidation,
			wantMsg: "issuer name",
		},
		{
			name:    "unknown attribute",
			mutate:  func(c *CertificateTemplate) { c.Subject = []NameEntry{{Name: "nickname", Value: "x"}} },
			wantErr: store.ErrValidation,
		},
		{
			name:    "country too long",
			mutate:  func(c *CertificateTemplate) { c.Subject = []NameEntry{{Name: "C", Value: "AUS"}} },
			wantErr: store.ErrValidation,
		},
		{
			name:    "country not printable",
			mutate:  func(c *CertificateTemplate) { c.Subject = []NameEntry{{Name: "C", Value: "A*"}} },
			wantErr: store.ErrValidation,
		},
		{
			name:    "invalid utf8",
			mutate:  func(c *CertificateTemplate) { c.Subject = []NameEntry{{Name: "CN", Value: "\xff"}} },
			wantErr: store.ErrCodec,
		},
		{
			name:    "malformed subject public key",
			mutate:  func(c *CertificateTemplate) { c.SubjectPublicKey = &badPEM },
			wantErr: store.ErrCodec,
			wantMsg: "subject public key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := caTemplate()
			tt.mutate(&tmpl)

			require.ErrorIs(t, tmpl.Validate(), tt.wantErr)

			prepared, err := tmpl.Prepare()
			require.ErrorIs(t, err, tt.wantErr)
			require.Nil(t, prepared)

			_, err = BuildCertificate(key, tmpl)
			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				require.ErrorContains(t, err, tt.wantMsg)
			}
		})
	}
}

func TestKeyUsageEncoding(t *testing.T) {
	tests := []struct {
		name      string
		ku        KeyUsage
		wantBytes []byte
		wantLen   int
	}{
		{"none", KeyUsage{}, nil, 0},
		{"keyCertSign", KeyUsage{KeyCertSign: true}, []byte{0x04}, 6},
		{"cRLSign", KeyUsage{CRLSign: true}, []byte{0x02}, 7},
		{"both", KeyUsage{KeyCertSign: true, CRLSign: true}, []byte{0x06}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := tt.ku.extension()
			require.NoError(t, err)
			require.Equal(t, OIDExtensionKeyUsage, ext.Id)

			var bits asn1.BitString
			_, err = asn1.Unmarshal(ext.Value, &bits)
			require.NoError(t, err)
			require.Equal(t, tt.wantLen, bits.BitLength)
			if tt.wantLen > 0 {
				require.Equal(t, tt.wantBytes, bits.Bytes)
			}
		})
	}
}

func TestBasicConstraintsEncoding(t *testing.T) {
	ext, err := BasicConstraints{CA: false}.extension()
	require.NoError(t, err)
	require.Equal(t, []byte{0x30, 0x00}, ext.Value)

	ext, err = BasicConstraints{CA: true, Critical: true}.extension()
	require.NoError(t, err)
	require.Equal(t, []byte{0x30, 0x03, 0x01, 0x01, 0xff}, ext.Value)
	require.True(t, ext.Critical)
}

func TestCertificate_PEM(t *testing.T) {
	key := testKey(t)

	cert, err := BuildCertificate(key, caTemplate())
	require.NoError(t, err)

	parsed, err := ParseCertificatePEM([]byte(cert.PEM()))
	require.NoError(t, err)
	require.Equal(t, cert.DER(), parsed.Raw)
}
