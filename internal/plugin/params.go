package plugin

import (
	"fmt"

	"github.com/wolfeidau/nixcrypto/internal/credential"
	"github.com/wolfeidau/nixcrypto/internal/pki"
	"github.com/wolfeidau/nixcrypto/internal/store"
)

// PrivateKeyIdentity names a private key on the host side.
type PrivateKeyIdentity struct {
	KeyType string `yaml:"key_type" json:"key_type"`
	KeyID   string `yaml:"key_id" json:"key_id"`
}

// X509NameItem is one distinguished name component.
type X509NameItem struct {
	EntryName  string `yaml:"entry_name" json:"entry_name"`
	EntryValue string `yaml:"entry_value" json:"entry_value"`
}

// X509KeyUsage declares the KeyUsage extension.
type X509KeyUsage struct {
	Critical    bool `yaml:"critical" json:"critical"`
	KeyCertSign bool `yaml:"key_cert_sign" json:"key_cert_sign"`
	CRLSign     bool `yaml:"crl_sign" json:"crl_sign"`
}

// X509BasicConstraints declares the BasicConstraints extension.
type X509BasicConstraints struct {
	Critical bool `yaml:"critical" json:"critical"`
	CA       bool `yaml:"ca" json:"ca"`
}

// X509BuildParams is the host's description of a certificate. The host
// cannot express optional values, so each optional is a list holding zero or
// one element.
type X509BuildParams struct {
	SubjectPublicKey          []string               `yaml:"subject_public_key" json:"subject_public_key"`
	SigningPrivateKeyIdentity PrivateKeyIdentity     `yaml:"signing_private_key_identity" json:"signing_private_key_identity"`
	IssuerName                []X509NameItem         `yaml:"issuer_name" json:"issuer_name"`
	SubjectName               []X509NameItem         `yaml:"subject_name" json:"subject_name"`
	Serial                    uint32                 `yaml:"serial" json:"serial"`
	StartDate                 string                 `yaml:"start_date" json:"start_date"`
	ExpiryDate                string                 `yaml:"expiry_date" json:"expiry_date"`
	ExtensionKeyUsage         []X509KeyUsage         `yaml:"extension_key_usage" json:"extension_key_usage"`
	ExtensionBasicConstraints []X509BasicConstraints `yaml:"extension_basic_constraints" json:"extension_basic_constraints"`
}

// Identity converts to the credential identity.
func (id PrivateKeyIdentity) Identity() credential.KeyIdentity {
	return credential.KeyIdentity{KeyType: id.KeyType, KeyID: id.KeyID}
}

// ToParams converts list encoded optionals into pointers. A list with more
// than one element fails with store.ErrValidation.
func (p X509BuildParams) ToParams() (credential.CertificateParams, error) {
	params := credential.CertificateParams{
		SigningKey: p.SigningPrivateKeyIdentity.Identity(),
		CertificateTemplate: pki.CertificateTemplate{
			Issuer:     nameEntries(p.IssuerName),
			Subject:    nameEntries(p.SubjectName),
			Serial:     p.Serial,
			StartDate:  p.StartDate,
			ExpiryDate: p.ExpiryDate,
		},
	}

	subjectKey, err := optional("subject_public_key", p.SubjectPublicKey)
	if err != nil {
		return credential.CertificateParams{}, err
	}
	params.SubjectPublicKey = subjectKey

	ku, err := optional("extension_key_usage", p.ExtensionKeyUsage)
	if err != nil {
		return credential.CertificateParams{}, err
	}
	if ku != nil {
		params.KeyUsage = &pki.KeyUsage{
			Critical:    ku.Critical,
			KeyCertSign: ku.KeyCertSign,
			CRLSign:     ku.CRLSign,
		}
	}

	bc, err := optional("extension_basic_constraints", p.ExtensionBasicConstraints)
	if err != nil {
		return credential.CertificateParams{}, err
	}
	if bc != nil {
		params.BasicConstraints = &pki.BasicConstraints{
			Critical: bc.Critical,
			CA:       bc.CA,
		}
	}

	return params, nil
}

func optional[T any](field string, values []T) (*T, error) {
	switch len(values) {
	case 0:
		return nil, nil
	case 1:
		v := values[0]
		return &v, nil
	default:
		return nil, fmt.Errorf("%w: '%s' must contain at most one element, got %d", store.ErrValidation, field, len(values))
	}
}

func nameEntries(items []X509NameItem) []pki.NameEntry {
	if items == nil {
		return nil
	}

	entries := make([]pki.NameEntry, len(items))
	for i, item := range items {
		entries[i] = pki.NameEntry{Name: item.EntryName, Value: item.EntryValue}
	}
	return entries
}
