package pki

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"unicode/utf8"

	"github.com/wolfeidau/nixcrypto/internal/store"
)

// NameEntry is one (attribute, value) component of a distinguished name.
type NameEntry struct {
	Name  string
	Value string
}

// encodeName builds the DER encoded RDNSequence for entries. Each entry
// becomes its own single-valued RDN, in input order, so the same entries in
// the same order always encode to the same bytes. An attribute may appear
// only once, whichever alias names it.
func encodeName(entries []NameEntry) ([]byte, error) {
	rdns := make(pkix.RDNSequence, 0, len(entries))
	seen := make(map[string]string, len(entries))

	for _, entry := range entries {
		if entry.Name == "" {
			return nil, fmt.Errorf("%w: name entry with empty attribute", store.ErrValidation)
		}

		attr, err := lookupNameAttribute(entry.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrValidation, err)
		}

		if prev, dup := seen[attr.oid.String()]; dup {
			return nil, fmt.Errorf("%w: duplicate name attribute %q (already set as %q)", store.ErrValidation, entry.Name, prev)
		}
		seen[attr.oid.String()] = entry.Name

		if err := validateAttributeValue(attr, entry.Value); err != nil {
			return nil, err
		}

		rdns = append(rdns, pkix.RelativeDistinguishedNameSET{{
			Type: attr.oid,
			Value: asn1.RawValue{
				Class: asn1.ClassUniversal,
				Tag:   attr.tag,
				Bytes: []byte(entry.Value),
			},
		}})
	}

	der, err := asn1.Marshal(rdns)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode name: %v", store.ErrValidation, err)
	}

	return der, nil
}

func validateAttributeValue(attr nameAttribute, value string) error {
	if !utf8.ValidString(value) {
		return fmt.Errorf("%w: value of %s is not valid UTF-8", store.ErrCodec, attr.shortName)
	}

	switch attr.tag {
	case asn1.TagPrintableString:
		for i := 0; i < len(value); i++ {
			if !isPrintable(value[i]) {
				return fmt.Errorf("%w: value of %s contains characters outside PrintableString", store.ErrValidation, attr.shortName)
			}
		}
	case asn1.TagIA5String:
		for i := 0; i < len(value); i++ {
			if value[i] > 0x7f {
				return fmt.Errorf("%w: value of %s contains characters outside IA5String", store.ErrValidation, attr.shortName)
			}
		}
	}

	if attr.shortName == "C" && len(value) != 2 {
		return fmt.Errorf("%w: countryName must be a two letter code, got %q", store.ErrValidation, value)
	}

	return nil
}

// isPrintable reports whether b is in the ASN.1 PrintableString alphabet.
func isPrintable(b byte) bool {
	return 'a' <= b && b <= 'z' ||
		'A' <= b && b <= 'Z' ||
		'0' <= b && b <= '9' ||
		'\'' <= b && b <= ')' ||
		'+' <= b && b <= '/' ||
		b == ' ' ||
		b == ':' ||
		b == '=' ||
		b == '?'
}
