package pki

import (
	"encoding/asn1"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Extension OIDs (RFC 5280, section 4.2.1)
var (
	OIDExtensionSubjectKeyID     = asn1.ObjectIdentifier{2, 5, 29, 14}
	OIDExtensionKeyUsage         = asn1.ObjectIdentifier{2, 5, 29, 15}
	OIDExtensionBasicConstraints = asn1.ObjectIdentifier{2, 5, 29, 19}
	OIDExtensionAuthorityKeyID   = asn1.ObjectIdentifier{2, 5, 29, 35}
)

// ErrUnknownAttribute is returned when a name attribute cannot be resolved
var ErrUnknownAttribute = errors.New("unknown name attribute")

// nameAttribute describes one distinguished name attribute type and the
// ASN.1 string type its values are encoded with.
type nameAttribute struct {
	shortName string
	longName  string
	oid       asn1.ObjectIdentifier
	tag       int
}

var nameAttributes = []nameAttribute{
	{"CN", "commonName", asn1.ObjectIdentifier{2, 5, 4, 3}, asn1.TagUTF8String},
	{"SN", "surname", asn1.ObjectIdentifier{2, 5, 4, 4}, asn1.TagUTF8String},
	{"serialNumber", "serialNumber", asn1.ObjectIdentifier{2, 5, 4, 5}, asn1.TagPrintableString},
	{"C", "countryName", asn1.ObjectIdentifier{2, 5, 4, 6}, asn1.TagPrintableString},
	{"L", "localityName", asn1.ObjectIdentifier{2, 5, 4, 7}, asn1.TagUTF8String},
	{"ST", "stateOrProvinceName", asn1.ObjectIdentifier{2, 5, 4, 8}, asn1.TagUTF8String},
	{"street", "streetAddress", asn1.ObjectIdentifier{2, 5, 4, 9}, asn1.TagUTF8String},
	{"O", "organizationName", asn1.ObjectIdentifier{2, 5, 4, 10}, asn1.TagUTF8String},
	{"OU", "organizationalUnitName", asn1.ObjectIdentifier{2, 5, 4, 11}, asn1.TagUTF8String},
	{"title", "title", asn1.ObjectIdentifier{2, 5, 4, 12}, asn1.TagUTF8String},
	{"postalCode", "postalCode", asn1.ObjectIdentifier{2, 5, 4, 17}, asn1.TagUTF8String},
	{"name", "name", asn1.ObjectIdentifier{2, 5, 4, 41}, asn1.TagUTF8String},
	{"GN", "givenName", asn1.ObjectIdentifier{2, 5, 4, 42}, asn1.TagUTF8String},
	{"initials", "initials", asn1.ObjectIdentifier{2, 5, 4, 43}, asn1.TagUTF8String},
	{"dnQualifier", "dnQualifier", asn1.ObjectIdentifier{2, 5, 4, 46}, asn1.TagPrintableString},
	{"pseudonym", "pseudonym", asn1.ObjectIdentifier{2, 5, 4, 65}, asn1.TagUTF8String},
	{"emailAddress", "emailAddress", asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 1}, asn1.TagIA5String},
	{"UID", "userId", asn1.ObjectIdentifier{0, 9, 2342, 19200300, 100, 1, 1}, asn1.TagUTF8String},
	{"DC", "domainComponent", asn1.ObjectIdentifier{0, 9, 2342, 19200300, 100, 1, 25}, asn1.TagIA5String},
}

// lookupNameAttribute resolves a short name, long name or dotted OID. Names
// are case sensitive. Unregistered dotted OIDs encode as UTF8String.
func lookupNameAttribute(name string) (nameAttribute, error) {
	for _, attr := range nameAttributes {
		if name == attr.shortName || name == attr.longName {
			return attr, nil
		}
	}

	oid, err := parseDottedOID(name)
	if err != nil {
		return nameAttribute{}, fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
	}

	for _, attr := range nameAttributes {
		if attr.oid.Equal(oid) {
			return attr, nil
		}
	}

	return nameAttribute{shortName: name, longName: name, oid: oid, tag: asn1.TagUTF8String}, nil
}

// parseDottedOID parses "1.2.3" style object identifiers. At least two arcs
// are required and the first must be 0, 1 or 2.
func parseDottedOID(s string) (asn1.ObjectIdentifier, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 2 {
		return nil, fmt.Errorf("not a dotted OID: %q", s)
	}

	oid := make(asn1.ObjectIdentifier, len(parts))
	for i, part := range parts {
		arc, err := strconv.Atoi(part)
		if err != nil || arc < 0 || (part != "0" && strings.HasPrefix(part, "0")) {
			return nil, fmt.Errorf("invalid OID arc %q", part)
		}
		oid[i] = arc
	}

	if oid[0] > 2 || (oid[0] < 2 && oid[1] > 39) {
		return nil, fmt.Errorf("invalid OID root %q", s)
	}

	return oid, nil
}
