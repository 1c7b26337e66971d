package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/wolfeidau/nixcrypto/internal/plugin"
	"gopkg.in/yaml.v3"
)

// CertificateCmd builds a certificate from a YAML file holding the host
// parameter shape, for example:
//
//	signing_private_key_identity: {key_type: rsa, key_id: ca-1}
//	issuer_name: [{entry_name: CN, entry_value: Example CA}]
//	subject_name: [{entry_name: CN, entry_value: Example CA}]
//	serial: 1
//	start_date: "2025-01-01T00:00:00Z"
//	expiry_date: "2035-01-01T00:00:00Z"
//	extension_basic_constraints: [{critical: true, ca: true}]
type CertificateCmd struct {
	Params string `help:"Path to the certificate parameters YAML file." type:"existingfile" required:""`
}

func (c *CertificateCmd) Run(ctx context.Context, globals *Globals) error {
	params, err := loadBuildParams(c.Params)
	if err != nil {
		return err
	}

	s := openSession(ctx, globals)
	defer s.close(ctx)

	certPEM, err := s.plugin.X509CertificatePEM(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to build certificate: %w", err)
	}

	_, err = fmt.Fprint(globals.Stdout, certPEM)
	return err
}

func loadBuildParams(path string) (plugin.X509BuildParams, error) {
	var params plugin.X509BuildParams

	f, err := os.Open(path)
	if err != nil {
		return params, fmt.Errorf("failed to open parameters file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	if err := dec.Decode(&params); err != nil {
		return params, fmt.Errorf("failed to parse parameters file %s: %w", path, err)
	}

	return params, nil
}
