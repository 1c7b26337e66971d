package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/nixcrypto/internal/logger"
	"github.com/wolfeidau/nixcrypto/internal/pki"
	"github.com/wolfeidau/nixcrypto/internal/plugin"
)

// PublicKeyCmd prints the PEM public key for an identity.
type PublicKeyCmd struct {
	KeyType string `help:"Private key type." default:"rsa" enum:"rsa"`
	KeyID   string `help:"Private key identifier." required:""`
}

func (c *PublicKeyCmd) Run(ctx context.Context, globals *Globals) error {
	s := openSession(ctx, globals)
	defer s.close(ctx)

	pubPEM, err := s.plugin.PublicKeyPEM(ctx, plugin.PrivateKeyIdentity{KeyType: c.KeyType, KeyID: c.KeyID})
	if err != nil {
		return fmt.Errorf("failed to get public key: %w", err)
	}

	pub, err := pki.ParsePublicKeyPEM([]byte(pubPEM))
	if err == nil {
		fingerprint, fpErr := pki.Fingerprint(pub)
		logger.Fingerprint(s.logger.Info(), fingerprint, fpErr).
			Str("key_type", c.KeyType).
			Str("key_id", c.KeyID).
			Msg("public key")
	}

	_, err = fmt.Fprint(globals.Stdout, pubPEM)
	return err
}
