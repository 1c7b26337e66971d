// Package plugin is the boundary a host runtime calls into. It converts host
// parameter shapes into credential types and returns only PEM text.
package plugin

import (
	"context"
	"sync"

	"github.com/wolfeidau/nixcrypto/internal/credential"
)

// Plugin is one store instance owned by the host. The host calls Init before
// first use and Close at shutdown.
type Plugin struct {
	manager   *credential.Manager
	closeOnce sync.Once
	closeErr  error
}

// Init constructs a Plugin from the host's construction string. It never
// fails; configuration errors surface on the first call instead.
func Init(args string, cfg credential.Config) *Plugin {
	return &Plugin{manager: credential.NewFromArgs(args, cfg)}
}

// Manager returns the underlying credential manager.
func (p *Plugin) Manager() *credential.Manager {
	return p.manager
}

// PublicKeyPEM returns the public key for identity, generating the private
// key on first use.
func (p *Plugin) PublicKeyPEM(ctx context.Context, identity PrivateKeyIdentity) (string, error) {
	return p.manager.PublicKeyPEM(ctx, identity.Identity())
}

// X509CertificatePEM builds the certificate described by params. Parameter
// cardinality is checked before any key is loaded or generated.
func (p *Plugin) X509CertificatePEM(ctx context.Context, params X509BuildParams) (string, error) {
	certParams, err := params.ToParams()
	if err != nil {
		return "", err
	}

	cert, err := p.manager.Certificate(ctx, certParams)
	if err != nil {
		return "", err
	}

	return cert.PEM(), nil
}

// Close releases the store. It is safe to call more than once.
func (p *Plugin) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.manager.Close()
	})
	return p.closeErr
}
