// Package credential is the typed layer over a write-once credential store.
// It owns the generate-or-fetch path for private keys and issues
// certificates signed by those keys.
package credential

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfeidau/nixcrypto/internal/config"
	"github.com/wolfeidau/nixcrypto/internal/logger"
	"github.com/wolfeidau/nixcrypto/internal/pki"
	"github.com/wolfeidau/nixcrypto/internal/store"
	"github.com/wolfeidau/nixcrypto/internal/store/bolt"
	"github.com/wolfeidau/nixcrypto/internal/telemetry"
)

// KeyGenerator creates fresh key material for a validated key type.
type KeyGenerator func(pki.KeyType) (*pki.PrivateKey, error)

// Config configures a Manager. The zero value is usable.
type Config struct {
	Logger zerolog.Logger

	// Metrics defaults to telemetry.GetMetrics.
	Metrics *telemetry.Metrics

	// KeyGenerator defaults to pki.GenerateKey.
	KeyGenerator KeyGenerator
}

// Manager issues and persists credentials in a single store.
//
// Calls may run concurrently. Two first-use calls racing on the same
// identity both generate, and the loser fails with
// store.ErrStoreInvariantViolation when it tries to persist.
type Manager struct {
	store    store.Store
	logger   zerolog.Logger
	metrics  *telemetry.Metrics
	tracer   trace.Tracer
	generate KeyGenerator
}

// New returns a Manager over st.
func New(st store.Store, cfg Config) *Manager {
	m := &Manager{
		store:    st,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		generate: cfg.KeyGenerator,
		tracer:   telemetry.Tracer(),
	}

	if m.metrics == nil {
		m.metrics = telemetry.GetMetrics()
	}
	if m.generate == nil {
		m.generate = pki.GenerateKey
	}

	return m
}

// NewFromArgs builds a Manager from a construction string such as
// "mode=filesystem&store-path=/var/lib/nixcrypto". It never fails: a bad
// configuration or a store that cannot be opened yields a Manager whose
// every store operation returns the captured error.
func NewFromArgs(args string, cfg Config) *Manager {
	m := New(nil, cfg)
	m.store = m.openStore(args)
	return m
}

func (m *Manager) openStore(args string) store.Store {
	cfg, err := config.Parse(args)
	if err != nil {
		m.logger.Warn().Err(err).Msg("invalid configuration, credential store disabled")
		return store.NewFailFast(err)
	}

	for _, key := range cfg.Unknown {
		m.logger.Debug().Str("option", key).Msg("ignoring unknown configuration option")
	}

	st, err := bolt.Open(bolt.Config{Dir: cfg.StorePath, Logger: m.logger})
	if err != nil {
		m.logger.Warn().Err(err).Str("store_path", cfg.StorePath).Msg("failed to open store, credential store disabled")
		return store.NewFailFast(err)
	}

	return st
}

// Store returns the backing store.
func (m *Manager) Store() store.Store {
	return m.store
}

// Salt returns the store salt.
func (m *Manager) Salt() []byte {
	return m.store.Salt()
}

// Close releases the store.
func (m *Manager) Close() error {
	return m.store.Close()
}

// PrivateKey returns the key stored for id, generating and persisting it on
// first use. At most one key is ever generated per identity per store. The
// key type is validated before the store is touched.
func (m *Manager) PrivateKey(ctx context.Context, id KeyIdentity) (key *pki.PrivateKey, err error) {
	ctx, span := m.tracer.Start(ctx, "credential.PrivateKey", trace.WithAttributes(
		attribute.String("key.type", id.KeyType),
		attribute.String("key.id", id.KeyID),
	))
	defer func() {
		endSpan(span, err)
	}()

	keyType, err := pki.ParseKeyType(id.KeyType)
	if err != nil {
		return nil, err
	}

	key, ok, err := Get[*pki.PrivateKey](ctx, m, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load private key %s: %w", id, err)
	}
	if ok {
		m.metrics.KeysLoadedTotal.Add(ctx, 1)
		span.SetAttributes(attribute.Bool("key.generated", false))
		return key, nil
	}

	started := time.Now()
	key, err = m.generate(keyType)
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key %s: %w", id, err)
	}
	m.metrics.KeyGenerateDuration.Record(ctx, float64(time.Since(started).Milliseconds()))

	if err := Put(ctx, m, id, key); err != nil {
		return nil, fmt.Errorf("failed to store private key %s: %w", id, err)
	}
	m.metrics.KeysGeneratedTotal.Add(ctx, 1)
	span.SetAttributes(attribute.Bool("key.generated", true))

	fingerprint, fpErr := key.Fingerprint()
	logger.Fingerprint(m.logger.Info(), fingerprint, fpErr).
		Str("key_type", id.KeyType).
		Str("key_id", id.KeyID).
		Dur("duration", time.Since(started)).
		Msg("generated private key")

	return key, nil
}

// PublicKeyPEM returns the PEM encoded public half of the key for id,
// generating the key on first use.
func (m *Manager) PublicKeyPEM(ctx context.Context, id KeyIdentity) (string, error) {
	key, err := m.PrivateKey(ctx, id)
	if err != nil {
		return "", err
	}

	return key.PublicPEM()
}

// CertificateParams describes a certificate and the key that signs it.
type CertificateParams struct {
	SigningKey KeyIdentity
	pki.CertificateTemplate
}

// Certificate builds and signs a certificate. The template is validated
// before the signing key is resolved, so a rejected template never causes
// key generation. The signing key is generated on first use.
func (m *Manager) Certificate(ctx context.Context, params CertificateParams) (cert *pki.Certificate, err error) {
	ctx, span := m.tracer.Start(ctx, "credential.Certificate", trace.WithAttributes(
		attribute.String("signing_key.type", params.SigningKey.KeyType),
		attribute.String("signing_key.id", params.SigningKey.KeyID),
		attribute.Int64("serial", int64(params.Serial)),
	))
	done := logger.Operation(m.logger, "certificate")
	defer func() {
		done(err)
		endSpan(span, err)
	}()

	prepared, err := params.Prepare()
	if err != nil {
		return nil, err
	}

	signer, err := m.PrivateKey(ctx, params.SigningKey)
	if err != nil {
		return nil, err
	}

	cert, err = prepared.Sign(signer)
	if err != nil {
		return nil, err
	}
	m.metrics.CertificatesIssuedTotal.Add(ctx, 1)

	m.logger.Info().
		Str("signing_key", params.SigningKey.String()).
		Uint32("serial", params.Serial).
		Str("subject", cert.X509().Subject.String()).
		Msg("issued certificate")

	return cert, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
