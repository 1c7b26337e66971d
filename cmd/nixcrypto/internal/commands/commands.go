package commands

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/nixcrypto/internal/credential"
	"github.com/wolfeidau/nixcrypto/internal/logger"
	"github.com/wolfeidau/nixcrypto/internal/plugin"
	"github.com/wolfeidau/nixcrypto/internal/telemetry"
)

const serviceName = "nixcrypto"

type Globals struct {
	Debug     bool
	Version   string
	Args      string
	Telemetry bool
	Stdout    io.Writer

	// KeyGenerator overrides key generation, used by tests.
	KeyGenerator credential.KeyGenerator
}

// session is one plugin lifecycle: Init on open, Close and telemetry flush
// on close.
type session struct {
	plugin   *plugin.Plugin
	logger   zerolog.Logger
	shutdown telemetry.ShutdownFunc
}

func openSession(ctx context.Context, globals *Globals) *session {
	log := logger.Setup(globals.Debug)

	s := &session{logger: log}

	if globals.Telemetry {
		shutdown, err := telemetry.InitTelemetry(ctx, log, serviceName, globals.Version)
		if err != nil {
			log.Warn().Err(err).Msg("telemetry disabled")
		} else {
			s.shutdown = shutdown
		}
	}

	s.plugin = plugin.Init(globals.Args, credential.Config{
		Logger:       log,
		KeyGenerator: globals.KeyGenerator,
	})

	return s
}

func (s *session) close(ctx context.Context) {
	if err := s.plugin.Close(); err != nil {
		s.logger.Error().Err(err).Msg("failed to close store")
	}

	if s.shutdown != nil {
		if err := s.shutdown(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("failed to flush telemetry")
		}
	}
}
