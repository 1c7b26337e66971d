package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/nixcrypto/cmd/nixcrypto/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		PublicKey   commands.PublicKeyCmd   `cmd:"" name:"public-key" help:"Print the public key for a key identity, generating the key on first use"`
		Certificate commands.CertificateCmd `cmd:"" help:"Build and sign a certificate from a YAML parameters file"`
		Salt        commands.SaltCmd        `cmd:"" help:"Print the store salt"`
		Args        string                  `help:"Store construction string, for example mode=filesystem&store-path=/var/lib/nixcrypto." env:"NIXCRYPTO_ARGS"`
		Telemetry   bool                    `help:"Export traces and metrics over OTLP." env:"NIXCRYPTO_TELEMETRY"`
		Debug       bool                    `help:"Enable debug mode."`
		Version     kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{
		Debug:     cli.Debug,
		Version:   version,
		Args:      cli.Args,
		Telemetry: cli.Telemetry,
		Stdout:    os.Stdout,
	})
	cmd.FatalIfErrorf(err)
}
