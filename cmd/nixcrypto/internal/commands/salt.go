package commands

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/wolfeidau/nixcrypto/internal/store"
)

// SaltCmd prints the store salt as hex.
type SaltCmd struct{}

func (c *SaltCmd) Run(ctx context.Context, globals *Globals) error {
	s := openSession(ctx, globals)
	defer s.close(ctx)

	manager := s.plugin.Manager()
	if ff, ok := manager.Store().(*store.FailFast); ok {
		return fmt.Errorf("failed to read salt: %w", ff.Cause())
	}

	_, err := fmt.Fprintln(globals.Stdout, hex.EncodeToString(manager.Salt()))
	return err
}
