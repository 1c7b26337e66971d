// Package config parses the single line construction string the host passes
// to the credential store, for example "mode=filesystem&store-path=/var/lib/x".
package config

import (
	"fmt"
	"strings"

	"github.com/wolfeidau/nixcrypto/internal/store"
)

// Option keys
const (
	KeyMode      = "mode"
	KeyStorePath = "store-path"
)

// Mode selects the store backend.
type Mode string

const (
	// ModeFilesystem stores credentials in a bbolt file under StorePath.
	ModeFilesystem Mode = "filesystem"
)

// Config is a parsed construction string.
type Config struct {
	Mode      Mode
	StorePath string

	// Unknown lists keys that were present but not recognised, in order of
	// first appearance.
	Unknown []string
}

// Values holds every value given for each key, in input order.
type Values map[string][]string

// Split breaks args into key/value pairs. Pairs are separated by '&' and the
// key ends at the first '='. A pair without '=' has an empty value; empty
// pairs are skipped.
func Split(args string) (Values, []string) {
	values := Values{}
	var order []string

	for _, pair := range strings.Split(args, "&") {
		if pair == "" {
			continue
		}

		key, value, _ := strings.Cut(pair, "=")
		if _, ok := values[key]; !ok {
			order = append(order, key)
		}
		values[key] = append(values[key], value)
	}

	return values, order
}

// Parse validates a construction string. Every failure wraps
// store.ErrValidation.
func Parse(args string) (*Config, error) {
	values, order := Split(args)

	modes := values[KeyMode]
	switch len(modes) {
	case 0:
		return nil, fmt.Errorf("%w: the '%s' option is not present in the configuration", store.ErrValidation, KeyMode)
	case 1:
	default:
		return nil, fmt.Errorf("%w: multiple modes were specified, the '%s' option must only be used once", store.ErrValidation, KeyMode)
	}

	cfg := &Config{Mode: Mode(modes[0])}

	switch cfg.Mode {
	case ModeFilesystem:
		path, err := single(values, KeyStorePath)
		if err != nil {
			return nil, err
		}
		cfg.StorePath = path
	default:
		return nil, fmt.Errorf("%w: the value %q is not a known operating mode", store.ErrValidation, modes[0])
	}

	for _, key := range order {
		if key != KeyMode && key != KeyStorePath {
			cfg.Unknown = append(cfg.Unknown, key)
		}
	}

	return cfg, nil
}

func single(values Values, key string) (string, error) {
	vs := values[key]
	switch len(vs) {
	case 0:
		return "", fmt.Errorf("%w: the '%s' option is not present in the configuration", store.ErrValidation, key)
	case 1:
	default:
		return "", fmt.Errorf("%w: the '%s' option must only be used once", store.ErrValidation, key)
	}

	if vs[0] == "" {
		return "", fmt.Errorf("%w: the '%s' option must not be empty", store.ErrValidation, key)
	}

	return vs[0], nil
}
