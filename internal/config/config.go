// Package config loads quickdb settings.
//
// Sources, later ones winning: built-in defaults, a YAML file, and
// environment variables with the QUICKDB_ prefix
// (QUICKDB_PERSISTENT_DRIVER sets persistent.driver).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	DefaultEnvPrefix = "QUICKDB_"
	DefaultFile      = ".quickdb.yaml"
	DefaultDataFile  = ".quickdb"
	SessionFile      = "quickdb-session.db"
)

// Confirmation modes
const (
	ConfirmAuto = "auto"
	ConfirmTUI  = "tui"
	ConfirmLine = "line"
	ConfirmYes  = "yes"
	ConfirmNo   = "no"
)

var ErrInvalid = errors.New("invalid configuration")

// Area locates one storage area
type Area struct {
	Driver string `koanf:"driver"`
	Path   string `koanf:"path"`
}

// Log configures the process logger
type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Confirm configures the delete prompt
type Confirm struct {
	Mode string `koanf:"mode"`
}

// Config is the resolved configuration
type Config struct {
	Persistent Area    `koanf:"persistent"`
	Session    Area    `koanf:"session"`
	Log        Log     `koanf:"log"`
	Confirm    Confirm `koanf:"confirm"`
}

// Defaults returns the built-in settings
func Defaults() map[string]any {
	return map[string]any{
		"persistent": map[string]any{
			"driver": "bolt",
			"path":   DefaultDataFile,
		},
		"session": map[string]any{
			"driver": "bolt",
			"path":   filepath.Join(os.TempDir(), SessionFile),
		},
		"log": map[string]any{
			"level":  "warn",
			"format": "console",
		},
		"confirm": map[string]any{
			"mode": ConfirmAuto,
		},
	}
}

type loader struct {
	file      string
	required  bool
	envPrefix string
}

// Option configures Load
type Option func(*loader)

// WithFile loads path, which must exist
func WithFile(path string) Option {
	return func(l *loader) {
		if path != "" {
			l.file = path
			l.required = true
		}
	}
}

// WithDir looks for DefaultFile in dir; a missing file is skipped
func WithDir(dir string) Option {
	return func(l *loader) {
		if !l.required {
			l.file = filepath.Join(dir, DefaultFile)
		}
	}
}

// WithEnvPrefix sets the environment variable prefix
func WithEnvPrefix(prefix string) Option {
	return func(l *loader) {
		l.envPrefix = prefix
	}
}

// Load resolves the configuration
func Load(opts ...Option) (*Config, error) {
	l := &loader{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(l)
	}

	k := koanf.New(".")
	if err := k.Load(mapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if l.file != "" {
		_, statErr := os.Stat(l.file)
		if statErr == nil || l.required {
			if err := k.Load(file.Provider(l.file), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", l.file, err)
			}
		}
	}

	prefix := l.envPrefix
	transform := func(s string) string {
		s = strings.TrimPrefix(s, prefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "_", ".")
	}
	if err := k.Load(env.Provider(prefix, ".", transform), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated settings
func (c *Config) Validate() error {
	for name, a := range map[string]Area{"persistent": c.Persistent, "session": c.Session} {
		switch a.Driver {
		case "bolt", "badger":
			if a.Path == "" {
				return fmt.Errorf("%w: %s.path is empty", ErrInvalid, name)
			}
		case "memory":
		default:
			return fmt.Errorf("%w: %s.driver %q", ErrInvalid, name, a.Driver)
		}
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format)
	}

	switch c.Confirm.Mode {
	case ConfirmAuto, ConfirmTUI, ConfirmLine, ConfirmYes, ConfirmNo:
	default:
		return fmt.Errorf("%w: confirm.mode %q", ErrInvalid, c.Confirm.Mode)
	}
	return nil
}

// mapProvider feeds a plain map to koanf
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("config: map provider has no bytes")
}

func (m mapProvider) Read() (map[string]any, error) {
	return m, nil
}
