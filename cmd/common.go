package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/illarion/quickdb/internal/config"
	"github.com/illarion/quickdb/internal/confirm"
	"github.com/illarion/quickdb/internal/keyring"
	"github.com/illarion/quickdb/internal/logging"
	"github.com/illarion/quickdb/internal/obfuscate"
	"github.com/illarion/quickdb/internal/quickdb"
	"github.com/illarion/quickdb/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// PassphraseEnv is read before prompting for --passphrase
const PassphraseEnv = "QUICKDB_PASSPHRASE"

var ErrKeyNotFound = errors.New("key not found")

// Options are the flags shared by the data commands
type Options struct {
	Instance   string
	ConfigFile string
	Verbose    bool
	Obfuscate  bool
	Key        string
	Passphrase bool
}

// Env is an opened pair of storage areas with their registry
type Env struct {
	Config     *config.Config
	Logger     *zap.Logger
	Persistent storage.Area
	Session    storage.Area
	Registry   *quickdb.Registry
	Out        io.Writer
}

// Open loads configuration and opens both storage areas
func Open(opts Options) (*Env, error) {
	cfg, err := config.Load(config.WithDir("."), config.WithFile(opts.ConfigFile))
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log, opts.Verbose)
	if err != nil {
		return nil, err
	}

	persistent, err := storage.Open(cfg.Persistent.Driver, cfg.Persistent.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.Persistent.Path, err)
	}
	session, err := storage.Open(cfg.Session.Driver, cfg.Session.Path, logger)
	if err != nil {
		persistent.Close()
		return nil, fmt.Errorf("failed to open session area %s: %w", cfg.Session.Path, err)
	}

	env, err := NewEnv(cfg, logger, persistent, session, Confirmer(cfg.Confirm.Mode))
	if err != nil {
		session.Close()
		persistent.Close()
		return nil, err
	}
	return env, nil
}

// OpenOrExit is like Open but exits on error
func OpenOrExit(opts Options) *Env {
	env, err := Open(opts)
	if err != nil {
		HandleError(err)
	}
	return env
}

// NewEnv wires a registry over already opened areas
func NewEnv(cfg *config.Config, logger *zap.Logger, persistent, session storage.Area, c confirm.Confirmer) (*Env, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg, err := quickdb.NewRegistry(persistent, session,
		quickdb.WithConfirmer(c),
		quickdb.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return &Env{
		Config:     cfg,
		Logger:     logger,
		Persistent: persistent,
		Session:    session,
		Registry:   reg,
		Out:        os.Stdout,
	}, nil
}

// Close releases both areas
func (e *Env) Close() {
	if err := e.Session.Close(); err != nil {
		e.Logger.Warn("failed to close session area", zap.Error(err))
	}
	if err := e.Persistent.Close(); err != nil {
		e.Logger.Warn("failed to close data file", zap.Error(err))
	}
	_ = e.Logger.Sync()
}

// Confirmer returns the prompt for a confirm.mode setting
func Confirmer(mode string) confirm.Confirmer {
	switch mode {
	case config.ConfirmTUI:
		return confirm.Terminal{In: os.Stdin, Out: os.Stderr}
	case config.ConfirmLine:
		return confirm.Line{In: os.Stdin, Out: os.Stderr}
	case config.ConfirmYes:
		return confirm.Static(true)
	case config.ConfirmNo:
		return confirm.Static(false)
	default:
		return confirm.Auto(os.Stdin, os.Stderr)
	}
}

// Instance resolves the instance selected by opts. An instance is
// obfuscated when asked to, when a key is supplied, when a key is
// stored for it, or when the OS keyring holds one. A key from the
// keyring is never written to the data file.
func (e *Env) Instance(opts Options) (*quickdb.Instance, error) {
	name := opts.Instance
	if name == "" {
		name = quickdb.GlobalName
	}
	if err := quickdb.ValidateName(name); err != nil {
		return nil, err
	}

	key, err := e.explicitKey(opts, name)
	if err != nil {
		return nil, err
	}
	stored, err := e.Registry.HasPeerKey(storage.Persistent, name)
	if err != nil {
		return nil, err
	}
	detached := false
	if key == "" && !stored {
		key = e.keyringKey(name)
		detached = key != ""
	}

	current, registered := e.Registry.Instance(name)
	obfuscated := opts.Obfuscate || key != "" || stored || (registered && current.Obfuscated())
	if registered && key == "" && current.Obfuscated() == obfuscated {
		return current, nil
	}
	return e.Registry.Create(name, quickdb.InstanceOptions{
		Obfuscate:   obfuscated,
		Key:         key,
		DetachedKey: detached,
	})
}

func (e *Env) explicitKey(opts Options, name string) (string, error) {
	if opts.Key != "" {
		if err := obfuscate.ValidateKey(opts.Key); err != nil {
			return "", err
		}
		return opts.Key, nil
	}
	if !opts.Passphrase {
		return "", nil
	}

	passphrase, err := GetPassphrase("Enter passphrase: ")
	if err != nil {
		return "", err
	}
	defer obfuscate.ClearBytes(passphrase)
	return obfuscate.DeriveKey(passphrase, name), nil
}

func (e *Env) keyringKey(name string) string {
	if e.Config == nil {
		return ""
	}
	key, err := keyring.GetKey(keyring.Account(e.Config.Persistent.Path, name))
	if err != nil {
		if !keyring.IsNotFound(err) {
			e.Logger.Debug("keyring unavailable", zap.Error(err))
		}
		return ""
	}
	e.Logger.Debug("using key from keyring", zap.String("instance", name))
	return key
}

// GetPassphrase reads the passphrase from the environment or prompts.
// The caller should clear the returned bytes.
func GetPassphrase(prompt string) ([]byte, error) {
	if p := os.Getenv(PassphraseEnv); p != "" {
		return []byte(p), nil
	}

	fmt.Fprint(os.Stderr, prompt)
	passphrase, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("passphrase required")
	}
	return passphrase, nil
}

// ParseValue decodes s as JSON, falling back to the plain string
func ParseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

// HandleError prints err for the user and exits
func HandleError(err error) {
	switch {
	case errors.Is(err, ErrKeyNotFound):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Use 'quickdb keys' to list stored keys\n")
	case errors.Is(err, quickdb.ErrDeserialization):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Wrong obfuscation key? Try --key, --passphrase or 'quickdb keyring status'\n")
	case errors.Is(err, quickdb.ErrInvalidName):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Instance names must not be empty or start with \"__\"\n")
	case errors.Is(err, obfuscate.ErrInvalidKey), errors.Is(err, obfuscate.ErrEmptyKey):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Keys are hex strings, as printed by 'quickdb keyring save'\n")
	case errors.Is(err, config.ErrInvalid):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Check .quickdb.yaml and QUICKDB_* environment variables\n")
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	os.Exit(1)
}
