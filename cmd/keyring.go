package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/quickdb/internal/keyring"
	"github.com/illarion/quickdb/internal/quickdb"
	"github.com/illarion/quickdb/internal/storage"
)

// KeyringSave copies an instance's stored key to the OS keyring
func KeyringSave(opts Options) {
	env := OpenOrExit(opts)
	defer env.Close()

	if err := env.KeyringSave(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to save to keyring: %s\n", err)
		os.Exit(1)
	}
}

func (e *Env) KeyringSave(opts Options) error {
	name := instanceName(opts)
	raw, ok, err := e.Persistent.Get(storage.ReservedNamespace, quickdb.PeerKey(name))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("instance %s has no stored key", name)
	}
	if err := keyring.SaveKey(e.account(name), string(raw)); err != nil {
		return err
	}
	fmt.Fprintf(e.Out, "Key for %s saved to keyring\n", name)
	return nil
}

// KeyringDelete removes an instance's key from the OS keyring
func KeyringDelete(opts Options) {
	env := OpenOrExit(opts)
	defer env.Close()
	env.KeyringDelete(opts)
}

func (e *Env) KeyringDelete(opts Options) {
	name := instanceName(opts)
	if err := keyring.DeleteKey(e.account(name)); err != nil {
		fmt.Fprintf(e.Out, "No key for %s stored in keyring\n", name)
		return
	}
	fmt.Fprintf(e.Out, "Key for %s removed from keyring\n", name)
}

// KeyringStatus reports whether the keyring holds an instance's key
func KeyringStatus(opts Options) {
	env := OpenOrExit(opts)
	defer env.Close()
	env.KeyringStatus(opts)
}

func (e *Env) KeyringStatus(opts Options) {
	name := instanceName(opts)
	if keyring.HasKey(e.account(name)) {
		fmt.Fprintf(e.Out, "Key for %s: stored in keyring\n", name)
	} else {
		fmt.Fprintf(e.Out, "Key for %s: not stored\n", name)
	}
}

func (e *Env) account(name string) string {
	return keyring.Account(e.Config.Persistent.Path, name)
}

// instanceName defaults to User, the instance that has a key
func instanceName(opts Options) string {
	if opts.Instance == "" {
		return quickdb.UserName
	}
	return opts.Instance
}
