package cmd

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/illarion/quickdb/internal/git"
	"github.com/illarion/quickdb/internal/keyring"
	"github.com/illarion/quickdb/internal/storage"
)

// Status shows the data file, its instances and the shared log
func Status(opts Options) {
	env := OpenOrExit(opts)
	defer env.Close()

	if err := env.Status(); err != nil {
		HandleError(err)
	}
}

func (e *Env) Status() error {
	cfg := e.Config
	fmt.Fprintf(e.Out, "Data file: %s (%s)\n", cfg.Persistent.Path, cfg.Persistent.Driver)
	if info, err := os.Stat(cfg.Persistent.Path); err == nil && !info.IsDir() {
		fmt.Fprintf(e.Out, "Size: %s\n", formatSize(info.Size()))
	}
	if mt, ok := e.Persistent.(storage.ModTimer); ok {
		if modified, err := mt.Modified(); err == nil {
			fmt.Fprintf(e.Out, "Last write: %s\n", modified.Format(time.RFC3339))
		}
	}
	fmt.Fprintf(e.Out, "Session area: %s (%s)\n", cfg.Session.Path, cfg.Session.Driver)

	names, err := e.Persistent.Namespaces()
	if err != nil {
		return err
	}

	fmt.Fprintln(e.Out, "\nInstances:")
	shown := 0
	for _, name := range names {
		if strings.HasPrefix(name, "__") {
			continue
		}
		shown++
		if err := e.printInstance(name); err != nil {
			return err
		}
	}
	// Registered instances without data yet
	for _, name := range e.Registry.Names() {
		if slices.Contains(names, name) {
			continue
		}
		shown++
		if err := e.printInstance(name); err != nil {
			return err
		}
	}
	if shown == 0 {
		fmt.Fprintln(e.Out, "  (none)")
	}

	entries, err := e.Registry.Logs()
	if err != nil {
		return err
	}
	fmt.Fprintf(e.Out, "\nLog entries: %d\n", len(entries))

	if cfg.Persistent.Driver != storage.DriverMemory {
		fmt.Fprint(e.Out, git.Format(git.Check(".", cfg.Persistent.Path)))
	}
	return nil
}

func (e *Env) printInstance(name string) error {
	keys, err := e.Persistent.Keys(name)
	if err != nil {
		return err
	}
	obfuscated, err := e.Registry.HasPeerKey(storage.Persistent, name)
	if err != nil {
		return err
	}

	var flags []string
	if obfuscated {
		flags = append(flags, "obfuscated")
		if keyring.HasKey(e.account(name)) {
			flags = append(flags, "key in keyring")
		}
	}
	suffix := ""
	if len(flags) > 0 {
		suffix = ", " + strings.Join(flags, ", ")
	}
	fmt.Fprintf(e.Out, "  %s (%d keys%s)\n", name, len(keys), suffix)
	return nil
}
