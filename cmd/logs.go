package cmd

import (
	"fmt"

	"github.com/illarion/quickdb/internal/quickdb"
)

// Logs prints or clears the shared log
func Logs(opts Options, clear bool, level string) {
	env := OpenOrExit(opts)
	defer env.Close()

	if err := env.Logs(clear, level, opts.Instance); err != nil {
		HandleError(err)
	}
}

// Logs prints entries oldest first, optionally filtered by level and
// instance, or clears them.
func (e *Env) Logs(clear bool, level, instance string) error {
	if clear {
		if err := e.Registry.ClearLogs(); err != nil {
			return err
		}
		fmt.Fprintln(e.Out, "All logs cleared")
		return nil
	}

	var want quickdb.Level
	if level != "" {
		l, err := quickdb.ParseLevel(level)
		if err != nil {
			return err
		}
		want = l
	}

	entries, err := e.Registry.Logs()
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if want != "" && entry.Level != want {
			continue
		}
		if instance != "" && entry.Instance != instance {
			continue
		}
		fmt.Fprintf(e.Out, "%s %-5s [%s] %s\n", entry.Timestamp, entry.Level, entry.Instance, entry.Message)
	}
	return nil
}
