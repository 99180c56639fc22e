package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/quickdb/internal/diff"
)

// Diff compares a stored value with the JSON in a local file
func Diff(opts Options, key, file string) {
	env := OpenOrExit(opts)
	defer env.Close()

	if err := env.Diff(opts, key, file); err != nil {
		HandleError(err)
	}
}

func (e *Env) Diff(opts Options, key, file string) error {
	inst, err := e.Instance(opts)
	if err != nil {
		return err
	}

	stored, err := inst.Get(key)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}

	out, err := diff.Values(key, stored, ParseValue(string(raw)))
	if err != nil {
		return err
	}
	if out == "" {
		fmt.Fprintf(e.Out, "%s: unchanged\n", key)
		return nil
	}
	fmt.Fprint(e.Out, out)
	return nil
}
