package cmd

import (
	"fmt"

	"github.com/illarion/quickdb/internal/diff"
	"github.com/illarion/quickdb/internal/quickdb"
)

// Set stores a value. raw is parsed as JSON, or kept as a string.
func Set(opts Options, key, raw string, create bool) {
	env := OpenOrExit(opts)
	defer env.Close()

	if err := env.Set(opts, key, raw, create); err != nil {
		HandleError(err)
	}
}

func (e *Env) Set(opts Options, key, raw string, create bool) error {
	inst, err := e.Instance(opts)
	if err != nil {
		return err
	}
	mode := quickdb.SetDefault
	if create {
		mode = quickdb.SetCreate
	}
	if err := inst.Set(key, ParseValue(raw), mode); err != nil {
		return err
	}
	inst.Log(fmt.Sprintf("Set %q", key), quickdb.LevelInfo)
	return nil
}

// Get prints a value. Strings print bare, everything else as JSON.
func Get(opts Options, key string) {
	env := OpenOrExit(opts)
	defer env.Close()

	if err := env.Get(opts, key); err != nil {
		HandleError(err)
	}
}

func (e *Env) Get(opts Options, key string) error {
	inst, err := e.Instance(opts)
	if err != nil {
		return err
	}
	ok, err := inst.Has(key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	v, err := inst.Get(key)
	if err != nil {
		return err
	}
	return e.printValue(v)
}

func (e *Env) printValue(v any) error {
	if s, ok := v.(string); ok {
		fmt.Fprintln(e.Out, s)
		return nil
	}
	data, err := diff.Canonical(v)
	if err != nil {
		return err
	}
	_, err = e.Out.Write(data)
	return err
}

// Has prints whether a key is stored
func Has(opts Options, key string) {
	env := OpenOrExit(opts)
	defer env.Close()

	if err := env.Has(opts, key); err != nil {
		HandleError(err)
	}
}

func (e *Env) Has(opts Options, key string) error {
	inst, err := e.Instance(opts)
	if err != nil {
		return err
	}
	ok, err := inst.Has(key)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.Out, ok)
	return nil
}

// Remove deletes keys from an instance
func Remove(opts Options, keys []string) {
	if len(keys) == 0 {
		HandleError(fmt.Errorf("no keys specified"))
	}
	env := OpenOrExit(opts)
	defer env.Close()

	if err := env.Remove(opts, keys); err != nil {
		HandleError(err)
	}
}

func (e *Env) Remove(opts Options, keys []string) error {
	inst, err := e.Instance(opts)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := inst.DeleteKey(key); err != nil {
			return err
		}
		inst.Log(fmt.Sprintf("Removed %q", key), quickdb.LevelInfo)
		fmt.Fprintf(e.Out, "removed: %s\n", key)
	}
	return nil
}

// Keys lists the keys of an instance
func Keys(opts Options) {
	env := OpenOrExit(opts)
	defer env.Close()

	if err := env.Keys(opts); err != nil {
		HandleError(err)
	}
}

func (e *Env) Keys(opts Options) error {
	inst, err := e.Instance(opts)
	if err != nil {
		return err
	}
	keys, err := inst.Keys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		fmt.Fprintln(e.Out, k)
	}
	return nil
}

// Dump prints every value of an instance as one JSON object
func Dump(opts Options) {
	env := OpenOrExit(opts)
	defer env.Close()

	if err := env.Dump(opts); err != nil {
		HandleError(err)
	}
}

func (e *Env) Dump(opts Options) error {
	inst, err := e.Instance(opts)
	if err != nil {
		return err
	}
	data, err := inst.Dump()
	if err != nil {
		return err
	}
	out, err := diff.Canonical(data)
	if err != nil {
		return err
	}
	_, err = e.Out.Write(out)
	return err
}
