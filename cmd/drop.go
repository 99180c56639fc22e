package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/quickdb/internal/confirm"
)

// Drop deletes a whole instance after confirmation
func Drop(ctx context.Context, opts Options, force bool) {
	env := OpenOrExit(opts)
	defer env.Close()

	if err := env.Drop(ctx, opts, force); err != nil {
		HandleError(err)
	}
}

func (e *Env) Drop(ctx context.Context, opts Options, force bool) error {
	inst, err := e.Instance(opts)
	if err != nil {
		return err
	}
	deleted, err := inst.Delete(ctx, force)
	if err != nil {
		return err
	}
	if !deleted {
		fmt.Fprintln(e.Out, "Cancelled")
		return nil
	}
	fmt.Fprintf(e.Out, "Instance %q deleted\n", inst.Name())
	return nil
}

// Clear wipes the data file after confirmation
func Clear(ctx context.Context, opts Options, force bool) {
	env := OpenOrExit(opts)
	defer env.Close()

	if err := env.Clear(ctx, opts, force, Confirmer(env.Config.Confirm.Mode)); err != nil {
		HandleError(err)
	}
}

func (e *Env) Clear(ctx context.Context, opts Options, force bool, c confirm.Confirmer) error {
	inst, err := e.Instance(opts)
	if err != nil {
		return err
	}

	if !force {
		ok := c.Confirm(ctx, confirm.Dialog{
			Title:        fmt.Sprintf("Clear %s storage", inst.Kind()),
			Message:      "This removes every instance, value and stored key in the area.",
			ConfirmLabel: "Clear",
			CancelLabel:  "Cancel",
			Severity:     confirm.SeverityWarning,
		})
		if !ok {
			fmt.Fprintln(e.Out, "Cancelled")
			return nil
		}
	}

	if err := inst.ClearArea(); err != nil {
		return err
	}
	fmt.Fprintf(e.Out, "Cleared %s storage\n", inst.Kind())
	return nil
}
