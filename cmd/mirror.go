package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/quickdb/internal/quickdb"
	"github.com/illarion/quickdb/internal/ssr"
	"go.uber.org/zap"
)

// Mirror copies the signed-in user of a page data file into the User
// instance, once or on every change.
func Mirror(ctx context.Context, opts Options, file string, watch bool) {
	if file == "" {
		HandleError(fmt.Errorf("--file is required"))
	}
	if opts.Instance == "" {
		opts.Instance = quickdb.UserName
	}
	env := OpenOrExit(opts)
	defer env.Close()

	if err := env.Mirror(ctx, opts, file, watch); err != nil {
		HandleError(err)
	}
}

func (e *Env) Mirror(ctx context.Context, opts Options, file string, watch bool) error {
	inst, err := e.Instance(opts)
	if err != nil {
		return err
	}

	sync := func(data *ssr.Data) {
		if err := quickdb.MirrorAuth(inst, data); err != nil {
			inst.Log(fmt.Sprintf("Failed to sync user data: %v", err), quickdb.LevelError)
			return
		}
		if data.Has("user") {
			fmt.Fprintf(e.Out, "%s: auth synced\n", inst.Name())
		} else {
			fmt.Fprintf(e.Out, "%s: auth cleared\n", inst.Name())
		}
	}

	data, err := ssr.Load(file)
	if err != nil {
		return err
	}
	sync(data)
	if !watch {
		return nil
	}

	e.Logger.Info("watching page data", zap.String("file", file))
	return ssr.NewWatcher(file, sync, ssr.WithLogger(e.Logger)).Run(ctx)
}
