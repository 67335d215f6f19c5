// Command recorder records a screen region with slurp and wf-recorder.
//
// With no flags (or --record) it asks for a region and records until
// wf-recorder exits or `recorder --stop` runs. --listen prints the
// elapsed time of the running recording for the bar. --reset clears the
// stored state without signalling anything, for when a recorder died and
// left the widget stuck on.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/rice/internal/app"
	"github.com/nerrad567/rice/internal/infrastructure/config"
	"github.com/nerrad567/rice/internal/notify"
	"github.com/nerrad567/rice/internal/poll"
	"github.com/nerrad567/rice/internal/recorder"
)

// Version information - set at build time via ldflags
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var (
		record bool
		stop   bool
		listen bool
		reset  bool
	)

	cmd := app.NewCommand("recorder", "Screen recording widget", func(ctx context.Context, env *app.Env) error {
		store, err := env.OpenStore(ctx)
		if err != nil {
			return err
		}

		videos := env.Config.Recorder.VideosDir
		if videos == "" {
			videos = config.VideosDir()
		}

		rcfg := recorder.Config{
			Store:      store,
			VideosDir:  videos,
			Slurp:      env.Config.Recorder.Slurp,
			WFRecorder: env.Config.Recorder.WFRecorder,
			Logger:     env.Logger,
		}

		switch {
		case stop:
			return recorder.New(rcfg).Stop(ctx)

		case reset:
			if err := store.Reset(ctx); err != nil {
				return err
			}
			env.Logger.Info("recorder state cleared")
			return env.Emitter.Emit(recorder.New(rcfg).Status(ctx, time.Now()))

		case listen:
			rec := recorder.New(rcfg)
			err := poll.Every(ctx, env.Config.GetRecorderInterval(), func(ctx context.Context) {
				env.Emitter.Emit(rec.Status(ctx, time.Now())) //nolint:errcheck // logged by the emitter
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		// Notifications are best effort; no session bus means none.
		if env.Config.Recorder.Notify {
			n, err := notify.New()
			if err != nil {
				env.Logger.Debug("desktop notifications disabled", "error", err)
			} else {
				defer n.Close() //nolint:errcheck // session bus teardown
				rcfg.Notifier = n
			}
		}

		if err := os.MkdirAll(videos, 0o750); err != nil {
			return fmt.Errorf("creating videos directory: %w", err)
		}

		file, err := recorder.New(rcfg).Start(ctx)
		switch {
		case errors.Is(err, recorder.ErrNoSelection):
			env.Logger.Info("no region selected")
			return nil
		case err != nil:
			return err
		}
		env.Logger.Info("recording saved", "file", file)
		return nil
	})
	cmd.Version = version

	flags := cmd.Flags()
	flags.BoolVar(&record, "record", false, "select a region and record it (default)")
	flags.BoolVar(&stop, "stop", false, "stop the running recording")
	flags.BoolVar(&listen, "listen", false, "print the recording state every interval")
	flags.BoolVar(&reset, "reset", false, "clear the stored recording state")
	cmd.MarkFlagsMutuallyExclusive("record", "stop", "listen", "reset")

	return cmd
}
