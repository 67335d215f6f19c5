// Command mic shows whether the default input device is muted.
//
// It prints the current state, then a new line after every pactl change
// event until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nerrad567/rice/internal/app"
	"github.com/nerrad567/rice/internal/audio"
	"github.com/nerrad567/rice/internal/poll"
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
	cmd := app.NewCommand("mic", "Microphone mute widget", func(ctx context.Context, env *app.Env) error {
		pactl := &audio.Pactl{Binary: env.Config.Audio.Pactl}
		pactl.SetLogger(env.Logger.With("component", "pactl"))

		err := poll.UntilSignal(ctx, func(ctx context.Context) error {
			return pactl.Watch(ctx, audio.KindSource, func(muted bool) {
				env.Emitter.Emit(audio.MicStatus(muted)) //nolint:errcheck // logged by the emitter
			})
		})
		if ctx.Err() != nil {
			return nil
		}
		return err
	})
	cmd.Version = version

	return cmd
}
