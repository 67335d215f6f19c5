// Command bulb is a status bar widget for a Yeelight bulb with a
// background light.
//
// Action flags run in a fixed order: toggle, background toggle,
// brightness, background colour, background brightness. With no action
// the current state is printed once; --listen prints it every interval.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nerrad567/rice/internal/app"
	"github.com/nerrad567/rice/internal/bulb"
	"github.com/nerrad567/rice/internal/poll"
	"github.com/nerrad567/rice/internal/yeelight"
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
		ip           string
		port         int
		toggle       bool
		toggleBg     bool
		brightness   int
		color        int
		bgBrightness int
		listen       bool
	)

	var cmd *cobra.Command
	cmd = app.NewCommand("bulb", "Yeelight bulb widget", func(ctx context.Context, env *app.Env) error {
		cfg := env.Config.Bulb
		if ip != "" {
			cfg.Host = ip
		}
		if port != 0 {
			cfg.Port = port
		}
		if cfg.Host == "" {
			return errors.New("no bulb address: pass --ip or set bulb.host")
		}

		client := yeelight.NewClient(yeelight.Config{
			Timeout: env.Config.GetBulbTimeout(),
			Logger:  env.Logger.With("component", "yeelight"),
		})
		ctl := bulb.NewController(client, yeelight.Addr(cfg.Host, cfg.Port))
		ctl.SetLogger(env.Logger)

		if listen {
			err := poll.Every(ctx, env.Config.GetBulbInterval(), func(ctx context.Context) {
				env.Emitter.Emit(ctl.Status(ctx)) //nolint:errcheck // logged by the emitter
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		flags := cmd.Flags()
		actions := bulb.Actions{Toggle: toggle, ToggleBg: toggleBg}
		if flags.Changed("brightness") {
			actions.Brightness = &brightness
		}
		if flags.Changed("color") {
			actions.Color = &color
		}
		if flags.Changed("bg-brightness") {
			actions.BgBrightness = &bgBrightness
		}

		if actions.Empty() {
			return env.Emitter.Emit(ctl.Status(ctx))
		}
		return ctl.Apply(ctx, actions)
	})
	cmd.Version = version

	flags := cmd.Flags()
	flags.StringVar(&ip, "ip", "", "bulb address (overrides bulb.host)")
	flags.IntVar(&port, "port", 0, "bulb TCP port (overrides bulb.port)")
	flags.BoolVar(&toggle, "toggle", false, "toggle the main light")
	flags.BoolVar(&toggleBg, "toggle-bg", false, "toggle the background light")
	flags.IntVar(&brightness, "brightness", 0, "main light brightness, 1-100")
	flags.IntVar(&color, "color", 0, "background hue, 0-359")
	flags.IntVar(&bgBrightness, "bg-brightness", 0, "background brightness, 1-100")
	flags.BoolVar(&listen, "listen", false, "print the light state every interval")
	cmd.MarkFlagsMutuallyExclusive("listen", "toggle")
	cmd.MarkFlagsMutuallyExclusive("listen", "toggle-bg")
	cmd.MarkFlagsMutuallyExclusive("listen", "brightness")
	cmd.MarkFlagsMutuallyExclusive("listen", "color")
	cmd.MarkFlagsMutuallyExclusive("listen", "bg-brightness")

	return cmd
}
