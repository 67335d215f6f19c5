// Command ac is a status bar widget for a Gree air conditioner.
//
// With no flags it prints the current power state once. --toggle flips
// the power and --listen prints the state every interval until
// interrupted.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/rice/internal/ac"
	"github.com/nerrad567/rice/internal/app"
	"github.com/nerrad567/rice/internal/gree"
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
	var (
		ip       string
		id       string
		key      string
		port     int
		toggle   bool
		listen   bool
		interval time.Duration
	)

	cmd := app.NewCommand("ac", "Gree air conditioner power widget", func(ctx context.Context, env *app.Env) error {
		cfg := env.Config.AC
		if ip != "" {
			if net.ParseIP(ip) == nil {
				return fmt.Errorf("invalid --ip %q", ip)
			}
			cfg.Host = ip
		}
		if id != "" {
			cfg.ID = id
		}
		if key != "" {
			cfg.Key = key
		}
		if port != 0 {
			cfg.Port = port
		}
		if interval <= 0 {
			interval = env.Config.GetACInterval()
		}

		ep := gree.Endpoint{Host: cfg.Host, Port: cfg.Port, ID: cfg.ID, Key: cfg.Key}
		if err := ep.Validate(); err != nil {
			return err
		}

		client := gree.NewClient(gree.Config{
			Timeout: env.Config.GetACTimeout(),
			Logger:  env.Logger.With("component", "gree"),
		})
		ctl := ac.NewController(client, ep)
		ctl.SetLogger(env.Logger)

		switch {
		case toggle:
			on, err := ctl.Toggle(ctx)
			if err != nil {
				return fmt.Errorf("toggling power: %w", err)
			}
			env.Logger.Info("power toggled", "on", on)
			return nil
		case listen:
			err := poll.Every(ctx, interval, func(ctx context.Context) {
				env.Emitter.Emit(ctl.Status(ctx)) //nolint:errcheck // logged by the emitter
			})
			return untilCancelled(ctx, err)
		default:
			return env.Emitter.Emit(ctl.Status(ctx))
		}
	})
	cmd.Version = version

	flags := cmd.Flags()
	flags.StringVar(&ip, "ip", "", "device IP address (overrides ac.host)")
	flags.StringVar(&id, "id", "", "device id, its MAC (overrides ac.id)")
	flags.StringVar(&key, "key", "", "16-byte device key (overrides ac.key)")
	flags.IntVar(&port, "port", 0, "device UDP port (overrides ac.port)")
	flags.BoolVar(&toggle, "toggle", false, "toggle the power and exit")
	flags.BoolVar(&listen, "listen", false, "print the power state every interval")
	flags.DurationVar(&interval, "interval", 0, "listen poll interval (overrides ac.interval)")
	cmd.MarkFlagsMutuallyExclusive("toggle", "listen")

	return cmd
}

// untilCancelled treats the end of a listen loop by signal as success.
func untilCancelled(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return err
}
