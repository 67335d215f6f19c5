// Command battery is a status bar widget for the laptop battery.
//
// It shows the discharge rate (--power, the default) or the charge level
// (--capacity), read from sysfs every interval or once with --once.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/rice/internal/app"
	"github.com/nerrad567/rice/internal/battery"
	"github.com/nerrad567/rice/internal/poll"
	"github.com/nerrad567/rice/internal/status"
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
		power    bool
		capacity bool
		path     string
		interval time.Duration
		once     bool
	)

	cmd := app.NewCommand("battery", "sysfs battery widget", func(ctx context.Context, env *app.Env) error {
		if path == "" {
			path = env.Config.Battery.Path
		}
		if interval <= 0 {
			interval = env.Config.GetBatteryInterval()
		}

		reader := battery.Reader{Dir: path}
		device := filepath.Base(path)

		// Influx is nil unless enabled and reachable.
		sample := func() status.Response {
			if capacity {
				pct, err := reader.ReadCapacity()
				if err == nil && env.Influx != nil {
					env.Influx.WriteBatteryCapacity(device, int(pct))
				}
				return battery.CapacityStatusFor(pct, err)
			}
			uw, ok, err := reader.ReadPower()
			if err == nil && ok && env.Influx != nil {
				env.Influx.WriteBatteryPower(device, float64(uw)/1e6)
			}
			return battery.PowerStatusFor(uw, ok, err)
		}

		if once {
			return env.Emitter.Emit(sample())
		}

		err := poll.Every(ctx, interval, func(context.Context) {
			env.Emitter.Emit(sample()) //nolint:errcheck // logged by the emitter
		})
		if ctx.Err() != nil {
			return nil
		}
		return err
	})
	cmd.Version = version

	flags := cmd.Flags()
	flags.BoolVar(&power, "power", false, "show the discharge rate (default)")
	flags.BoolVar(&capacity, "capacity", false, "show the charge level")
	flags.StringVar(&path, "path", "", "battery sysfs directory (overrides battery.path)")
	flags.DurationVar(&interval, "interval", 0, "poll interval (overrides battery.interval)")
	flags.BoolVar(&once, "once", false, "print once and exit")
	cmd.MarkFlagsMutuallyExclusive("power", "capacity")

	return cmd
}
