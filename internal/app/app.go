package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nerrad567/rice/internal/infrastructure/config"
	"github.com/nerrad567/rice/internal/infrastructure/influxdb"
	"github.com/nerrad567/rice/internal/infrastructure/logging"
	"github.com/nerrad567/rice/internal/infrastructure/mqtt"
	"github.com/nerrad567/rice/internal/kv"
	"github.com/nerrad567/rice/internal/status"
)

// RunFunc is the body of a helper command.
type RunFunc func(ctx context.Context, env *Env) error

// Env is everything a helper needs once configuration has loaded.
//
// MQTT and Influx are nil unless enabled and reachable. Both are optional
// mirrors of the status output; failing to reach them never stops a widget.
type Env struct {
	Config  *config.Config
	Logger  *logging.Logger
	Emitter *status.Emitter

	MQTT   *mqtt.Client
	Influx *influxdb.Client

	closers []func() error
}

// NewCommand builds the root command for a helper binary.
//
// The command gets the persistent flags --config and --log-level. Callers
// add their own flags to cmd.Flags() and read them inside run. Status
// lines go to cmd.OutOrStdout(). Set cmd.Version before Execute to have
// it attached to every log line.
func NewCommand(name, short string, run RunFunc) *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:           name,
		Short:         short,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			env, err := newEnv(ctx, envOptions{
				widget:     name,
				version:    cmd.Version,
				configPath: configPath,
				logLevel:   logLevel,
				stdout:     cmd.OutOrStdout(),
			})
			if err != nil {
				return err
			}
			defer env.Close() //nolint:errcheck // closer errors are logged

			return run(ctx, env)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $RICE_CONFIG or $XDG_CONFIG_HOME/rice/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	return cmd
}

type envOptions struct {
	widget     string
	version    string
	configPath string
	logLevel   string
	stdout     io.Writer
}

// newEnv loads configuration and connects the optional sinks.
func newEnv(ctx context.Context, opts envOptions) (*Env, error) {
	if opts.version == "" {
		opts.version = "dev"
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}

	log := logging.New(cfg.Logging, opts.widget, opts.version)
	log.Debug("configuration loaded", "path", opts.configPath)

	env := &Env{
		Config:  cfg,
		Logger:  log,
		Emitter: status.NewEmitter(opts.stdout, opts.widget),
	}
	env.Emitter.SetLogger(log)

	if cfg.MQTT.Enabled {
		client, err := mqtt.Connect(cfg.MQTT, opts.widget)
		if err == nil {
			if err = client.HealthCheck(ctx); err != nil {
				client.Close() //nolint:errcheck // the link is already unusable
			}
		}
		if err != nil {
			log.Warn("MQTT unavailable, state will not be mirrored", "error", err)
		} else {
			client.SetLogger(log)
			env.MQTT = client
			env.Emitter.AddSink(status.NewStateSink(client, log))
			env.addCloser(client.Close)
			log.Debug("MQTT connected",
				"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
				"client_id", client.ClientID(),
			)
		}
	}

	if cfg.InfluxDB.Enabled {
		client, err := influxdb.Connect(ctx, cfg.InfluxDB)
		if err == nil {
			if err = client.HealthCheck(ctx); err != nil {
				client.Close() //nolint:errcheck // nothing was queued yet
			}
		}
		if err != nil {
			log.Warn("InfluxDB unavailable, history will not be recorded", "error", err)
		} else {
			client.SetOnError(func(err error) {
				log.Warn("InfluxDB write failed", "error", err)
			})
			env.Influx = client
			env.Emitter.AddSink(status.NewMetricSink(client))
			env.addCloser(client.Close)
			log.Debug("InfluxDB connected", "url", cfg.InfluxDB.URL)
		}
	}

	return env, nil
}

func (e *Env) addCloser(fn func() error) {
	e.closers = append(e.closers, fn)
}

// OpenStore opens the key-value store from the database section and
// closes it with the Env.
func (e *Env) OpenStore(ctx context.Context) (*kv.Store, error) {
	store, err := kv.OpenConfig(ctx, e.Config.Database)
	if err != nil {
		return nil, err
	}
	e.addCloser(store.Close)
	return store, nil
}

// Close releases everything the Env opened, newest first.
func (e *Env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.Logger.Warn("error during shutdown", "error", err)
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}
