// Package app is the shared bootstrap of the rice helper binaries.
//
// Every helper follows the same start-up sequence:
//  1. Parse flags (cobra)
//  2. Load configuration (file, then RICE_* environment)
//  3. Build the logger, writing to stderr
//  4. Create the status emitter on stdout
//  5. Connect the optional MQTT and InfluxDB mirrors
//
// The helper body then receives an *Env and runs until it returns or the
// context is cancelled, after which everything opened is closed.
//
//	cmd := app.NewCommand("ac", "Gree AC power widget", func(ctx context.Context, env *app.Env) error {
//	    return env.Emitter.Emit(ac.StatusFor(true))
//	})
//	cmd.Version = version
//	err := cmd.ExecuteContext(ctx)
package app
