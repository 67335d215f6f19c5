// Package process supervises helper subprocesses.
//
// The widgets shell out to long-lived helpers such as `pactl subscribe`
// and to one-shot recorders such as wf-recorder. Manager covers both:
//
//   - Start/stop with graceful shutdown (SIGTERM to the group, then SIGKILL)
//   - Optional restart on failure with exponential backoff
//   - Per-line stdout callback and stderr logging
//   - Done/Wait for callers that block on exit
//
// Example usage:
//
//	mgr := process.NewManager(process.DefaultConfig("pactl", "pactl", []string{"subscribe"}))
//	mgr.SetLogger(logger)
//
//	if err := mgr.Start(ctx); err != nil {
//	    return err
//	}
//	defer mgr.Stop()
package process
