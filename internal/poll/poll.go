// Package poll runs widget refresh loops.
//
// A status widget either prints once or keeps printing on an interval
// until asked to stop. Every covers the loop; Race and UntilSignal cover
// "stop on whichever comes first", such as a pactl event stream racing
// a signal.
package poll

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrInvalidInterval is returned by Every for non-positive intervals.
var ErrInvalidInterval = errors.New("poll: interval must be positive")

// Every calls fn immediately and then once per interval until ctx is done.
// fn runs synchronously, so a slow call delays the next tick instead of
// overlapping it. The returned error is always ctx.Err() unless the
// interval is invalid.
func Every(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	fn(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// errFinished marks the winning task so the group cancels the rest.
var errFinished = errors.New("poll: task finished")

// Race runs every task concurrently and returns the result of the first
// one to return. The context passed to the others is cancelled, and Race
// waits for all of them before returning.
func Race(ctx context.Context, tasks ...func(ctx context.Context) error) error {
	if len(tasks) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	first := make(chan error, 1)

	for _, task := range tasks {
		task := task
		g.Go(func() error {
			err := task(gctx)
			select {
			case first <- err:
			default:
			}
			// Any non-nil return cancels gctx for the remaining tasks.
			return errFinished
		})
	}

	_ = g.Wait()
	return <-first
}

// UntilSignal runs fn until it returns or one of sigs arrives. With no
// sigs, SIGINT and SIGTERM are used. A signal yields nil; otherwise fn's
// error is returned.
func UntilSignal(ctx context.Context, fn func(ctx context.Context) error, sigs ...os.Signal) error {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}

	return Race(ctx, fn, func(ctx context.Context) error {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, sigs...)
		defer signal.Stop(ch)

		select {
		case <-ch:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}
