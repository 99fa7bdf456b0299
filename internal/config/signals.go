package config

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// WatchReloads reloads the configuration on SIGHUP until ctx is done or the
// returned stop function is called. Reloads run one at a time; SIGHUPs that
// arrive during a reload collapse into a single follow-up reload. A failed
// reload keeps the previous configuration. stop waits for the watcher to
// exit and may be called more than once.
func WatchReloads(ctx context.Context) (stop func()) {
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer signal.Stop(sighup)

		for {
			select {
			case <-ctx.Done():
				return
			case <-sighup:
				slog.Debug("SIGHUP received; reloading configuration")
				_ = Reload()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}
