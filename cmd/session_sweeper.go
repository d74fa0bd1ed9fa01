package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"dobroBack/internal/session"
)

// startSessionSweeper drops idle in-memory sessions on a fixed interval.
// Redis-backed sessions expire on their own and need no sweeper.
func startSessionSweeper(ctx context.Context, registry *session.MemoryRegistry, interval time.Duration, logger *logrus.Entry) {
	if registry == nil || interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if removed := registry.Sweep(now); removed > 0 {
					logger.Infof("session sweeper: dropped %d idle sessions, %d left", removed, registry.Len())
				}
			}
		}
	}()
}
