package main

import (
	"context"
	"time"
)

// RunSessionSweeper evicts idle sessions every interval until ctx is done.
func RunSessionSweeper(ctx context.Context, dispatcher *Dispatcher, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			dispatcher.ExpireSessions(now)
		}
	}
}
