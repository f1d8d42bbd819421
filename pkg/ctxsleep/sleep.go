// Package ctxsleep provides sleeps that end early when their context is done.
package ctxsleep

import (
	"context"
	"time"
)

type Func func(ctx context.Context, d time.Duration) error

// Sleep waits for d or until ctx is done, returning ctx.Err() in the latter case.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
