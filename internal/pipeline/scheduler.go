package pipeline

import (
	"context"
	"time"
)

// RunEvery runs the pipeline immediately and then once per interval until the
// context is cancelled. Failed runs are logged and do not stop the loop.
func (p *Pipeline) RunEvery(ctx context.Context, interval time.Duration) error {
	p.logger.Info("scheduler started", "interval", interval)
	for {
		if ctx.Err() != nil {
			p.logger.Info("scheduler stopping", "reason", ctx.Err())
			return nil
		}
		if _, err := p.Run(ctx); err != nil && ctx.Err() == nil {
			p.logger.Error("scheduled run failed", "error", err)
		}
		if !sleepWithContext(ctx, interval) {
			p.logger.Info("scheduler stopping", "reason", ctx.Err())
			return nil
		}
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
