package orchestrator

import (
	"context"
	"time"

	"github.com/higress-group/docqa-bot/common/logger"
	"github.com/higress-group/docqa-bot/delivery"
)

// startProgress signals progress immediately and then every interval until stop is
// called. stop cancels the task and returns once the goroutine has exited, so sinks
// must return from SendProgress when ctx is done. Signal failures are logged and
// never reach the caller.
func startProgress(ctx context.Context, interval time.Duration, sink delivery.Sink, log *logger.ContextLogger) (stop func()) {
	pctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			if err := sink.SendProgress(pctx); err != nil && pctx.Err() == nil {
				log.Debugf("progress signal failed: %v", err)
			}
			select {
			case <-pctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
