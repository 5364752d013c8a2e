package ingest

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/higress-group/docqa-bot/common/logger"
)

// Watch calls reload whenever the file at path is written or replaced, until ctx
// is done. Bursts of events within debounce are coalesced into one reload.
func Watch(ctx context.Context, path string, debounce time.Duration, reload func(context.Context) error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	target := filepath.Clean(path)
	// watch the directory, editors often replace files instead of writing them
	if err := w.Add(filepath.Dir(target)); err != nil {
		return err
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := reload(ctx); err != nil {
				logger.Errorf("ingest: reload of %s failed: %v", target, err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("ingest: watcher error: %v", err)
		}
	}
}
