package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/hashicorp/go-multierror"

	"github.com/higress-group/docqa-bot/common/logger"
	"github.com/higress-group/docqa-bot/schema"
)

// Embedder computes question vectors.
type Embedder interface {
	Embed(ctx context.Context, sentences []string) ([][]float32, error)
}

// Store is the write side of the vector store.
type Store interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, records []schema.KnowledgeRecord, vectors [][]float32) error
	Prune(ctx context.Context, keep int64) error
}

// Loader writes knowledge records into the vector store. It is an offline batch
// step, so unlike the question pipeline it retries failed batches.
type Loader struct {
	Embedder  Embedder
	Store     Store
	BatchSize int
	Attempts  uint
	Delay     time.Duration
}

// Report summarizes a load run.
type Report struct {
	Loaded int
	Failed int
}

// Load provisions the collection and upserts records batch by batch, then prunes
// stored records with ids beyond the loaded set so a shrunken file does not leave
// stale answers behind. Batches that still fail after retries are skipped and
// reported in the returned error.
func (l *Loader) Load(ctx context.Context, records []schema.KnowledgeRecord) (Report, error) {
	var report Report
	if err := l.Store.EnsureCollection(ctx); err != nil {
		return report, fmt.Errorf("ensure collection failed, err: %w", err)
	}

	size := l.BatchSize
	if size <= 0 {
		size = 32
	}
	var errs *multierror.Error
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]
		if err := l.loadBatch(ctx, batch); err != nil {
			report.Failed += len(batch)
			errs = multierror.Append(errs, fmt.Errorf("records %d..%d: %w", batch[0].ID, batch[len(batch)-1].ID, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		report.Loaded += len(batch)
		logger.Infof("ingest: loaded %d/%d records", report.Loaded, len(records))
	}

	if ctx.Err() == nil {
		if err := l.Store.Prune(ctx, nextID(records)); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("prune stale records: %w", err))
		}
	}
	return report, errs.ErrorOrNil()
}

func (l *Loader) loadBatch(ctx context.Context, batch []schema.KnowledgeRecord) error {
	attempts := l.Attempts
	if attempts == 0 {
		attempts = 3
	}
	delay := l.Delay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	questions := make([]string, len(batch))
	for i, r := range batch {
		questions[i] = r.Question
	}

	return retry.Do(
		func() error {
			vectors, err := l.Embedder.Embed(ctx, questions)
			if err != nil {
				return err
			}
			return l.Store.Upsert(ctx, batch, vectors)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warnf("ingest: batch starting at record %d failed (attempt %d): %v", batch[0].ID, n+1, err)
		}),
	)
}

// nextID is one past the highest record id, 0 for no records.
func nextID(records []schema.KnowledgeRecord) int64 {
	var next int64
	for _, r := range records {
		if r.ID >= next {
			next = r.ID + 1
		}
	}
	return next
}
