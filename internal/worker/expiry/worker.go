package expiry

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/wardenbot/warden/internal/jobs"
	"github.com/wardenbot/warden/internal/moderation"
	"github.com/wardenbot/warden/internal/setup/config"
	"github.com/wardenbot/warden/pkg/utils"
	"go.uber.org/zap"
)

const (
	defaultPollInterval = 15 * time.Second
	defaultBatchSize    = 100
	defaultConcurrency  = 4
)

// Worker drains due expiration jobs from the backend and dispatches them to
// the executor. A job is only removed after its firing was attempted, so a
// crash mid-batch redelivers rather than drops, and the executor's
// re-validation absorbs the duplicate.
type Worker struct {
	backend      *jobs.Client
	service      *moderation.Service
	pollInterval time.Duration
	batchSize    int
	concurrency  int
	logger       *zap.Logger
}

// New creates an expiry worker from the worker configuration.
func New(backend *jobs.Client, service *moderation.Service, cfg *config.Worker, logger *zap.Logger) *Worker {
	pollInterval := defaultPollInterval
	if cfg.PollInterval > 0 {
		pollInterval = time.Duration(cfg.PollInterval) * time.Second
	}

	batchSize := defaultBatchSize
	if cfg.BatchSize > 0 {
		batchSize = cfg.BatchSize
	}

	concurrency := defaultConcurrency
	if cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}

	return &Worker{
		backend:      backend,
		service:      service,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		concurrency:  concurrency,
		logger:       logger.Named("expiry_worker"),
	}
}

// Start runs the polling loop until the context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Expiry worker started",
		zap.Duration("pollInterval", w.pollInterval),
		zap.Int("batchSize", w.batchSize),
		zap.Int("concurrency", w.concurrency))

	for {
		if err := w.processBatch(ctx); err != nil {
			w.logger.Error("Failed to process expiration batch", zap.Error(err))
		}

		if utils.ContextSleep(ctx, w.pollInterval) == utils.SleepCancelled {
			w.logger.Info("Expiry worker stopped")
			return
		}
	}
}

// processBatch fires every due job and removes the fired ones.
func (w *Worker) processBatch(ctx context.Context) error {
	due, err := w.backend.Due(ctx, time.Now(), w.batchSize)
	if err != nil {
		return err
	}

	if len(due) == 0 {
		return nil
	}

	w.logger.Debug("Dispatching due expirations", zap.Int("count", len(due)))

	p := pool.New().WithMaxGoroutines(w.concurrency)

	for _, job := range due {
		p.Go(func() {
			if err := w.service.OnFire(ctx, job.GuildID, job.CaseID); err != nil {
				// Leave the job scheduled; the next poll retries it.
				w.logger.Error("Expiration firing failed",
					zap.String("jobID", job.ID),
					zap.Uint64("guildID", job.GuildID),
					zap.Int64("caseID", job.CaseID),
					zap.Error(err))

				return
			}

			removed, err := w.backend.Remove(ctx, job.ID, job.FireAt)
			if err != nil {
				w.logger.Warn("Failed to remove fired job",
					zap.String("jobID", job.ID),
					zap.Error(err))

				return
			}

			if !removed {
				// Rescheduled while this batch was in flight; the entry now
				// carries the new fire time and stays scheduled.
				w.logger.Debug("Fired job was rescheduled mid-batch",
					zap.String("jobID", job.ID))
			}
		})
	}

	p.Wait()

	return nil
}
