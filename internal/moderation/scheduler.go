package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/wardenbot/warden/internal/database/types"
	"go.uber.org/zap"
)

// Scheduler turns case-level expiration intent into pending jobs in the
// backend. Schedule, Reschedule, and Cancel are deliberately separate
// operations: the mutator applies different bookkeeping depending on whether
// an expiration was newly set, moved, or cleared, and a single upsert would
// hide the "was there a previous job" branch it has to inspect.
type Scheduler struct {
	backend JobBackend
	logger  *zap.Logger
}

// NewScheduler creates a scheduler on top of the given job backend.
func NewScheduler(backend JobBackend, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		backend: backend,
		logger:  logger.Named("scheduler"),
	}
}

// Schedule registers a firing for a case that has no job yet and returns the
// new handle. The case must be an active expirable case with a future
// expiration.
func (s *Scheduler) Schedule(ctx context.Context, record *types.Case) (string, error) {
	now := time.Now()

	switch {
	case !record.Type.CanExpire():
		return "", fmt.Errorf("%w: %s cases cannot expire", ErrInvalidState, record.Type)
	case record.ExpiresAt == nil:
		return "", fmt.Errorf("%w: case has no expiration", ErrInvalidState)
	case !record.ExpiresAt.After(now):
		return "", fmt.Errorf("%w: expiration is not in the future", ErrInvalidState)
	case !record.IsActive(now):
		return "", fmt.Errorf("%w: case is not active", ErrInvalidState)
	}

	jobID, err := s.backend.ScheduleAt(ctx, *record.ExpiresAt, record.GuildID, record.CaseID)
	if err != nil {
		return "", fmt.Errorf("failed to schedule expiration job: %w", err)
	}

	s.logger.Debug("Scheduled expiration",
		zap.Uint64("guildID", record.GuildID),
		zap.Int64("caseID", record.CaseID),
		zap.Time("fireAt", *record.ExpiresAt),
		zap.String("jobID", jobID))

	return jobID, nil
}

// Reschedule moves the case's existing job to the case's current expiration.
// Returns the handle that is live afterwards; the backend may hand back a
// replacement, which the caller persists in place of the old one.
func (s *Scheduler) Reschedule(ctx context.Context, record *types.Case) (string, error) {
	now := time.Now()

	switch {
	case record.JobID == "":
		return "", fmt.Errorf("%w: case has no job to reschedule", ErrInvalidState)
	case !record.Type.CanExpire():
		return "", fmt.Errorf("%w: %s cases cannot expire", ErrInvalidState, record.Type)
	case record.ExpiresAt == nil:
		return "", fmt.Errorf("%w: case has no expiration", ErrInvalidState)
	case !record.ExpiresAt.After(now):
		return "", fmt.Errorf("%w: expiration is not in the future", ErrInvalidState)
	case !record.IsActive(now):
		return "", fmt.Errorf("%w: case is not active", ErrInvalidState)
	}

	jobID, err := s.backend.RescheduleOrReplace(ctx, record.JobID, *record.ExpiresAt, record.GuildID, record.CaseID)
	if err != nil {
		return "", fmt.Errorf("failed to reschedule expiration job: %w", err)
	}

	s.logger.Debug("Rescheduled expiration",
		zap.Uint64("guildID", record.GuildID),
		zap.Int64("caseID", record.CaseID),
		zap.Time("fireAt", *record.ExpiresAt),
		zap.String("jobID", jobID))

	return jobID, nil
}

// Cancel removes the case's pending job. Returns whether a job was actually
// cancelled; a missing or already-fired job is a safe no-op.
func (s *Scheduler) Cancel(ctx context.Context, record *types.Case) (bool, error) {
	if record.JobID == "" {
		return false, nil
	}

	cancelled, err := s.backend.Cancel(ctx, record.JobID)
	if err != nil {
		return false, fmt.Errorf("failed to cancel expiration job: %w", err)
	}

	s.logger.Debug("Cancelled expiration",
		zap.Uint64("guildID", record.GuildID),
		zap.Int64("caseID", record.CaseID),
		zap.String("jobID", record.JobID),
		zap.Bool("wasPending", cancelled))

	return cancelled, nil
}
