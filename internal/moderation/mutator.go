package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/wardenbot/warden/internal/database/types"
	"github.com/wardenbot/warden/internal/database/types/enum"
	"go.uber.org/zap"
)

// MaxTimeoutDuration caps the live timeout applied for mutes without an
// expiration. Discord rejects communication timeouts longer than 28 days.
const MaxTimeoutDuration = 28 * 24 * time.Hour

// Mutator validates and applies changes to existing cases. It works on an
// explicit snapshot diff: the stored case is reloaded fresh and compared
// field by field against the proposed update, so no dirty-tracking state is
// involved.
type Mutator struct {
	store     CaseStore
	scheduler *Scheduler
	actions   ActionExecutor
	logger    *zap.Logger
}

// NewMutator creates a mutator over the given collaborators.
func NewMutator(store CaseStore, scheduler *Scheduler, actions ActionExecutor, logger *zap.Logger) *Mutator {
	return &Mutator{
		store:     store,
		scheduler: scheduler,
		actions:   actions,
		logger:    logger.Named("mutator"),
	}
}

// Apply validates the proposed update against the stored snapshot and
// persists the merged case, driving the scheduler when a ban's expiration
// changes and the live timeout when a mute's does.
//
// forceJobID permits a job-handle change in the update; it exists only for
// internal bookkeeping writes and must never be set for user-driven edits.
func (m *Mutator) Apply(ctx context.Context, updated *types.Case, forceJobID bool) (*types.Case, error) {
	snapshot, err := m.store.Get(ctx, updated.GuildID, updated.CaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load case snapshot: %w", err)
	}

	if snapshot == nil {
		return nil, fmt.Errorf("%w: case %d in guild %d", ErrCaseNotFound, updated.CaseID, updated.GuildID)
	}

	if updated.Type != snapshot.Type {
		return nil, fmt.Errorf("%w: case type cannot change", ErrInvariantViolation)
	}

	if updated.JobID != snapshot.JobID && !forceJobID {
		return nil, fmt.Errorf("%w: job handle cannot change without override", ErrInvariantViolation)
	}

	if !relatedEqual(updated.RelatedCaseID, snapshot.RelatedCaseID) {
		return nil, fmt.Errorf("%w: pardon link is set by the pardon flow only", ErrInvariantViolation)
	}

	expirationChanged := !timesEqual(snapshot.ExpiresAt, updated.ExpiresAt)

	if expirationChanged && !snapshot.Type.CanExpire() {
		return nil, fmt.Errorf("%w: %s cases cannot carry an expiration", ErrInvalidState, snapshot.Type)
	}

	if expirationChanged && updated.ExpiresAt != nil && !updated.ExpiresAt.After(time.Now()) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidExpiration, updated.ExpiresAt)
	}

	// Merge onto the snapshot so identity fields can never drift even when
	// the caller hands in a partially-populated update.
	merged := snapshot.Clone()
	merged.Reason = types.NormalizeReason(updated.Reason)
	merged.ExpiresAt = updated.ExpiresAt

	if forceJobID {
		merged.JobID = updated.JobID
	}

	if expirationChanged && snapshot.Type == enum.CaseTypeBan {
		if err := m.applyBanExpirationDiff(ctx, snapshot, merged); err != nil {
			return nil, err
		}
	}

	if err := m.store.Update(ctx, merged); err != nil {
		return nil, fmt.Errorf("failed to persist case: %w", err)
	}

	// The live timeout is a best-effort side effect: the stored case is the
	// durable intent, so a platform failure here is reported to the caller
	// but never rolls back the write above.
	if expirationChanged && snapshot.Type == enum.CaseTypeMute {
		if err := m.updateLiveTimeout(ctx, merged); err != nil {
			m.logger.Warn("Failed to update live timeout after case edit",
				zap.Uint64("guildID", merged.GuildID),
				zap.Int64("caseID", merged.CaseID),
				zap.Error(err))

			return merged, fmt.Errorf("%w: %w", ErrLiveTimeoutUpdate, err)
		}
	}

	return merged, nil
}

// applyBanExpirationDiff re-derives the scheduler call from the expiration
// diff. The job-handle write only lands in the store after the backend call
// succeeded, so a backend failure cannot leave the row pointing at a job
// that does not exist.
func (m *Mutator) applyBanExpirationDiff(ctx context.Context, snapshot, merged *types.Case) error {
	switch {
	case merged.ExpiresAt == nil:
		// Expiration cleared: the ban is now permanent.
		if _, err := m.scheduler.Cancel(ctx, snapshot); err != nil {
			return err
		}

		merged.JobID = ""
	case snapshot.JobID == "":
		// Expiration newly set on a ban with no pending job.
		jobID, err := m.scheduler.Schedule(ctx, merged)
		if err != nil {
			return err
		}

		merged.JobID = jobID
	default:
		// Expiration moved: update the pending job in place.
		merged.JobID = snapshot.JobID

		jobID, err := m.scheduler.Reschedule(ctx, merged)
		if err != nil {
			return err
		}

		merged.JobID = jobID
	}

	return nil
}

// updateLiveTimeout pushes a mute's new expiration to the platform timeout.
// A cleared expiration is treated as effectively permanent and pinned to the
// platform's maximum timeout window.
func (m *Mutator) updateLiveTimeout(ctx context.Context, record *types.Case) error {
	duration := MaxTimeoutDuration
	if record.ExpiresAt != nil {
		duration = max(0, time.Until(*record.ExpiresAt))
	}

	return m.actions.SetTimeout(ctx, record.GuildID, record.UserID, duration, record.Reason)
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.Equal(*b)
}

func relatedEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}
