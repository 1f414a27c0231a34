package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/wardenbot/warden/internal/database/types/enum"
	"go.uber.org/zap"
)

// Executor handles job firings. The backend delivers at-least-once, so every
// firing re-derives eligibility from current store state instead of trusting
// whatever was true when the job was scheduled.
type Executor struct {
	store    CaseStore
	actions  ActionExecutor
	notifier Notifier
	logger   *zap.Logger
}

// NewExecutor creates an expiration executor.
func NewExecutor(store CaseStore, actions ActionExecutor, notifier Notifier, logger *zap.Logger) *Executor {
	return &Executor{
		store:    store,
		actions:  actions,
		notifier: notifier,
		logger:   logger.Named("executor"),
	}
}

// OnFire is the callback invoked when a scheduled expiration arrives. It is
// idempotent: a repeat firing, a concurrent pardon, a reschedule, or a newer
// action against the same user all make it return without reversing.
func (e *Executor) OnFire(ctx context.Context, guildID uint64, caseID int64) error {
	record, err := e.store.Get(ctx, guildID, caseID)
	if err != nil {
		return fmt.Errorf("failed to reload case: %w", err)
	}

	// Deleted administratively between scheduling and firing.
	if record == nil {
		return nil
	}

	if record.Type != enum.CaseTypeBan {
		e.logger.Warn("Expiration fired for a case type that carries no job",
			zap.Uint64("guildID", guildID),
			zap.Int64("caseID", caseID),
			zap.Stringer("type", record.Type))

		return nil
	}

	// Already reversed externally, nothing left to undo.
	banned, err := e.actions.IsBanned(ctx, guildID, record.UserID)
	if err != nil {
		return fmt.Errorf("failed to check ban state: %w", err)
	}

	if !banned {
		return nil
	}

	// A newer ban against the same user supersedes this firing; lifting the
	// ban now would undo an action this case knows nothing about.
	newer, err := e.store.GetByUserSince(ctx, guildID, record.UserID, record.Type, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to check for newer cases: %w", err)
	}

	if len(newer) > 0 {
		e.logger.Debug("Skipping stale expiration",
			zap.Uint64("guildID", guildID),
			zap.Int64("caseID", caseID),
			zap.Int64("newerCaseID", newer[0].CaseID))

		return nil
	}

	// Pardoned, made permanent, or rescheduled away from under us after this
	// job was queued. A nil expiration means the ban no longer lapses at all,
	// so it is just as ineligible as a future one.
	if record.RelatedCaseID != nil || record.ExpiresAt == nil || record.ExpiresAt.After(time.Now()) {
		return nil
	}

	if err := e.actions.RemoveBan(ctx, guildID, record.UserID, expiryReason(record.Reason)); err != nil {
		return fmt.Errorf("failed to lift expired ban: %w", err)
	}

	e.logger.Info("Lifted expired ban",
		zap.Uint64("guildID", guildID),
		zap.Int64("caseID", caseID),
		zap.Uint64("userID", record.UserID))

	if err := e.notifier.NotifyExpired(ctx, record); err != nil {
		e.logger.Warn("Failed to send expiration notification",
			zap.Uint64("guildID", guildID),
			zap.Int64("caseID", caseID),
			zap.Error(err))
	}

	return nil
}

func expiryReason(reason string) string {
	if reason == "" {
		return "Temporary ban expired"
	}

	return "Temporary ban expired: " + reason
}
