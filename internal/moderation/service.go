package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/wardenbot/warden/internal/database/types"
	"github.com/wardenbot/warden/internal/database/types/enum"
	"go.uber.org/zap"
)

// CreateParams describes a new moderation action to record.
type CreateParams struct {
	GuildID     uint64
	UserID      uint64
	ModeratorID uint64
	Type        enum.CaseType
	Reason      string
	// Duration is how long the effect lasts. Nil means permanent. Only valid
	// for expirable types.
	Duration *time.Duration
}

// Service is the moderation-action pipeline: it applies the platform effect,
// records the case, and keeps the expiration schedule in sync. It is the
// surface the command layer calls.
type Service struct {
	store     CaseStore
	scheduler *Scheduler
	mutator   *Mutator
	executor  *Executor
	pardons   *PardonLinker
	actions   ActionExecutor
	logger    *zap.Logger
}

// NewService wires the full case lifecycle engine over its collaborators.
func NewService(
	store CaseStore, backend JobBackend, actions ActionExecutor, notifier Notifier, logger *zap.Logger,
) *Service {
	scheduler := NewScheduler(backend, logger)

	s := &Service{
		store:     store,
		scheduler: scheduler,
		mutator:   NewMutator(store, scheduler, actions, logger),
		executor:  NewExecutor(store, actions, notifier, logger),
		actions:   actions,
		logger:    logger.Named("moderation"),
	}
	s.pardons = NewPardonLinker(store, scheduler, s, logger)

	return s
}

// CreateCase performs the moderation action and records it as a case. For
// temporary bans a job is scheduled and its handle persisted; the handle
// write only happens after the backend accepted the job.
func (s *Service) CreateCase(ctx context.Context, params CreateParams) (*types.Case, error) {
	now := time.Now().UTC()

	if params.Duration != nil && !params.Type.CanExpire() {
		return nil, fmt.Errorf("%w: %s cases cannot have a duration", ErrInvalidState, params.Type)
	}

	var expiresAt *time.Time

	if params.Duration != nil {
		t := now.Add(*params.Duration)
		if !t.After(now) {
			return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidExpiration)
		}

		expiresAt = &t
	}

	record := &types.Case{
		GuildID:     params.GuildID,
		UserID:      params.UserID,
		ModeratorID: params.ModeratorID,
		Type:        params.Type,
		CreatedAt:   now,
		Reason:      types.NormalizeReason(params.Reason),
		ExpiresAt:   expiresAt,
	}

	// Platform effect first: a case should only be recorded for an action
	// that actually happened.
	if err := s.applyEffect(ctx, record); err != nil {
		return nil, err
	}

	record, err := s.store.Insert(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to record case: %w", err)
	}

	// Mutes ride the platform-native timeout; only bans need a job.
	if record.Type == enum.CaseTypeBan && record.ExpiresAt != nil {
		jobID, err := s.scheduler.Schedule(ctx, record)
		if err != nil {
			return nil, err
		}

		record.JobID = jobID

		if err := s.store.Update(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to persist job handle: %w", err)
		}
	}

	s.logger.Info("Created moderation case",
		zap.Uint64("guildID", record.GuildID),
		zap.Int64("caseID", record.CaseID),
		zap.Uint64("userID", record.UserID),
		zap.Stringer("type", record.Type),
		zap.Bool("temporary", record.ExpiresAt != nil))

	return record, nil
}

// GetCase loads a single case, mapping absence to ErrCaseNotFound.
func (s *Service) GetCase(ctx context.Context, guildID uint64, caseID int64) (*types.Case, error) {
	record, err := s.store.Get(ctx, guildID, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load case: %w", err)
	}

	if record == nil {
		return nil, fmt.Errorf("%w: case %d in guild %d", ErrCaseNotFound, caseID, guildID)
	}

	return record, nil
}

// Apply validates and persists an edit to an existing case.
func (s *Service) Apply(ctx context.Context, updated *types.Case) (*types.Case, error) {
	return s.mutator.Apply(ctx, updated, false)
}

// Pardon reverses an active case and links the reversal.
func (s *Service) Pardon(
	ctx context.Context, guildID uint64, caseID int64, moderatorID uint64, reason string,
) (*types.Case, error) {
	original, err := s.store.Get(ctx, guildID, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load case: %w", err)
	}

	if original == nil {
		return nil, fmt.Errorf("%w: case %d in guild %d", ErrCaseNotFound, caseID, guildID)
	}

	return s.pardons.Pardon(ctx, original, moderatorID, reason)
}

// OnFire is the job backend callback for scheduled expirations.
func (s *Service) OnFire(ctx context.Context, guildID uint64, caseID int64) error {
	return s.executor.OnFire(ctx, guildID, caseID)
}

// DeleteCase removes a case from the ledger. Administrative and rare: any
// pending expiration job is cancelled before the row goes away, so the
// backend never fires for a record that no longer exists.
func (s *Service) DeleteCase(ctx context.Context, guildID uint64, caseID int64) error {
	record, err := s.store.Get(ctx, guildID, caseID)
	if err != nil {
		return fmt.Errorf("failed to load case: %w", err)
	}

	if record == nil {
		return fmt.Errorf("%w: case %d in guild %d", ErrCaseNotFound, caseID, guildID)
	}

	if _, err := s.scheduler.Cancel(ctx, record); err != nil {
		return err
	}

	if _, err := s.store.Delete(ctx, guildID, caseID); err != nil {
		return fmt.Errorf("failed to delete case: %w", err)
	}

	s.logger.Info("Deleted moderation case",
		zap.Uint64("guildID", guildID),
		zap.Int64("caseID", caseID))

	return nil
}

// applyEffect performs the platform-side action for a new case.
func (s *Service) applyEffect(ctx context.Context, record *types.Case) error {
	var err error

	switch record.Type {
	case enum.CaseTypeWarn:
		// Warnings are ledger-only.
	case enum.CaseTypeMute:
		duration := MaxTimeoutDuration
		if record.ExpiresAt != nil {
			duration = time.Until(*record.ExpiresAt)
		}

		err = s.actions.SetTimeout(ctx, record.GuildID, record.UserID, duration, record.Reason)
	case enum.CaseTypeKick:
		err = s.actions.Kick(ctx, record.GuildID, record.UserID, record.Reason)
	case enum.CaseTypeBan:
		err = s.actions.ApplyBan(ctx, record.GuildID, record.UserID, record.Reason)
	case enum.CaseTypeUnmute:
		err = s.actions.RemoveTimeout(ctx, record.GuildID, record.UserID, record.Reason)
	case enum.CaseTypeUnban:
		err = s.actions.RemoveBan(ctx, record.GuildID, record.UserID, record.Reason)
	}

	if err != nil {
		return fmt.Errorf("failed to apply %s: %w", record.Type, err)
	}

	return nil
}
