package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/wardenbot/warden/internal/database/types"
	"go.uber.org/zap"
)

// PardonLinker creates the reversal case for an active case, links the two
// records bidirectionally, and deactivates the original.
type PardonLinker struct {
	store     CaseStore
	scheduler *Scheduler
	creator   caseCreator
	logger    *zap.Logger
}

// caseCreator is the slice of the action pipeline the linker needs: creating
// the reversal case both records it and performs the platform-side reversal.
type caseCreator interface {
	CreateCase(ctx context.Context, params CreateParams) (*types.Case, error)
}

// NewPardonLinker creates a pardon linker over the given collaborators.
func NewPardonLinker(store CaseStore, scheduler *Scheduler, creator caseCreator, logger *zap.Logger) *PardonLinker {
	return &PardonLinker{
		store:     store,
		scheduler: scheduler,
		creator:   creator,
		logger:    logger.Named("pardon"),
	}
}

// Pardon reverses an active case: it creates the reversal case through the
// action pipeline, links both directions, cancels any pending expiration job,
// and persists both records. A second pardon of the same case fails because
// the pardon link already deactivated it.
func (p *PardonLinker) Pardon(
	ctx context.Context, original *types.Case, moderatorID uint64, reason string,
) (*types.Case, error) {
	// Work from a fresh snapshot so a concurrent pardon or firing is seen.
	current, err := p.store.Get(ctx, original.GuildID, original.CaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load case: %w", err)
	}

	if current == nil {
		return nil, fmt.Errorf("%w: case %d in guild %d", ErrCaseNotFound, original.CaseID, original.GuildID)
	}

	if !current.IsActive(time.Now()) {
		return nil, fmt.Errorf("%w: case %d is not active", ErrInvalidState, current.CaseID)
	}

	pardonType, ok := current.Type.PardonType()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotPardonable, current.Type)
	}

	// The pipeline performs the external reversal (lifting the ban or
	// timeout) and records the reversal case in one step.
	reversal, err := p.creator.CreateCase(ctx, CreateParams{
		GuildID:     current.GuildID,
		UserID:      current.UserID,
		ModeratorID: moderatorID,
		Type:        pardonType,
		Reason:      reason,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create reversal case: %w", err)
	}

	// Link both directions and deactivate the original. The pardon link is
	// what makes the original inactive, so any still-pending job is cancelled
	// before the link lands.
	if _, err := p.scheduler.Cancel(ctx, current); err != nil {
		return nil, err
	}

	current.JobID = ""
	current.RelatedCaseID = &reversal.CaseID

	if err := p.store.Update(ctx, current); err != nil {
		return nil, fmt.Errorf("failed to link pardoned case: %w", err)
	}

	reversal.RelatedCaseID = &current.CaseID

	if err := p.store.Update(ctx, reversal); err != nil {
		return nil, fmt.Errorf("failed to link reversal case: %w", err)
	}

	p.logger.Info("Pardoned case",
		zap.Uint64("guildID", current.GuildID),
		zap.Int64("caseID", current.CaseID),
		zap.Int64("reversalCaseID", reversal.CaseID),
		zap.Stringer("type", current.Type))

	return reversal, nil
}
