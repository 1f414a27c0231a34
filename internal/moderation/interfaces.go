package moderation

import (
	"context"
	"time"

	"github.com/wardenbot/warden/internal/database/types"
	"github.com/wardenbot/warden/internal/database/types/enum"
)

// CaseStore is the durable record of moderation cases. The store row is the
// single source of truth; job backend state is derived from it.
type CaseStore interface {
	// Get retrieves a case by its guild-scoped number, (nil, nil) if absent.
	Get(ctx context.Context, guildID uint64, caseID int64) (*types.Case, error)
	// Insert stores a new case and assigns its case number.
	Insert(ctx context.Context, record *types.Case) (*types.Case, error)
	// Update persists the mutable fields of an existing case.
	Update(ctx context.Context, record *types.Case) error
	// Delete removes a case, reporting whether a row existed.
	Delete(ctx context.Context, guildID uint64, caseID int64) (bool, error)
	// GetExpirableActive returns unpardoned cases of the type that still
	// carry an expiration.
	GetExpirableActive(ctx context.Context, guildID uint64, caseType enum.CaseType) ([]*types.Case, error)
	// GetByUserSince returns the user's cases of the type created strictly
	// after the given time.
	GetByUserSince(
		ctx context.Context, guildID, userID uint64, caseType enum.CaseType, after time.Time,
	) ([]*types.Case, error)
}

// JobBackend is the external deferred-execution service. Its state is a cache
// rebuildable from case rows, never the primary record.
type JobBackend interface {
	// ScheduleAt registers a firing for the case at the given time and
	// returns an opaque job handle.
	ScheduleAt(ctx context.Context, fireAt time.Time, guildID uint64, caseID int64) (string, error)
	// Cancel removes a pending job. Cancelling a missing or already-fired
	// job is a no-op that returns false.
	Cancel(ctx context.Context, jobID string) (bool, error)
	// RescheduleOrReplace moves an existing job to a new fire time,
	// returning the handle that is now live (usually the same one).
	RescheduleOrReplace(
		ctx context.Context, jobID string, fireAt time.Time, guildID uint64, caseID int64,
	) (string, error)
}

// ActionExecutor applies and reverses moderation effects on the chat platform.
type ActionExecutor interface {
	ApplyBan(ctx context.Context, guildID, userID uint64, reason string) error
	RemoveBan(ctx context.Context, guildID, userID uint64, reason string) error
	SetTimeout(ctx context.Context, guildID, userID uint64, duration time.Duration, reason string) error
	RemoveTimeout(ctx context.Context, guildID, userID uint64, reason string) error
	Kick(ctx context.Context, guildID, userID uint64, reason string) error
	IsBanned(ctx context.Context, guildID, userID uint64) (bool, error)
}

// Notifier delivers the expiration notice to the affected user.
// Failures are logged and never block the reversal.
type Notifier interface {
	NotifyExpired(ctx context.Context, record *types.Case) error
}
