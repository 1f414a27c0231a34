package types

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/wardenbot/warden/internal/database/types/enum"
)

// Case represents a single moderation action taken against a user.
// Cases are immutable in their identity fields; only the reason, expiration,
// job handle, and pardon link change after creation.
type Case struct {
	bun.BaseModel `bun:"table:moderation_cases"`

	GuildID       uint64        `bun:",pk"`                 // Guild the case belongs to
	CaseID        int64         `bun:",pk"`                 // Per-guild monotonic case number
	UserID        uint64        `bun:",notnull"`            // Subject of the moderation action
	ModeratorID   uint64        `bun:",notnull"`            // Moderator who took the action
	Type          enum.CaseType `bun:",notnull"`            // Kind of action recorded
	CreatedAt     time.Time     `bun:",notnull"`            // When the action was taken (UTC)
	Reason        string        `bun:",type:text"`          // Free-text reason, empty if none given
	ExpiresAt     *time.Time    `bun:",nullzero"`           // When the effect lapses (nil for permanent)
	JobID         string        `bun:",nullzero,type:text"` // Pending expiration job handle, empty if none
	RelatedCaseID *int64        `bun:",nullzero"`           // Case that pardons this one, or that this one pardons
}

// IsActive reports whether the case's effect is still in force at the given
// time: it has not been pardoned and, for expirable types, has not lapsed.
func (c *Case) IsActive(now time.Time) bool {
	if c.RelatedCaseID != nil {
		return false
	}

	if c.Type.CanExpire() && c.ExpiresAt != nil && !c.ExpiresAt.After(now) {
		return false
	}

	return true
}

// IsPermanent reports whether the case carries no expiration.
func (c *Case) IsPermanent() bool {
	return c.ExpiresAt == nil
}

// NormalizeReason trims the reason so "no reason" is always stored as the
// empty string regardless of how much whitespace the caller passed in.
func NormalizeReason(reason string) string {
	return strings.TrimSpace(reason)
}

// Clone returns a shallow copy with its own pointer fields, so callers can
// build a proposed update without aliasing the stored snapshot.
func (c *Case) Clone() *Case {
	clone := *c

	if c.ExpiresAt != nil {
		expiresAt := *c.ExpiresAt
		clone.ExpiresAt = &expiresAt
	}

	if c.RelatedCaseID != nil {
		relatedID := *c.RelatedCaseID
		clone.RelatedCaseID = &relatedID
	}

	return &clone
}
