package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/wardenbot/warden/internal/database/dbretry"
	"github.com/wardenbot/warden/internal/database/types"
	"github.com/wardenbot/warden/internal/database/types/enum"
	"go.uber.org/zap"
)

// CaseModel handles database operations for moderation cases.
type CaseModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewCase creates a new CaseModel instance.
func NewCase(db *bun.DB, logger *zap.Logger) *CaseModel {
	return &CaseModel{
		db:     db,
		logger: logger.Named("db_case"),
	}
}

// Get retrieves a single case by its guild-scoped number.
// Returns (nil, nil) when the case does not exist.
func (m *CaseModel) Get(ctx context.Context, guildID uint64, caseID int64) (*types.Case, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.Case, error) {
		record := new(types.Case)

		err := m.db.NewSelect().
			Model(record).
			Where("guild_id = ?", guildID).
			Where("case_id = ?", caseID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}

			return nil, fmt.Errorf("failed to get case %d in guild %d: %w", caseID, guildID, err)
		}

		return record, nil
	})
}

// Insert stores a new case, assigning the next case number for the guild.
// The number is claimed inside a transaction so concurrent inserts for the
// same guild cannot collide.
func (m *CaseModel) Insert(ctx context.Context, record *types.Case) (*types.Case, error) {
	err := dbretry.Transaction(ctx, m.db, func(ctx context.Context, tx bun.Tx) error {
		var nextID int64

		err := tx.NewSelect().
			Model((*types.Case)(nil)).
			ColumnExpr("COALESCE(MAX(case_id), 0) + 1").
			Where("guild_id = ?", record.GuildID).
			For("UPDATE").
			Scan(ctx, &nextID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to allocate case number: %w", err)
		}

		if nextID == 0 {
			nextID = 1
		}

		record.CaseID = nextID

		if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert case: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Debug("Inserted moderation case",
		zap.Uint64("guildID", record.GuildID),
		zap.Int64("caseID", record.CaseID),
		zap.Stringer("type", record.Type))

	return record, nil
}

// Update persists the mutable fields of an existing case.
func (m *CaseModel) Update(ctx context.Context, record *types.Case) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		result, err := m.db.NewUpdate().
			Model(record).
			Column("reason", "expires_at", "job_id", "related_case_id").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update case %d in guild %d: %w", record.CaseID, record.GuildID, err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check update result: %w", err)
		}

		if affected == 0 {
			return sql.ErrNoRows
		}

		return nil
	})
}

// Delete removes a case from the store.
// Returns true if a row was actually deleted.
func (m *CaseModel) Delete(ctx context.Context, guildID uint64, caseID int64) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		result, err := m.db.NewDelete().
			Model((*types.Case)(nil)).
			Where("guild_id = ?", guildID).
			Where("case_id = ?", caseID).
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to delete case %d in guild %d: %w", caseID, guildID, err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return false, err
		}

		return affected > 0, nil
	})
}

// GetExpirableActive retrieves all cases of the given type in a guild that
// still carry an expiration and have not been pardoned.
func (m *CaseModel) GetExpirableActive(
	ctx context.Context, guildID uint64, caseType enum.CaseType,
) ([]*types.Case, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Case, error) {
		var records []*types.Case

		err := m.db.NewSelect().
			Model(&records).
			Where("guild_id = ?", guildID).
			Where("type = ?", caseType).
			Where("expires_at IS NOT NULL").
			Where("related_case_id IS NULL").
			Order("case_id ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get expirable cases for guild %d: %w", guildID, err)
		}

		return records, nil
	})
}

// GetByUserSince retrieves the user's cases of the given type created
// strictly after the given time, newest first.
func (m *CaseModel) GetByUserSince(
	ctx context.Context, guildID, userID uint64, caseType enum.CaseType, after time.Time,
) ([]*types.Case, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Case, error) {
		var records []*types.Case

		err := m.db.NewSelect().
			Model(&records).
			Where("guild_id = ?", guildID).
			Where("user_id = ?", userID).
			Where("type = ?", caseType).
			Where("created_at > ?", after).
			Order("created_at DESC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get cases for user %d since %s: %w", userID, after, err)
		}

		return records, nil
	})
}
