package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/wardenbot/warden/internal/database/types"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewCreateTable().
			Model((*types.Case)(nil)).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create moderation_cases table: %w", err)
		}

		// Lookups by subject are the hot path for the stale-firing check.
		_, err = db.NewCreateIndex().
			Model((*types.Case)(nil)).
			Index("moderation_cases_user_idx").
			IfNotExists().
			Column("guild_id", "user_id", "type", "created_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create user lookup index: %w", err)
		}

		// The expiry worker scans for unpardoned cases that still expire.
		_, err = db.NewCreateIndex().
			Model((*types.Case)(nil)).
			Index("moderation_cases_expiry_idx").
			IfNotExists().
			Column("guild_id", "type").
			Where("expires_at IS NOT NULL AND related_case_id IS NULL").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create expiry index: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewDropTable().
			Model((*types.Case)(nil)).
			IfExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop moderation_cases table: %w", err)
		}

		return nil
	})
}
