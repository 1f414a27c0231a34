package database

import (
	"github.com/uptrace/bun"
	"github.com/wardenbot/warden/internal/database/models"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	caseModel *models.CaseModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		caseModel: models.NewCase(db, logger),
	}
}

// Case returns the moderation case model repository.
func (r *Repository) Case() *models.CaseModel {
	return r.caseModel
}
