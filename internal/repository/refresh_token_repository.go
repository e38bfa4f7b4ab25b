package repository

import (
	"context"
	"time"

	"github.com/yukikurage/task-graphql-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRefreshTokenRepository is a GORM implementation of RefreshTokenRepository
type GormRefreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository creates a new RefreshTokenRepository
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &GormRefreshTokenRepository{db: db}
}

func (r *GormRefreshTokenRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *GormRefreshTokenRepository) Create(ctx context.Context, tx *gorm.DB, token *models.RefreshToken) error {
	return r.conn(tx).WithContext(ctx).Omit("User").Create(token).Error
}

// GetForUpdate locks the row to prevent concurrent refresh races. SQLite
// has no row locks; its single writer serializes the transaction instead.
func (r *GormRefreshTokenRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	query := r.conn(tx).WithContext(ctx)
	if query.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := query.Where("id = ?", id).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *GormRefreshTokenRepository) Revoke(ctx context.Context, tx *gorm.DB, id string, replacedBy *string) error {
	return r.conn(tx).WithContext(ctx).Model(&models.RefreshToken{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Updates(map[string]interface{}{
			"revoked_at":  time.Now().UTC(),
			"replaced_by": replacedBy,
		}).Error
}

func (r *GormRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", time.Now().UTC()).Error
}

func (r *GormRefreshTokenRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
