package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/task-graphql-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormGroupRepository is a GORM implementation of GroupRepository
type GormGroupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a new GroupRepository
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &GormGroupRepository{db: db}
}

// FindOrCreate returns the named group, creating it if needed
func (r *GormGroupRepository) FindOrCreate(ctx context.Context, name string) (*models.Group, error) {
	group, err := r.FindByName(ctx, name)
	if err == nil {
		return group, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	group = &models.Group{Name: name}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(group).Error
	if err != nil {
		return nil, err
	}
	if group.ID == 0 {
		// lost a race with a concurrent creator
		return r.FindByName(ctx, name)
	}
	return group, nil
}

// FindByName finds a group by name
func (r *GormGroupRepository) FindByName(ctx context.Context, name string) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// AddMember adds a user to a group
func (r *GormGroupRepository) AddMember(ctx context.Context, member *models.GroupMember) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(member).Error
}

// RemoveMember removes a user from a group
func (r *GormGroupRepository) RemoveMember(ctx context.Context, groupID, userID uint64) error {
	return r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{}).Error
}

// ListMembers lists all members of a group
func (r *GormGroupRepository) ListMembers(ctx context.Context, groupID uint64) ([]models.GroupMember, error) {
	var members []models.GroupMember
	if err := r.db.WithContext(ctx).Preload("User").
		Where("group_id = ?", groupID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
