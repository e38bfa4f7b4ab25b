package repository

import (
	"context"

	"github.com/yukikurage/task-graphql-api/internal/models"
	"gorm.io/gorm"
)

// GormSubTaskRepository is a GORM implementation of SubTaskRepository
type GormSubTaskRepository struct {
	db *gorm.DB
}

// NewSubTaskRepository creates a new SubTaskRepository
func NewSubTaskRepository(db *gorm.DB) SubTaskRepository {
	return &GormSubTaskRepository{db: db}
}

func (r *GormSubTaskRepository) Create(ctx context.Context, subTask *models.SubTask) error {
	return r.db.WithContext(ctx).Omit("Task").Create(subTask).Error
}

// FindByID loads the subtask together with its parent task
func (r *GormSubTaskRepository) FindByID(ctx context.Context, id uint64) (*models.SubTask, error) {
	var subTask models.SubTask
	if err := r.db.WithContext(ctx).Preload("Task").First(&subTask, id).Error; err != nil {
		return nil, err
	}
	return &subTask, nil
}

func (r *GormSubTaskRepository) ListByTask(ctx context.Context, taskID uint64) ([]models.SubTask, error) {
	var subTasks []models.SubTask
	if err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&subTasks).Error; err != nil {
		return nil, err
	}
	return subTasks, nil
}

func (r *GormSubTaskRepository) UpdateFields(ctx context.Context, id uint64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.SubTask{ID: id}).Updates(fields).Error
}

func (r *GormSubTaskRepository) Delete(ctx context.Context, id uint64) error {
	result := r.db.WithContext(ctx).Delete(&models.SubTask{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
