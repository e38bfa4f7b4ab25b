package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/task-graphql-api/internal/auth"
	"github.com/yukikurage/task-graphql-api/internal/models"
	"github.com/yukikurage/task-graphql-api/internal/policy"
	"gorm.io/gorm"
)

// CreateSubTaskInput represents input for creating a subtask
type CreateSubTaskInput struct {
	TaskID      uint64            `json:"taskId" validate:"required"`
	Title       string            `json:"title" validate:"required,notblank,max=200"`
	Description string            `json:"description"`
	Status      models.TaskStatus `json:"status" validate:"omitempty,taskstatus"`
}

// SubTaskPatch is a partial subtask update; nil fields are not submitted.
type SubTaskPatch struct {
	Title       *string            `json:"title" validate:"omitnil,notblank,max=200"`
	Description *string            `json:"description"`
	Status      *models.TaskStatus `json:"status" validate:"omitnil,taskstatus"`
}

func mergeSubTaskPatch(subTask *models.SubTask, patch SubTaskPatch) map[string]interface{} {
	changes := map[string]interface{}{}
	if patch.Title != nil && *patch.Title != subTask.Title {
		changes["title"] = *patch.Title
	}
	if patch.Description != nil && *patch.Description != subTask.Description {
		changes["description"] = *patch.Description
	}
	if patch.Status != nil && *patch.Status != subTask.Status {
		changes["status"] = *patch.Status
	}
	return changes
}

// ListSubTasks returns the subtasks of a task, oldest first. A missing or
// unreadable task yields an empty list.
func (s *TaskService) ListSubTasks(ctx context.Context, id *auth.Identity, taskID uint64) ([]models.SubTask, error) {
	if id == nil {
		return []models.SubTask{}, nil
	}

	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []models.SubTask{}, nil
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if !policy.CanAccessSubtaskOf(id, task) {
		return []models.SubTask{}, nil
	}

	subTasks, err := s.subTaskRepo.ListByTask(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subtasks: %w", err)
	}
	return subTasks, nil
}

// CreateSubTask adds a subtask under a task id can access.
func (s *TaskService) CreateSubTask(ctx context.Context, id *auth.Identity, input CreateSubTaskInput) (*models.SubTask, error) {
	if id == nil {
		return nil, ErrAuthenticationRequired
	}

	input.Title = strings.TrimSpace(input.Title)
	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	parent, err := s.taskRepo.FindByID(ctx, input.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("parent %w", ErrTaskNotFound)
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if !policy.CanAccessSubtaskOf(id, parent) {
		return nil, denied("You cannot add subtasks to this task.")
	}

	subTask := &models.SubTask{
		TaskID:      parent.ID,
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
	}
	if err := s.subTaskRepo.Create(ctx, subTask); err != nil {
		return nil, fmt.Errorf("failed to create subtask: %w", err)
	}

	subTask.Task = *parent
	return subTask, nil
}

// UpdateSubTask applies patch to a subtask whose parent id can access.
func (s *TaskService) UpdateSubTask(ctx context.Context, id *auth.Identity, subTaskID uint64, patch SubTaskPatch) (*models.SubTask, error) {
	if id == nil {
		return nil, ErrAuthenticationRequired
	}

	subTask, err := s.findSubTask(ctx, subTaskID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccessSubtaskOf(id, &subTask.Task) {
		return nil, denied("You cannot modify this subtask.")
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}
	if err := validateStruct(patch); err != nil {
		return nil, err
	}

	changes := mergeSubTaskPatch(subTask, patch)
	if len(changes) == 0 {
		return subTask, nil
	}
	if err := s.subTaskRepo.UpdateFields(ctx, subTask.ID, changes); err != nil {
		return nil, fmt.Errorf("failed to update subtask: %w", err)
	}

	return s.findSubTask(ctx, subTask.ID)
}

// DeleteSubTask removes a subtask whose parent id can access.
func (s *TaskService) DeleteSubTask(ctx context.Context, id *auth.Identity, subTaskID uint64) error {
	if id == nil {
		return ErrAuthenticationRequired
	}

	subTask, err := s.findSubTask(ctx, subTaskID)
	if err != nil {
		return err
	}
	if !policy.CanAccessSubtaskOf(id, &subTask.Task) {
		return denied("You cannot delete this subtask.")
	}

	if err := s.subTaskRepo.Delete(ctx, subTask.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubTaskNotFound
		}
		return fmt.Errorf("failed to delete subtask: %w", err)
	}
	return nil
}

func (s *TaskService) findSubTask(ctx context.Context, subTaskID uint64) (*models.SubTask, error) {
	subTask, err := s.subTaskRepo.FindByID(ctx, subTaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubTaskNotFound
		}
		return nil, fmt.Errorf("failed to find subtask: %w", err)
	}
	return subTask, nil
}
