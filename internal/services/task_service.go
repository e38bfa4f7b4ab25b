package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yukikurage/task-graphql-api/internal/auth"
	"github.com/yukikurage/task-graphql-api/internal/models"
	"github.com/yukikurage/task-graphql-api/internal/policy"
	"github.com/yukikurage/task-graphql-api/internal/repository"
	"github.com/yukikurage/task-graphql-api/internal/utils"
	"gorm.io/gorm"
)

// taskPreloads is what every task handed back to callers carries.
var taskPreloads = []string{"CreatedBy.Groups", "AssignedTo.Groups"}

// TaskService handles task and subtask business logic
type TaskService struct {
	taskRepo    repository.TaskRepository
	subTaskRepo repository.SubTaskRepository
	userRepo    repository.UserRepository
	log         *slog.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, subTaskRepo repository.SubTaskRepository, userRepo repository.UserRepository, log *slog.Logger) *TaskService {
	if log == nil {
		log = slog.Default()
	}
	return &TaskService{
		taskRepo:    taskRepo,
		subTaskRepo: subTaskRepo,
		userRepo:    userRepo,
		log:         log,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title        string              `json:"title" validate:"required,notblank,max=200"`
	Description  string              `json:"description"`
	DueDate      time.Time           `json:"dueDate" validate:"required"`
	Status       models.TaskStatus   `json:"status" validate:"omitempty,taskstatus"`
	Priority     models.TaskPriority `json:"priority" validate:"omitempty,taskpriority"`
	AssignedToID *uint64             `json:"assignedToId"`
}

// TaskPatch is a partial task update; nil fields are not submitted.
type TaskPatch struct {
	Title        *string              `json:"title" validate:"omitnil,notblank,max=200"`
	Description  *string              `json:"description"`
	DueDate      *time.Time           `json:"dueDate"`
	Status       *models.TaskStatus   `json:"status" validate:"omitnil,taskstatus"`
	Priority     *models.TaskPriority `json:"priority" validate:"omitnil,taskpriority"`
	AssignedToID *uint64              `json:"assignedToId"`
}

// Fields reports which fields the patch submits.
func (p TaskPatch) Fields() policy.TaskFieldSet {
	set := policy.NoTaskFields
	if p.Title != nil {
		set = set.With(policy.FieldTitle)
	}
	if p.Description != nil {
		set = set.With(policy.FieldDescription)
	}
	if p.DueDate != nil {
		set = set.With(policy.FieldDueDate)
	}
	if p.Status != nil {
		set = set.With(policy.FieldStatus)
	}
	if p.Priority != nil {
		set = set.With(policy.FieldPriority)
	}
	if p.AssignedToID != nil {
		set = set.With(policy.FieldAssignedTo)
	}
	return set
}

// Restrict drops every field outside mask.
func (p TaskPatch) Restrict(mask policy.TaskFieldSet) TaskPatch {
	if !mask.Has(policy.FieldTitle) {
		p.Title = nil
	}
	if !mask.Has(policy.FieldDescription) {
		p.Description = nil
	}
	if !mask.Has(policy.FieldDueDate) {
		p.DueDate = nil
	}
	if !mask.Has(policy.FieldStatus) {
		p.Status = nil
	}
	if !mask.Has(policy.FieldPriority) {
		p.Priority = nil
	}
	if !mask.Has(policy.FieldAssignedTo) {
		p.AssignedToID = nil
	}
	return p
}

// mergeTaskPatch returns the columns of task that change when the fields of
// patch allowed by mask are applied. task itself is not modified.
func mergeTaskPatch(task *models.Task, patch TaskPatch, mask policy.TaskFieldSet) map[string]interface{} {
	changes := map[string]interface{}{}

	if mask.Has(policy.FieldTitle) && patch.Title != nil && *patch.Title != task.Title {
		changes["title"] = *patch.Title
	}
	if mask.Has(policy.FieldDescription) && patch.Description != nil && *patch.Description != task.Description {
		changes["description"] = *patch.Description
	}
	if mask.Has(policy.FieldDueDate) && patch.DueDate != nil && !sameDate(*patch.DueDate, task.DueDate) {
		changes["due_date"] = *patch.DueDate
	}
	if mask.Has(policy.FieldStatus) && patch.Status != nil && *patch.Status != task.Status {
		changes["status"] = *patch.Status
	}
	if mask.Has(policy.FieldPriority) && patch.Priority != nil && *patch.Priority != task.Priority {
		changes["priority"] = *patch.Priority
	}
	if mask.Has(policy.FieldAssignedTo) && patch.AssignedToID != nil && !task.IsAssignedTo(*patch.AssignedToID) {
		changes["assigned_to_id"] = *patch.AssignedToID
	}

	return changes
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ListTasks returns the tasks visible to id, newest first. Anonymous callers
// get an empty list.
func (s *TaskService) ListTasks(ctx context.Context, id *auth.Identity, page *utils.PaginationParams) ([]models.Task, int64, error) {
	scope := policy.VisibleTasks(id)
	if scope.None {
		return []models.Task{}, 0, nil
	}

	filter := repository.TaskFilter{Pagination: page}
	if !scope.All {
		filter.ParticipantID = &scope.UserID
	}

	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// MyTasks returns the tasks assigned to id, earliest due date first.
func (s *TaskService) MyTasks(ctx context.Context, id *auth.Identity) ([]models.Task, error) {
	if id == nil {
		return []models.Task{}, nil
	}

	tasks, _, err := s.taskRepo.List(ctx, repository.TaskFilter{
		AssignedUserID: &id.UserID,
		SortByDueDate:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask returns the task, or nil when it does not exist or id may not
// read it. The caller cannot tell the two cases apart.
func (s *TaskService) GetTask(ctx context.Context, id *auth.Identity, taskID uint64) (*models.Task, error) {
	if id == nil {
		return nil, nil
	}

	task, err := s.taskRepo.FindByID(ctx, taskID, taskPreloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if !policy.CanReadTask(id, task) {
		return nil, nil
	}
	return task, nil
}

// CreateTask creates a task owned by the calling manager.
func (s *TaskService) CreateTask(ctx context.Context, id *auth.Identity, input CreateTaskInput) (*models.Task, error) {
	if id == nil {
		return nil, ErrAuthenticationRequired
	}
	if !policy.CanCreateTask(id) {
		return nil, denied("Only Managers can create tasks.")
	}

	input.Title = strings.TrimSpace(input.Title)
	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	if input.AssignedToID != nil {
		if err := s.ensureUserExists(ctx, *input.AssignedToID); err != nil {
			return nil, err
		}
	}

	task := &models.Task{
		Title:        input.Title,
		Description:  input.Description,
		DueDate:      input.DueDate,
		Status:       input.Status,
		Priority:     input.Priority,
		AssignedToID: input.AssignedToID,
		CreatedByID:  id.UserID,
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.log.InfoContext(ctx, "task created", "task_id", task.ID, "user_id", id.UserID)
	return s.reload(ctx, task.ID)
}

// UpdateTask applies the part of patch that id is allowed to write. Fields a
// non-manager may not touch are dropped without an error.
func (s *TaskService) UpdateTask(ctx context.Context, id *auth.Identity, taskID uint64, patch TaskPatch) (*models.Task, error) {
	if id == nil {
		return nil, ErrAuthenticationRequired
	}

	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	mask, ok := policy.WritableTaskFields(id, task)
	if !ok {
		return nil, denied("You cannot modify this task.")
	}

	// restricted fields are dropped before validation so their values
	// cannot fail the update
	if ignored := patch.Fields() &^ mask; ignored != policy.NoTaskFields {
		s.log.DebugContext(ctx, "ignoring restricted task fields", "task_id", task.ID, "user_id", id.UserID)
	}
	patch = patch.Restrict(mask)

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}
	if err := validateStruct(patch); err != nil {
		return nil, err
	}

	if mask.Has(policy.FieldAssignedTo) && patch.AssignedToID != nil {
		if err := s.ensureUserExists(ctx, *patch.AssignedToID); err != nil {
			return nil, err
		}
	}

	changes := mergeTaskPatch(task, patch, mask)
	if len(changes) == 0 {
		return s.reload(ctx, task.ID)
	}

	if err := s.taskRepo.UpdateFields(ctx, task.ID, changes); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.reload(ctx, task.ID)
}

// DeleteTask removes a task and its subtasks. Only managers may delete.
func (s *TaskService) DeleteTask(ctx context.Context, id *auth.Identity, taskID uint64) error {
	if id == nil {
		return ErrAuthenticationRequired
	}
	if !policy.CanDeleteTask(id) {
		return denied("Only Managers can delete tasks.")
	}

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.log.InfoContext(ctx, "task deleted", "task_id", taskID, "user_id", id.UserID)
	return nil
}

func (s *TaskService) findTask(ctx context.Context, taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func (s *TaskService) reload(ctx context.Context, taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID, taskPreloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	return task, nil
}

func (s *TaskService) ensureUserExists(ctx context.Context, userID uint64) error {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("assigned %w", ErrUserNotFound)
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	return nil
}
