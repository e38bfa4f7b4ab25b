package repository

import (
	"context"

	"github.com/yukikurage/task-graphql-api/internal/models"
	"github.com/yukikurage/task-graphql-api/internal/utils"
	"gorm.io/gorm"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// UpdateFields writes only the given columns
	UpdateFields(ctx context.Context, id uint64, fields map[string]interface{}) error

	// Delete removes a task and its subtasks
	Delete(ctx context.Context, id uint64) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	// ParticipantID restricts to tasks created by or assigned to the user
	ParticipantID  *uint64
	AssignedUserID *uint64
	SortByDueDate  bool
	// Pagination is optional; nil returns every row
	Pagination *utils.PaginationParams
}

// SubTaskRepository defines the interface for subtask data access
type SubTaskRepository interface {
	Create(ctx context.Context, subTask *models.SubTask) error

	// FindByID loads the subtask together with its parent task
	FindByID(ctx context.Context, id uint64) (*models.SubTask, error)

	// ListByTask returns the subtasks of a task, oldest first
	ListByTask(ctx context.Context, taskID uint64) ([]models.SubTask, error)

	UpdateFields(ctx context.Context, id uint64, fields map[string]interface{}) error

	Delete(ctx context.Context, id uint64) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Transaction runs fn in a database transaction
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Create creates a new user, inside tx when it is not nil
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error

	// FindByID finds a user by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.User, error)

	// FindByUsername finds a user by username with optional preloading
	FindByUsername(ctx context.Context, username string, preload ...string) (*models.User, error)

	// ExistsByUsername reports whether the username is taken
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// ExistsByEmail reports whether another user (not excludeID) has the email
	ExistsByEmail(ctx context.Context, email string, excludeID uint64) (bool, error)

	// UpdateFields writes only the given columns
	UpdateFields(ctx context.Context, id uint64, fields map[string]interface{}) error
}

// GroupRepository defines the interface for group data access
type GroupRepository interface {
	// FindOrCreate returns the named group, creating it if needed
	FindOrCreate(ctx context.Context, name string) (*models.Group, error)

	// FindByName finds a group by name
	FindByName(ctx context.Context, name string) (*models.Group, error)

	// AddMember adds a user to a group; adding twice is a no-op
	AddMember(ctx context.Context, member *models.GroupMember) error

	// RemoveMember removes a user from a group
	RemoveMember(ctx context.Context, groupID, userID uint64) error

	// ListMembers lists all members of a group
	ListMembers(ctx context.Context, groupID uint64) ([]models.GroupMember, error)
}

// RefreshTokenRepository stores issued refresh tokens. Methods taking tx run
// inside a caller-owned transaction.
type RefreshTokenRepository interface {
	// Transaction runs fn in a database transaction
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error

	Create(ctx context.Context, tx *gorm.DB, token *models.RefreshToken) error

	// GetForUpdate locks the row against concurrent rotation
	GetForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.RefreshToken, error)

	// Revoke marks the row revoked, recording its successor if any
	Revoke(ctx context.Context, tx *gorm.DB, id string, replacedBy *string) error

	// RevokeAllForUser revokes every active token of a user
	RevokeAllForUser(ctx context.Context, userID uint64) error
}
