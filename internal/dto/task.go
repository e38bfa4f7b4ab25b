package dto

import (
	"strconv"
	"time"

	"github.com/yukikurage/task-graphql-api/internal/constants"
	"github.com/yukikurage/task-graphql-api/internal/models"
)

// UserDTO represents a user in API responses. The password hash never
// leaves the models package.
type UserDTO struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Gender         string    `json:"gender"`
	Position       string    `json:"position"`
	Department     string    `json:"department"`
	ProfilePicture *string   `json:"profilePicture"`
	IsActive       bool      `json:"isActive"`
	Groups         []string  `json:"groups"`
	IsManager      bool      `json:"isManager"`
	DateJoined     time.Time `json:"dateJoined"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	AssignedTo  *UserDTO  `json:"assignedTo"`
	CreatedBy   *UserDTO  `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Key uint64 `json:"-"`
}

// SubTaskDTO represents a subtask in API responses
type SubTaskDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	TaskKey uint64 `json:"-"`
}

// Conversion functions

// FormatID renders a database id as a GraphQL ID.
func FormatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// ToUserDTO converts a User model to UserDTO. Groups must be preloaded for
// groups and isManager to be accurate.
func ToUserDTO(user models.User) UserDTO {
	groups := user.GroupNames()
	isManager := false
	for _, g := range groups {
		if g == constants.ManagersGroup {
			isManager = true
		}
	}

	return UserDTO{
		ID:             FormatID(user.ID),
		Username:       user.Username,
		Email:          user.Email,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Gender:         string(user.Gender),
		Position:       user.Position,
		Department:     user.Department,
		ProfilePicture: user.ProfilePicture,
		IsActive:       user.IsActive,
		Groups:         groups,
		IsManager:      isManager,
		DateJoined:     user.CreatedAt,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          FormatID(task.ID),
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		Key:         task.ID,
	}

	if task.CreatedBy.ID != 0 {
		createdBy := ToUserDTO(task.CreatedBy)
		dto.CreatedBy = &createdBy
	}
	if task.AssignedTo != nil {
		assignedTo := ToUserDTO(*task.AssignedTo)
		dto.AssignedTo = &assignedTo
	}

	return dto
}

// ToTaskDTOs converts a slice of Task models
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	out := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		out[i] = ToTaskDTO(t)
	}
	return out
}

// ToSubTaskDTO converts a SubTask model to SubTaskDTO
func ToSubTaskDTO(subTask models.SubTask) SubTaskDTO {
	return SubTaskDTO{
		ID:          FormatID(subTask.ID),
		Title:       subTask.Title,
		Description: subTask.Description,
		Status:      string(subTask.Status),
		CreatedAt:   subTask.CreatedAt,
		UpdatedAt:   subTask.UpdatedAt,
		TaskKey:     subTask.TaskID,
	}
}

// ToSubTaskDTOs converts a slice of SubTask models
func ToSubTaskDTOs(subTasks []models.SubTask) []SubTaskDTO {
	out := make([]SubTaskDTO, len(subTasks))
	for i, st := range subTasks {
		out[i] = ToSubTaskDTO(st)
	}
	return out
}
