package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID           uint64       `gorm:"primarykey" json:"id"`
	Title        string       `gorm:"type:varchar(200);not null" json:"title"`
	Description  string       `gorm:"type:text;not null" json:"description"`
	DueDate      time.Time    `gorm:"type:date;not null" json:"due_date"`
	Status       TaskStatus   `gorm:"type:varchar(20);not null;default:'TODO'" json:"status"`
	Priority     TaskPriority `gorm:"type:varchar(10);not null;default:'MEDIUM'" json:"priority"`
	AssignedToID *uint64      `gorm:"index" json:"assigned_to_id"`
	CreatedByID  uint64       `gorm:"not null;index" json:"created_by_id"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`

	// Relations
	AssignedTo *User     `gorm:"foreignKey:AssignedToID;constraint:OnDelete:CASCADE" json:"assigned_to,omitempty"`
	CreatedBy  User      `gorm:"foreignKey:CreatedByID;constraint:OnDelete:CASCADE" json:"created_by,omitempty"`
	SubTasks   []SubTask `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"subtasks,omitempty"`
}

// IsCreatedBy reports whether userID originated the task.
func (t Task) IsCreatedBy(userID uint64) bool {
	return t.CreatedByID == userID
}

// IsAssignedTo reports whether the task is delegated to userID.
func (t Task) IsAssignedTo(userID uint64) bool {
	return t.AssignedToID != nil && *t.AssignedToID == userID
}
