// Package policy holds the authorization rules for tasks and subtasks. Every
// function is pure: it looks only at the identity and the records passed in.
package policy

import (
	"github.com/yukikurage/task-graphql-api/internal/auth"
	"github.com/yukikurage/task-graphql-api/internal/constants"
	"github.com/yukikurage/task-graphql-api/internal/models"
)

// TaskField is a bit in a TaskFieldSet.
type TaskField uint8

const (
	FieldTitle TaskField = 1 << iota
	FieldDescription
	FieldDueDate
	FieldStatus
	FieldPriority
	FieldAssignedTo
)

type TaskFieldSet uint8

const (
	NoTaskFields          TaskFieldSet = 0
	ParticipantTaskFields TaskFieldSet = TaskFieldSet(FieldDescription | FieldStatus)
	AllTaskFields         TaskFieldSet = TaskFieldSet(FieldTitle | FieldDescription | FieldDueDate | FieldStatus | FieldPriority | FieldAssignedTo)
)

func (s TaskFieldSet) Has(f TaskField) bool {
	return s&TaskFieldSet(f) != 0
}

func (s TaskFieldSet) With(f TaskField) TaskFieldSet {
	return s | TaskFieldSet(f)
}

// Intersect keeps only the fields present in both sets.
func (s TaskFieldSet) Intersect(other TaskFieldSet) TaskFieldSet {
	return s & other
}

// SubsetOf reports whether every field in s is also in other.
func (s TaskFieldSet) SubsetOf(other TaskFieldSet) bool {
	return s&^other == 0
}

func IsManager(id *auth.Identity) bool {
	return id.InGroup(constants.ManagersGroup)
}

// IsParticipant reports whether id created the task or is assigned to it.
func IsParticipant(id *auth.Identity, task *models.Task) bool {
	if id == nil || task == nil {
		return false
	}
	return task.IsCreatedBy(id.UserID) || task.IsAssignedTo(id.UserID)
}

func CanCreateTask(id *auth.Identity) bool {
	return IsManager(id)
}

// CanUpdateTask reports whether id may change exactly the given fields.
func CanUpdateTask(id *auth.Identity, task *models.Task, fields TaskFieldSet) bool {
	mask, ok := WritableTaskFields(id, task)
	return ok && fields.SubsetOf(mask)
}

// WritableTaskFields returns the fields id may write on task. Managers win
// over participation; ok is false when nothing is writable.
func WritableTaskFields(id *auth.Identity, task *models.Task) (TaskFieldSet, bool) {
	switch {
	case IsManager(id):
		return AllTaskFields, true
	case IsParticipant(id, task):
		return ParticipantTaskFields, true
	default:
		return NoTaskFields, false
	}
}

func CanDeleteTask(id *auth.Identity) bool {
	return IsManager(id)
}

// CanReadTask gates single-task lookups.
func CanReadTask(id *auth.Identity, task *models.Task) bool {
	return IsManager(id) || IsParticipant(id, task)
}

// CanAccessSubtaskOf governs create, read, update and delete of subtasks
// under parent.
func CanAccessSubtaskOf(id *auth.Identity, parent *models.Task) bool {
	return IsManager(id) || IsParticipant(id, parent)
}

// TaskScope describes which tasks a caller may list.
type TaskScope struct {
	All    bool
	None   bool
	UserID uint64
}

func VisibleTasks(id *auth.Identity) TaskScope {
	switch {
	case id == nil:
		return TaskScope{None: true}
	case IsManager(id):
		return TaskScope{All: true}
	default:
		return TaskScope{UserID: id.UserID}
	}
}

// Matches is the in-memory form of the scope; repositories translate the
// same rule into a WHERE clause.
func (s TaskScope) Matches(task *models.Task) bool {
	switch {
	case s.None || task == nil:
		return false
	case s.All:
		return true
	default:
		return task.IsCreatedBy(s.UserID) || task.IsAssignedTo(s.UserID)
	}
}
