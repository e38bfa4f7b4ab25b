package services

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/task-graphql-api/internal/models"
)

type SubTaskServiceTestSuite struct {
	serviceSuite
}

func TestSubTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SubTaskServiceTestSuite))
}

func (s *SubTaskServiceTestSuite) TestCreateSubTask_ByAssignee() {
	manager := s.createManager("boss")
	alice := s.createUser("alice")
	task := s.createTask("parent", manager.ID, &alice.ID)

	subTask, err := s.tasks.CreateSubTask(s.ctx, s.identity(alice), CreateSubTaskInput{
		TaskID:      task.ID,
		Title:       "  first step ",
		Description: "do it",
	})
	s.Require().NoError(err)

	s.Equal("first step", subTask.Title)
	s.Equal(models.TaskStatusTodo, subTask.Status)
	s.Equal(task.ID, subTask.TaskID)
}

func (s *SubTaskServiceTestSuite) TestCreateSubTask_StrangerDenied() {
	manager := s.createManager("boss")
	stranger := s.createUser("stranger")
	task := s.createTask("parent", manager.ID, nil)

	_, err := s.tasks.CreateSubTask(s.ctx, s.identity(stranger), CreateSubTaskInput{
		TaskID: task.ID,
		Title:  "sneaky",
	})
	s.ErrorIs(err, ErrPermissionDenied)
	s.Contains(err.Error(), "You cannot add subtasks to this task.")
}

func (s *SubTaskServiceTestSuite) TestCreateSubTask_MissingParent() {
	manager := s.createManager("boss")

	_, err := s.tasks.CreateSubTask(s.ctx, s.identity(manager), CreateSubTaskInput{
		TaskID: 9999,
		Title:  "orphan",
	})
	s.ErrorIs(err, ErrTaskNotFound)
}

func (s *SubTaskServiceTestSuite) TestCreateSubTask_InvalidStatus() {
	manager := s.createManager("boss")
	task := s.createTask("parent", manager.ID, nil)

	_, err := s.tasks.CreateSubTask(s.ctx, s.identity(manager), CreateSubTaskInput{
		TaskID: task.ID,
		Title:  "step",
		Status: "SOMEDAY",
	})
	var verr *ValidationError
	s.ErrorAs(err, &verr)
}

func (s *SubTaskServiceTestSuite) TestListSubTasks() {
	manager := s.createManager("boss")
	alice := s.createUser("alice")
	stranger := s.createUser("stranger")
	task := s.createTask("parent", alice.ID, nil)
	s.createSubTask(task.ID, "first")
	s.createSubTask(task.ID, "second")

	subTasks, err := s.tasks.ListSubTasks(s.ctx, s.identity(alice), task.ID)
	s.Require().NoError(err)
	s.Require().Len(subTasks, 2)
	s.Equal("first", subTasks[0].Title)
	s.Equal("second", subTasks[1].Title)

	subTasks, err = s.tasks.ListSubTasks(s.ctx, s.identity(manager), task.ID)
	s.Require().NoError(err)
	s.Len(subTasks, 2)

	subTasks, err = s.tasks.ListSubTasks(s.ctx, s.identity(stranger), task.ID)
	s.Require().NoError(err)
	s.Empty(subTasks)

	subTasks, err = s.tasks.ListSubTasks(s.ctx, s.identity(manager), 9999)
	s.Require().NoError(err)
	s.Empty(subTasks)
}

func (s *SubTaskServiceTestSuite) TestUpdateSubTask() {
	manager := s.createManager("boss")
	alice := s.createUser("alice")
	task := s.createTask("parent", manager.ID, &alice.ID)
	subTask := s.createSubTask(task.ID, "step")

	updated, err := s.tasks.UpdateSubTask(s.ctx, s.identity(alice), subTask.ID, SubTaskPatch{
		Status: ptr(models.TaskStatusDone),
	})
	s.Require().NoError(err)
	s.Equal(models.TaskStatusDone, updated.Status)
	s.Equal("step", updated.Title)
	s.Equal(task.ID, updated.Task.ID)
}

func (s *SubTaskServiceTestSuite) TestUpdateSubTask_Denied() {
	manager := s.createManager("boss")
	stranger := s.createUser("stranger")
	task := s.createTask("parent", manager.ID, nil)
	subTask := s.createSubTask(task.ID, "step")

	_, err := s.tasks.UpdateSubTask(s.ctx, s.identity(stranger), subTask.ID, SubTaskPatch{Title: ptr("mine")})
	s.ErrorIs(err, ErrPermissionDenied)
	s.Contains(err.Error(), "You cannot modify this subtask.")

	_, err = s.tasks.UpdateSubTask(s.ctx, s.identity(manager), 9999, SubTaskPatch{Title: ptr("x")})
	s.ErrorIs(err, ErrSubTaskNotFound)
}

func (s *SubTaskServiceTestSuite) TestDeleteSubTask() {
	manager := s.createManager("boss")
	alice := s.createUser("alice")
	stranger := s.createUser("stranger")
	task := s.createTask("parent", alice.ID, nil)
	subTask := s.createSubTask(task.ID, "step")

	err := s.tasks.DeleteSubTask(s.ctx, s.identity(stranger), subTask.ID)
	s.ErrorIs(err, ErrPermissionDenied)
	s.Contains(err.Error(), "You cannot delete this subtask.")

	s.Require().NoError(s.tasks.DeleteSubTask(s.ctx, s.identity(alice), subTask.ID))

	err = s.tasks.DeleteSubTask(s.ctx, s.identity(manager), subTask.ID)
	s.ErrorIs(err, ErrSubTaskNotFound)
}
