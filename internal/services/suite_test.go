package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/task-graphql-api/internal/auth"
	"github.com/yukikurage/task-graphql-api/internal/constants"
	"github.com/yukikurage/task-graphql-api/internal/database"
	"github.com/yukikurage/task-graphql-api/internal/models"
	"github.com/yukikurage/task-graphql-api/internal/repository"
	"github.com/yukikurage/task-graphql-api/internal/security"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "password123"

// serviceSuite wires every service against a fresh in-memory database.
type serviceSuite struct {
	suite.Suite
	ctx context.Context
	db  *gorm.DB

	userRepo  repository.UserRepository
	tokenRepo repository.RefreshTokenRepository
	jwt       *auth.Manager

	users  *UserService
	groups *GroupService
	tasks  *TaskService
	auth   *AuthService
}

func (s *serviceSuite) SetupTest() {
	s.ctx = context.Background()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)

	// every connection to :memory: is its own database
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	s.Require().NoError(database.Migrate(db))
	s.db = db

	s.jwt, err = auth.NewManager("test-secret", "HS256", 5*time.Minute, time.Hour)
	s.Require().NoError(err)

	s.userRepo = repository.NewUserRepository(db)
	s.tokenRepo = repository.NewRefreshTokenRepository(db)
	s.users = NewUserService(s.userRepo)
	s.groups = NewGroupService(repository.NewGroupRepository(db), s.userRepo)
	s.tasks = NewTaskService(repository.NewTaskRepository(db), repository.NewSubTaskRepository(db), s.userRepo, nil)
	s.auth = NewAuthService(s.userRepo, s.tokenRepo, s.jwt)
}

func (s *serviceSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

// createUser stores an active user with testPassword, optionally in groups.
func (s *serviceSuite) createUser(username string, groups ...string) *models.User {
	hash, err := security.HashPassword(testPassword)
	s.Require().NoError(err)

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		IsActive:     true,
	}
	s.Require().NoError(s.db.Create(user).Error)

	for _, g := range groups {
		s.Require().NoError(s.groups.Grant(s.ctx, username, g))
	}
	return user
}

func (s *serviceSuite) createManager(username string) *models.User {
	return s.createUser(username, constants.ManagersGroup)
}

func (s *serviceSuite) deactivate(user *models.User) {
	// IsActive has a column default, so false must be written explicitly
	s.Require().NoError(s.db.Model(user).Update("is_active", false).Error)
}

func (s *serviceSuite) identity(user *models.User) *auth.Identity {
	loaded, err := s.userRepo.FindByID(s.ctx, user.ID, "Groups")
	s.Require().NoError(err)
	return auth.NewIdentity(loaded)
}

func (s *serviceSuite) createTask(title string, createdBy uint64, assignedTo *uint64) *models.Task {
	task := &models.Task{
		Title:        title,
		Description:  "description of " + title,
		DueDate:      time.Date(2030, 1, 15, 0, 0, 0, 0, time.UTC),
		Status:       models.TaskStatusTodo,
		Priority:     models.TaskPriorityMedium,
		AssignedToID: assignedTo,
		CreatedByID:  createdBy,
	}
	s.Require().NoError(s.db.Omit("CreatedBy", "AssignedTo").Create(task).Error)
	return task
}

func (s *serviceSuite) createSubTask(taskID uint64, title string) *models.SubTask {
	subTask := &models.SubTask{
		TaskID:      taskID,
		Title:       title,
		Description: "description of " + title,
		Status:      models.TaskStatusTodo,
	}
	s.Require().NoError(s.db.Omit("Task").Create(subTask).Error)
	return subTask
}

func ptr[T any](v T) *T { return &v }
