package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/task-graphql-api/internal/auth"
	"github.com/yukikurage/task-graphql-api/internal/models"
	"github.com/yukikurage/task-graphql-api/internal/repository"
	"github.com/yukikurage/task-graphql-api/internal/security"
	"gorm.io/gorm"
)

// UserService handles registration and profile updates.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

// CreateUserInput represents the required information to register a user.
type CreateUserInput struct {
	Username string `json:"username" validate:"required,notblank,max=150"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8"`
}

// UpdateUserInput is a partial profile update; nil fields are left alone.
type UpdateUserInput struct {
	FirstName      *string `json:"firstName" validate:"omitnil,max=150"`
	LastName       *string `json:"lastName" validate:"omitnil,max=150"`
	Email          *string `json:"email" validate:"omitnil,email,max=255"`
	Gender         *string `json:"gender" validate:"omitnil,gender"`
	Position       *string `json:"position" validate:"omitnil,max=100"`
	Department     *string `json:"department" validate:"omitnil,max=100"`
	ProfilePicture *string `json:"profilePicture" validate:"omitnil,max=255"`
	Password       *string `json:"password" validate:"omitnil,min=8"`
}

// CreateUser registers a new active user without any group.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	return s.CreateUserWith(ctx, input, nil)
}

// CreateUserWith registers a user like CreateUser and runs then in the same
// transaction. The user is not stored if then fails.
func (s *UserService) CreateUserWith(ctx context.Context, input CreateUserInput, then func(tx *gorm.DB, user *models.User) error) (*models.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	taken, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	taken, err = s.userRepo.ExistsByEmail(ctx, input.Email, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		IsActive:     true,
	}
	err = s.userRepo.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.userRepo.Create(ctx, tx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		if then == nil {
			return nil
		}
		return then(tx, user)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// EnsureUser returns the user with the given username, registering it first
// when it does not exist.
func (s *UserService) EnsureUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(input.Username))
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return s.CreateUser(ctx, input)
}

// UpdateUser applies a partial profile update to the calling user.
func (s *UserService) UpdateUser(ctx context.Context, id *auth.Identity, input UpdateUserInput) (*models.User, error) {
	if id == nil {
		return nil, ErrAuthenticationRequired
	}

	// an empty password means "keep the current one"
	if input.Password != nil && *input.Password == "" {
		input.Password = nil
	}
	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		input.Email = &email
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	user, err := s.GetUser(ctx, id.UserID)
	if err != nil {
		return nil, err
	}

	changes, err := s.mergeUserUpdate(ctx, user, input)
	if err != nil {
		return nil, err
	}
	if len(changes) > 0 {
		if err := s.userRepo.UpdateFields(ctx, user.ID, changes); err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	return s.GetUser(ctx, user.ID)
}

// mergeUserUpdate returns the columns that actually change.
func (s *UserService) mergeUserUpdate(ctx context.Context, user *models.User, input UpdateUserInput) (map[string]interface{}, error) {
	changes := map[string]interface{}{}

	setString := func(column string, current string, next *string) {
		if next != nil && *next != current {
			changes[column] = *next
		}
	}
	setString("first_name", user.FirstName, input.FirstName)
	setString("last_name", user.LastName, input.LastName)
	setString("gender", string(user.Gender), input.Gender)
	setString("position", user.Position, input.Position)
	setString("department", user.Department, input.Department)

	if input.ProfilePicture != nil {
		current := ""
		if user.ProfilePicture != nil {
			current = *user.ProfilePicture
		}
		if *input.ProfilePicture != current {
			if *input.ProfilePicture == "" {
				changes["profile_picture"] = nil
			} else {
				changes["profile_picture"] = *input.ProfilePicture
			}
		}
	}

	if input.Email != nil && *input.Email != user.Email {
		taken, err := s.userRepo.ExistsByEmail(ctx, *input.Email, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if taken {
			return nil, ErrEmailTaken
		}
		changes["email"] = *input.Email
	}

	if input.Password != nil {
		hash, err := security.HashPassword(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		changes["password_hash"] = hash
	}

	return changes, nil
}

// GetUser retrieves a user by ID with its groups.
func (s *UserService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id, "Groups")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// Whoami returns the calling user.
func (s *UserService) Whoami(ctx context.Context, id *auth.Identity) (*models.User, error) {
	if id == nil {
		return nil, ErrAuthenticationRequired
	}
	return s.GetUser(ctx, id.UserID)
}
