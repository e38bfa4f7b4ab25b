package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/task-graphql-api/internal/models"
	"github.com/yukikurage/task-graphql-api/internal/repository"
	"gorm.io/gorm"
)

var ErrInvalidGroupName = errors.New("group name cannot be empty")

// GroupService manages role groups such as Managers.
type GroupService struct {
	groupRepo repository.GroupRepository
	userRepo  repository.UserRepository
}

// NewGroupService creates a new GroupService.
func NewGroupService(groupRepo repository.GroupRepository, userRepo repository.UserRepository) *GroupService {
	return &GroupService{
		groupRepo: groupRepo,
		userRepo:  userRepo,
	}
}

// EnsureGroup creates the group if it does not exist yet.
func (s *GroupService) EnsureGroup(ctx context.Context, name string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidGroupName
	}

	group, err := s.groupRepo.FindOrCreate(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure group %q: %w", name, err)
	}
	return group, nil
}

// Grant adds the user to the group, creating the group when missing.
// Granting an existing membership is a no-op.
func (s *GroupService) Grant(ctx context.Context, username, groupName string) error {
	user, err := s.findUser(ctx, username)
	if err != nil {
		return err
	}

	group, err := s.EnsureGroup(ctx, groupName)
	if err != nil {
		return err
	}

	member := &models.GroupMember{
		GroupID:  group.ID,
		UserID:   user.ID,
		JoinedAt: time.Now().UTC(),
	}
	if err := s.groupRepo.AddMember(ctx, member); err != nil {
		return fmt.Errorf("failed to add member to group: %w", err)
	}
	return nil
}

// Revoke removes the user from the group.
func (s *GroupService) Revoke(ctx context.Context, username, groupName string) error {
	user, err := s.findUser(ctx, username)
	if err != nil {
		return err
	}

	group, err := s.groupRepo.FindByName(ctx, groupName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return fmt.Errorf("failed to find group: %w", err)
	}

	if err := s.groupRepo.RemoveMember(ctx, group.ID, user.ID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

// ListMembers returns the members of the named group.
func (s *GroupService) ListMembers(ctx context.Context, groupName string) ([]models.GroupMember, error) {
	group, err := s.groupRepo.FindByName(ctx, groupName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to find group: %w", err)
	}

	members, err := s.groupRepo.ListMembers(ctx, group.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	return members, nil
}

func (s *GroupService) findUser(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}
