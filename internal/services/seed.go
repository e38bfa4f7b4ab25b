package services

import (
	"context"
	"fmt"

	"github.com/yukikurage/task-graphql-api/internal/constants"
)

// SeedManager describes an optional manager account created at startup.
type SeedManager struct {
	Username string
	Email    string
	Password string
}

// Seed makes sure the Managers group exists and, when seed has a username,
// that the account exists and belongs to it. Running it again changes
// nothing.
func Seed(ctx context.Context, groups *GroupService, users *UserService, seed SeedManager) error {
	if _, err := groups.EnsureGroup(ctx, constants.ManagersGroup); err != nil {
		return err
	}
	if seed.Username == "" {
		return nil
	}

	user, err := users.EnsureUser(ctx, CreateUserInput{
		Username: seed.Username,
		Email:    seed.Email,
		Password: seed.Password,
	})
	if err != nil {
		return fmt.Errorf("failed to seed manager %q: %w", seed.Username, err)
	}

	return groups.Grant(ctx, user.Username, constants.ManagersGroup)
}
