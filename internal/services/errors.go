package services

import (
	"errors"
	"fmt"
)

var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrInvalidCredentials     = errors.New("incorrect username or password")
	ErrInactiveAccount        = errors.New("user account is inactive")
	ErrUserInactiveOrMissing  = errors.New("invalid or inactive user")
	ErrRateLimited            = errors.New("too many login attempts, try again later")
	ErrPermissionDenied       = errors.New("permission denied")

	ErrTaskNotFound    = errors.New("task not found")
	ErrSubTaskNotFound = errors.New("subtask not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrGroupNotFound   = errors.New("group not found")

	ErrUsernameTaken = errors.New("username already exists")
	ErrEmailTaken    = errors.New("email already exists")
)

// denied wraps ErrPermissionDenied with the rule that was violated.
func denied(rule string) error {
	return fmt.Errorf("%w: %s", ErrPermissionDenied, rule)
}
