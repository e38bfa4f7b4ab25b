package graph

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/yukikurage/task-graphql-api/internal/auth"
	apperrors "github.com/yukikurage/task-graphql-api/internal/errors"
	"github.com/yukikurage/task-graphql-api/internal/services"
)

// toAPIError maps service and token errors onto the codes clients see in
// extensions.code. Anything unrecognised is logged and hidden.
func toAPIError(ctx context.Context, log *slog.Logger, err error) *apperrors.APIError {
	var apiErr *apperrors.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		return apperrors.NewAPIErrorWithDetails(apperrors.ErrCodeValidation, validationErr.Error(), validationErr.Fields)
	}

	switch {
	case errors.Is(err, services.ErrAuthenticationRequired):
		return apperrors.NewAPIError(apperrors.ErrCodeUnauthenticated, "Authentication required")
	case errors.Is(err, services.ErrInvalidCredentials):
		return apperrors.NewAPIError(apperrors.ErrCodeInvalidCredentials, "Incorrect username or password")
	case errors.Is(err, services.ErrInactiveAccount):
		return apperrors.NewAPIError(apperrors.ErrCodeInactiveAccount, "User account is inactive")
	case errors.Is(err, auth.ErrTokenExpired):
		return apperrors.NewAPIError(apperrors.ErrCodeTokenExpired, "Signature has expired")
	case errors.Is(err, auth.ErrTokenInvalid):
		return apperrors.NewAPIError(apperrors.ErrCodeTokenInvalid, "Invalid token")
	case errors.Is(err, services.ErrUserInactiveOrMissing):
		return apperrors.NewAPIError(apperrors.ErrCodeUserInactiveOrMissing, "Invalid or inactive user")
	case errors.Is(err, services.ErrPermissionDenied):
		return apperrors.NewAPIError(apperrors.ErrCodePermissionDenied, permissionMessage(err))
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrSubTaskNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrGroupNotFound):
		return apperrors.NewAPIError(apperrors.ErrCodeNotFound, capitalize(err.Error()))
	case errors.Is(err, services.ErrUsernameTaken), errors.Is(err, services.ErrEmailTaken):
		return apperrors.NewAPIError(apperrors.ErrCodeConflict, capitalize(err.Error()))
	case errors.Is(err, services.ErrRateLimited):
		return apperrors.NewAPIError(apperrors.ErrCodeRateLimited, capitalize(err.Error()))
	}

	log.ErrorContext(ctx, "graphql resolver failed", "err", err)
	return apperrors.NewAPIError(apperrors.ErrCodeInternalError, "Internal server error")
}

// permissionMessage turns "permission denied: Only Managers can ..." into
// "Permission Denied: Only Managers can ...".
func permissionMessage(err error) string {
	rule, ok := strings.CutPrefix(err.Error(), services.ErrPermissionDenied.Error()+": ")
	if !ok || rule == "" {
		return "Permission Denied"
	}
	return "Permission Denied: " + rule
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if c := s[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + s[1:]
	}
	return s
}
