package constants

const (
	// ManagersGroup is the group whose members may create, edit and delete any task.
	ManagersGroup = "Managers"

	// Pagination
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	// Gin context keys
	ContextKeyUserID    = "user_id"
	ContextKeyRequestID = "request_id"

	BearerPrefix = "Bearer "
)
