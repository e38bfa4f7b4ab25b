package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-graphql-api/internal/auth"
	"github.com/yukikurage/task-graphql-api/internal/constants"
)

// IdentityResolver turns a bearer token into the acting user.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (*auth.Identity, error)
}

// Authenticate resolves the caller from the Authorization header. Requests
// without a header continue anonymously. A header that fails verification
// also continues anonymously, with the failure recorded on the request
// context so operations that need an identity can report it.
func Authenticate(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		raw, ok := strings.CutPrefix(header, constants.BearerPrefix)
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" {
			c.Request = c.Request.WithContext(auth.WithTokenError(ctx, auth.ErrTokenInvalid))
			c.Next()
			return
		}

		id, err := resolver.ResolveIdentity(ctx, raw)
		if err != nil {
			c.Request = c.Request.WithContext(auth.WithTokenError(ctx, err))
			c.Next()
			return
		}

		// Store user ID in gin context for request logging
		c.Set(constants.ContextKeyUserID, id.UserID)
		c.Request = c.Request.WithContext(auth.WithIdentity(ctx, id))
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
