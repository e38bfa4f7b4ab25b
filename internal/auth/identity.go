package auth

import (
	"context"

	"github.com/yukikurage/task-graphql-api/internal/models"
)

// Identity is the acting user, resolved once per request. A nil *Identity
// is an anonymous caller.
type Identity struct {
	UserID   uint64
	Username string
	groups   map[string]struct{}
}

// NewIdentity expects user.Groups to be preloaded.
func NewIdentity(user *models.User) *Identity {
	groups := make(map[string]struct{}, len(user.Groups))
	for _, name := range user.GroupNames() {
		groups[name] = struct{}{}
	}
	return &Identity{
		UserID:   user.ID,
		Username: user.Username,
		groups:   groups,
	}
}

func (i *Identity) InGroup(name string) bool {
	if i == nil {
		return false
	}
	_, ok := i.groups[name]
	return ok
}

type ctxKey string

const (
	identityKey ctxKey = "auth.identity"
	tokenErrKey ctxKey = "auth.token_error"
)

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFrom(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// WithTokenError records why a presented bearer token was rejected.
func WithTokenError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, tokenErrKey, err)
}

func TokenErrorFrom(ctx context.Context) error {
	err, _ := ctx.Value(tokenErrKey).(error)
	return err
}
