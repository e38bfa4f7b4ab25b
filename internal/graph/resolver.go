package graph

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/yukikurage/task-graphql-api/internal/auth"
	"github.com/yukikurage/task-graphql-api/internal/constants"
	"github.com/yukikurage/task-graphql-api/internal/dto"
	apperrors "github.com/yukikurage/task-graphql-api/internal/errors"
	"github.com/yukikurage/task-graphql-api/internal/services"
	"github.com/yukikurage/task-graphql-api/internal/utils"
)

// Resolver connects the schema to the service layer. The caller's identity
// travels on the request context.
type Resolver struct {
	Tasks *services.TaskService
	Users *services.UserService
	Auth  *services.AuthService
	Log   *slog.Logger
}

// fail converts err into the error graphql-go reports for the field.
func (r *Resolver) fail(ctx context.Context, err error) error {
	log := r.Log
	if log == nil {
		log = slog.Default()
	}
	return toAPIError(ctx, log, err)
}

// requireIdentity returns the caller, or the reason there is none. A bearer
// token that failed verification is reported instead of a plain
// authentication error.
func requireIdentity(ctx context.Context) (*auth.Identity, error) {
	if id := auth.IdentityFrom(ctx); id != nil {
		return id, nil
	}
	if err := auth.TokenErrorFrom(ctx); err != nil {
		return nil, err
	}
	return nil, services.ErrAuthenticationRequired
}

func parseID(raw interface{}) (uint64, error) {
	s, _ := raw.(string)
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NewAPIError(apperrors.ErrCodeInvalidInput, "Invalid ID: "+strconv.Quote(s))
	}
	return id, nil
}

func optionalID(args map[string]interface{}, key string) (*uint64, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	id, err := parseID(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func optionalString(args map[string]interface{}, key string) *string {
	if s, ok := args[key].(string); ok {
		return &s
	}
	return nil
}

func optionalInt(args map[string]interface{}, key string) *int {
	if n, ok := args[key].(int); ok {
		return &n
	}
	return nil
}

func optionalDate(args map[string]interface{}, key string) *time.Time {
	if t, ok := args[key].(time.Time); ok {
		return &t
	}
	return nil
}

func inputArg(p graphql.ResolveParams) map[string]interface{} {
	input, _ := p.Args["input"].(map[string]interface{})
	if input == nil {
		return map[string]interface{}{}
	}
	return input
}

func (r *Resolver) queryFields(t *types) graphql.Fields {
	return graphql.Fields{
		"allTasks": &graphql.Field{
			Type:        graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t.task))),
			Description: "Tasks visible to the caller, newest first.",
			Args: graphql.FieldConfigArgument{
				"page":  &graphql.ArgumentConfig{Type: graphql.Int},
				"limit": &graphql.ArgumentConfig{Type: graphql.Int},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				page := utils.NewPaginationParams(optionalInt(p.Args, "page"), optionalInt(p.Args, "limit"))
				tasks, _, err := r.Tasks.ListTasks(p.Context, auth.IdentityFrom(p.Context), page)
				if err != nil {
					return nil, r.fail(p.Context, err)
				}
				return dto.ToTaskDTOs(tasks), nil
			},
		},
		"taskPage": &graphql.Field{
			Type:        graphql.NewNonNull(t.taskPage),
			Description: "One page of allTasks with its paging metadata.",
			Args: graphql.FieldConfigArgument{
				"page":  &graphql.ArgumentConfig{Type: graphql.Int},
				"limit": &graphql.ArgumentConfig{Type: graphql.Int},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				page := utils.NewPaginationParams(optionalInt(p.Args, "page"), optionalInt(p.Args, "limit"))
				if page == nil {
					page = &utils.PaginationParams{Page: constants.MinPageSize, Limit: constants.DefaultPageSize}
				}
				tasks, total, err := r.Tasks.ListTasks(p.Context, auth.IdentityFrom(p.Context), page)
				if err != nil {
					return nil, r.fail(p.Context, err)
				}
				return map[string]interface{}{
					"items":    dto.ToTaskDTOs(tasks),
					"pageInfo": page.Info(total),
				}, nil
			},
		},
		"myTasks": &graphql.Field{
			Type:        graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t.task))),
			Description: "Tasks assigned to the caller, earliest due date first.",
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				tasks, err := r.Tasks.MyTasks(p.Context, auth.IdentityFrom(p.Context))
				if err != nil {
					return nil, r.fail(p.Context, err)
				}
				return dto.ToTaskDTOs(tasks), nil
			},
		},
		"taskById": &graphql.Field{
			Type: t.task,
			Args: graphql.FieldConfigArgument{
				"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				id, err := parseID(p.Args["id"])
				if err != nil {
					return nil, err
				}
				task, err := r.Tasks.GetTask(p.Context, auth.IdentityFrom(p.Context), id)
				if err != nil {
					return nil, r.fail(p.Context, err)
				}
				if task == nil {
					return nil, nil
				}
				return dto.ToTaskDTO(*task), nil
			},
		},
		"subtasksForTask": &graphql.Field{
			Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t.subTask))),
			Args: graphql.FieldConfigArgument{
				"taskId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				taskID, err := parseID(p.Args["taskId"])
				if err != nil {
					return nil, err
				}
				subTasks, err := r.Tasks.ListSubTasks(p.Context, auth.IdentityFrom(p.Context), taskID)
				if err != nil {
					return nil, r.fail(p.Context, err)
				}
				return dto.ToSubTaskDTOs(subTasks), nil
			},
		},
		"user": &graphql.Field{
			Type: t.user,
			Args: graphql.FieldConfigArgument{
				"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				id, err := parseID(p.Args["id"])
				if err != nil {
					return nil, err
				}
				user, err := r.Users.GetUser(p.Context, id)
				if err != nil {
					if errors.Is(err, services.ErrUserNotFound) {
						return nil, nil
					}
					return nil, r.fail(p.Context, err)
				}
				return dto.ToUserDTO(*user), nil
			},
		},
		"whoami": &graphql.Field{
			Type: t.user,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				id, err := requireIdentity(p.Context)
				if err != nil {
					return nil, r.fail(p.Context, err)
				}
				user, err := r.Users.Whoami(p.Context, id)
				if err != nil {
					return nil, r.fail(p.Context, err)
				}
				return dto.ToUserDTO(*user), nil
			},
		},
	}
}
