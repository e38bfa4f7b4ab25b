package graph

import (
	"github.com/graphql-go/graphql"
	"github.com/yukikurage/task-graphql-api/internal/dto"
	"github.com/yukikurage/task-graphql-api/internal/models"
	"github.com/yukikurage/task-graphql-api/internal/services"
	"gorm.io/gorm"
)

func tokenPairResult(pair *services.TokenPair) map[string]interface{} {
	return map[string]interface{}{
		"token":            pair.Token,
		"refreshToken":     pair.RefreshToken,
		"payload":          pair.Payload,
		"refreshExpiresIn": pair.RefreshExpiresIn,
	}
}

func (r *Resolver) taskMutations(t *types) graphql.Fields {
	taskPayload := func(name string) *graphql.Object {
		return payload(name, graphql.Fields{
			"ok":   &graphql.Field{Type: graphql.Boolean},
			"task": &graphql.Field{Type: t.task},
		})
	}
	subTaskPayload := func(name string) *graphql.Object {
		return payload(name, graphql.Fields{
			"ok":      &graphql.Field{Type: graphql.Boolean},
			"subTask": &graphql.Field{Type: t.subTask},
		})
	}
	messagePayload := func(name string) *graphql.Object {
		return payload(name, graphql.Fields{
			"ok":      &graphql.Field{Type: graphql.Boolean},
			"message": &graphql.Field{Type: graphql.String},
		})
	}
	idArg := graphql.FieldConfigArgument{
		"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
	}

	return graphql.Fields{
		"createTask": &graphql.Field{
			Type: taskPayload("CreateTaskPayload"),
			Args: graphql.FieldConfigArgument{
				"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(t.taskInput)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				id, err := requireIdentity(p.Context)
				if err != nil {
					return nil, r.fail(p.Context, err)
				}

				in := inputArg(p)
				assignee, err := optionalID(in, "assignedToId")
				if err != nil {
					return nil, err
				}
				input := services.CreateTaskInput{
					AssignedToID: assignee,
				}
				input.Title, _ = in["title"].(string)
				input.Description, _ = in["description"].(string)
				if due := optionalDate(in, "dueDate"); due != nil {
					input.DueDate = *due
				}
				if s := optionalString(in, "status"); s != nil {
					input.Status = models.TaskStatus(*s)
				}
				if s := optionalString(in, "priority"); s != nil {
					input.Priority = models.TaskPriority(*s)
				}

				task, err := r.Tasks.CreateTask(p.Context, id, input)
				if err != nil {
					return nil, r.fail(p.Context, err)
				}
				return map[string]interface{}{"ok": true, "task": dto.ToTaskDTO(*task)}, nil
			},
		},
		"updateTask": &graphql.Field{
			Type: taskPayload("UpdateTaskPayload"),
			Args: graphql.FieldConfigArgument{
				"id":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(t.updateTaskInput)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				id, err := requireIdentity(p.Context)
				if err != nil {
					return nil, r.fail(p.Context, err)
				}
				taskID, err := parseID(p.Args["id"])
				if err != nil {
					return nil, err
				}

				in := inputArg(p)
				assignee, err := optionalID(in, "assignedToId")
				if err != nil {
					return nil, err
				}
				patch := services.TaskPatch{
					Title:        optionalString(in, "title"),
					Description:  optionalString(in, "description"),
					DueDate:      optionalDate(in, "dueDate"),
					AssignedToID: assignee,
				}
				if s := optionalString(in, "status"); s != nil {
					status := models.TaskStatus(*s)
					patch.Status = &status
				}
				if s := optionalString(in, "priority"); s != nil {
					priority := models.TaskPriority(*s)
					patch.Priority = &priority
				}

				task, err := r.Tasks.UpdateTask(p.Context, id, taskID, patch)
				if err != nil {
					return nil, r.fail(p.Context, err)
				}
				return map[string]interface{}{"ok": true, "task": dto.ToTaskDTO(*task)}, nil
			},
		},
		"deleteTask": &graphql.Field{
			Type: messagePayload("DeleteTaskPayload"),
			Args: idArg,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				id, err := requireIdentity(p.Context)
				if err != nil {
					return nil, r.fail(p.Context, err)
				}
				taskID, err := parseID(p.Args["id"])
				if err != nil {
					return nil, err
				}
				if err := r.Tasks.DeleteTask(p.Context, id, taskID); err != nil {
					return nil, r.fail(p.Context, err)
				}
				return map[string]interface{}{"ok": true, "message": "Task deleted successfully"}, nil
			},
		},
		"createSubTask": &graphql.Field{
			Type: subTaskPayload("CreateSubTaskPayload"),
			Args: graphql.FieldConfigArgument{
				"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(t.subTaskInput)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				id, err := requireIdentity(p.Context)
				if err != nil {
					return nil, r.fail(p.Context, err)
				}

				in := inputArg(p)
				taskID, err := parseID(in["taskId"])
				if err != nil {
					return nil, err
				}
				input := services.CreateSubTaskInput{TaskID: taskID}
				input.Title, _ = in["title"].(string)
				input.Description, _ = in["description"].(string)
				if s := optionalString(in, "status"); s != nil {
					input.Status = models.TaskStatus(*s)
				}

				subTask, err := r.Tasks.CreateSubTask(p.Context, id, input)
				if err != nil {
					return nil, r.fail(p.Context, err)
				}
				return map[string]interface{}{"ok": true, "subTask": dto.ToSubTaskDTO(*subTask)}, nil
			},
		},
		"updateSubTask": &graphql.Field{
			Type: subTaskPayload("UpdateSubTaskPayload"),
			Args: graphql.FieldConfigArgument{
				"id":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(t.updateSubTaskInput)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				id, err := requireIdentity(p.Context)
				if err != nil {
					return nil, r.fail(p.Context, err)
				}
				subTaskID, err := parseID(p.Args["id"])
				if err != nil {
					return nil, err
				}

				in := inputArg(p)
				patch := services.SubTaskPatch{
					Title:       optionalString(in, "title"),
					Description: optionalString(in, "description"),
				}
				if s := optionalString(in, "status"); s != nil {
					status := models.TaskStatus(*s)
					patch.Status = &status
				}

				subTask, err := r.Tasks.UpdateSubTask(p.Context, id, subTaskID, patch)
				if err != nil {
					return nil, r.fail(p.Context, err)
				}
				return map[string]interface{}{"ok": true, "subTask": dto.ToSubTaskDTO(*subTask)}, nil
			},
		},
		"deleteSubTask": &graphql.Field{
			Type: messagePayload("DeleteSubTaskPayload"),
			Args: idArg,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				id, err := requireIdentity(p.Context)
				if err != nil {
					return nil, r.fail(p.Context, err)
				}
				subTaskID, err := parseID(p.Args["id"])
				if err != nil {
					return nil, err
				}
				if err := r.Tasks.DeleteSubTask(p.Context, id, subTaskID); err != nil {
					return nil, r.fail(p.Context, err)
				}
				return map[string]interface{}{"ok": true, "message": "SubTask deleted successfully"}, nil
			},
		},
	}
}

func (r *Resolver) accountMutations(t *types) graphql.Fields {
	obtainPayload := payload("ObtainJSONWebToken", graphql.Fields{
		"token":            &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"refreshToken":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"payload":          &graphql.Field{Type: graphql.NewNonNull(GenericScalar)},
		"refreshExpiresIn": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"user":             &graphql.Field{Type: t.user},
	})
	verifyPayload := payload("Verify", graphql.Fields{
		"payload": &graphql.Field{Type: graphql.NewNonNull(GenericScalar)},
	})
	refreshPayload := payload("Refresh", graphql.Fields{
		"token":            &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"refreshToken":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"payload":          &graphql.Field{Type: graphql.NewNonNull(GenericScalar)},
		"refreshExpiresIn": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
	})
	refreshAccessPayload := payload("RefreshAccessToken", graphql.Fields{
		"token":        &graphql.Field{Type: graphql.String},
		"payload":      &graphql.Field{Type: GenericScalar},
		"refreshToken": &graphql.Field{Type: graphql.String},
	})
	revokePayload := payload("Revoke", graphql.Fields{
		"ok":      &graphql.Field{Type: graphql.Boolean},
		"revoked": &graphql.Field{Type: graphql.Boolean},
	})
	createUserPayload := payload("CreateUser", graphql.Fields{
		"ok":           &graphql.Field{Type: graphql.Boolean},
		"user":         &graphql.Field{Type: t.user},
		"token":        &graphql.Field{Type: graphql.String},
		"refreshToken": &graphql.Field{Type: graphql.String},
	})
	updateUserPayload := payload("UpdateUser", graphql.Fields{
		"ok":   &graphql.Field{Type: graphql.Boolean},
		"user": &graphql.Field{Type: t.user},
	})

	refresh := func(p graphql.ResolveParams, arg string) (map[string]interface{}, error) {
		raw, _ := p.Args[arg].(string)
		pair, err := r.Auth.Refresh(p.Context, raw)
		if err != nil {
			return nil, r.fail(p.Context, err)
		}
		return tokenPairResult(pair), nil
	}

	return graphql.Fields{
		"tokenAuth": &graphql.Field{
			Type: obtainPayload,
			Args: graphql.FieldConfigArgument{
				"username": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				username, _ := p.Args["username"].(string)
				password, _ := p.Args["password"].(string)
				user, pair, err := r.Auth.Login(p.Context, username, password)
				if err != nil {
					return nil, r.fail(p.Context, err)
				}
				out := tokenPairResult(pair)
				out["user"] = dto.ToUserDTO(*user)
				return out, nil
			},
		},
		"verifyToken": &graphql.Field{
			Type: verifyPayload,
			Args: graphql.FieldConfigArgument{
				"token": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				token, _ := p.Args["token"].(string)
				claims, err := r.Auth.VerifyAccessToken(token)
				if err != nil {
					return nil, r.fail(p.Context, err)
				}
				return map[string]interface{}{"payload": claims.Payload()}, nil
			},
		},
		"refreshToken": &graphql.Field{
			Type: refreshPayload,
			Args: graphql.FieldConfigArgument{
				"token": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return refresh(p, "token")
			},
		},
		"refreshAccessToken": &graphql.Field{
			Type: refreshAccessPayload,
			Args: graphql.FieldConfigArgument{
				"refreshToken": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return refresh(p, "refreshToken")
			},
		},
		"revokeToken": &graphql.Field{
			Type: revokePayload,
			Args: graphql.FieldConfigArgument{
				"refreshToken": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				raw, _ := p.Args["refreshToken"].(string)
				revoked, err := r.Auth.Revoke(p.Context, raw)
				if err != nil {
					return nil, r.fail(p.Context, err)
				}
				return map[string]interface{}{"ok": true, "revoked": revoked}, nil
			},
		},
		"createUser": &graphql.Field{
			Type: createUserPayload,
			Args: graphql.FieldConfigArgument{
				"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(t.userInput)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				in := inputArg(p)
				var input services.CreateUserInput
				input.Username, _ = in["username"].(string)
				input.Email, _ = in["email"].(string)
				input.Password, _ = in["password"].(string)

				// the account is rolled back if its tokens cannot be stored
				var pair *services.TokenPair
				user, err := r.Users.CreateUserWith(p.Context, input, func(tx *gorm.DB, user *models.User) error {
					var err error
					pair, err = r.Auth.IssueTokenPairTx(p.Context, tx, user)
					return err
				})
				if err != nil {
					return nil, r.fail(p.Context, err)
				}
				return map[string]interface{}{
					"ok":           true,
					"user":         dto.ToUserDTO(*user),
					"token":        pair.Token,
					"refreshToken": pair.RefreshToken,
				}, nil
			},
		},
		"updateUser": &graphql.Field{
			Type: updateUserPayload,
			Args: graphql.FieldConfigArgument{
				"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(t.updateUserInput)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				id, err := requireIdentity(p.Context)
				if err != nil {
					return nil, r.fail(p.Context, err)
				}

				in := inputArg(p)
				input := services.UpdateUserInput{
					FirstName:      optionalString(in, "firstName"),
					LastName:       optionalString(in, "lastName"),
					Email:          optionalString(in, "email"),
					Gender:         optionalString(in, "gender"),
					Position:       optionalString(in, "position"),
					Department:     optionalString(in, "department"),
					ProfilePicture: optionalString(in, "profilePicture"),
					Password:       optionalString(in, "password"),
				}

				user, err := r.Users.UpdateUser(p.Context, id, input)
				if err != nil {
					return nil, r.fail(p.Context, err)
				}
				return map[string]interface{}{"ok": true, "user": dto.ToUserDTO(*user)}, nil
			},
		},
	}
}
