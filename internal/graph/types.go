package graph

import (
	"github.com/graphql-go/graphql"
	"github.com/yukikurage/task-graphql-api/internal/auth"
	"github.com/yukikurage/task-graphql-api/internal/dto"
	"github.com/yukikurage/task-graphql-api/internal/models"
)

var taskStatusEnum = graphql.NewEnum(graphql.EnumConfig{
	Name: "TaskStatus",
	Values: graphql.EnumValueConfigMap{
		"TODO":        &graphql.EnumValueConfig{Value: string(models.TaskStatusTodo), Description: "To Do"},
		"IN_PROGRESS": &graphql.EnumValueConfig{Value: string(models.TaskStatusInProgress), Description: "In Progress"},
		"DONE":        &graphql.EnumValueConfig{Value: string(models.TaskStatusDone), Description: "Done"},
	},
})

var taskPriorityEnum = graphql.NewEnum(graphql.EnumConfig{
	Name: "TaskPriority",
	Values: graphql.EnumValueConfigMap{
		"LOW":    &graphql.EnumValueConfig{Value: string(models.TaskPriorityLow), Description: "Low"},
		"MEDIUM": &graphql.EnumValueConfig{Value: string(models.TaskPriorityMedium), Description: "Medium"},
		"HIGH":   &graphql.EnumValueConfig{Value: string(models.TaskPriorityHigh), Description: "High"},
	},
})

// types holds every named type of the schema. Object types whose fields
// call back into services are built per Resolver.
type types struct {
	user     *graphql.Object
	task     *graphql.Object
	subTask  *graphql.Object
	taskPage *graphql.Object

	taskInput          *graphql.InputObject
	updateTaskInput    *graphql.InputObject
	subTaskInput       *graphql.InputObject
	updateSubTaskInput *graphql.InputObject
	userInput          *graphql.InputObject
	updateUserInput    *graphql.InputObject
}

func newTypes(r *Resolver) *types {
	t := &types{}

	t.user = graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"username":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"email":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"firstName":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"lastName":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"gender":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"position":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"department": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"profilePicture": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					u, ok := p.Source.(dto.UserDTO)
					if !ok || u.ProfilePicture == nil {
						return nil, nil
					}
					return *u.ProfilePicture, nil
				},
			},
			"isActive":   &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"groups":     &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String)))},
			"isManager":  &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"dateJoined": &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
		},
	})

	t.task = graphql.NewObject(graphql.ObjectConfig{
		Name: "Task",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"title":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"description": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"dueDate":     &graphql.Field{Type: graphql.NewNonNull(Date)},
			"status":      &graphql.Field{Type: graphql.NewNonNull(taskStatusEnum)},
			"priority":    &graphql.Field{Type: graphql.NewNonNull(taskPriorityEnum)},
			"assignedTo": &graphql.Field{
				Type: t.user,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					task, ok := p.Source.(dto.TaskDTO)
					if !ok || task.AssignedTo == nil {
						return nil, nil
					}
					return *task.AssignedTo, nil
				},
			},
			"createdBy": &graphql.Field{
				Type: t.user,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					task, ok := p.Source.(dto.TaskDTO)
					if !ok || task.CreatedBy == nil {
						return nil, nil
					}
					return *task.CreatedBy, nil
				},
			},
			"createdAt": &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
			"updatedAt": &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
		},
	})

	t.subTask = graphql.NewObject(graphql.ObjectConfig{
		Name: "SubTask",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"title":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"description": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"status":      &graphql.Field{Type: graphql.NewNonNull(taskStatusEnum)},
			"createdAt":   &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
			"updatedAt":   &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
		},
	})

	// Task and SubTask refer to each other
	t.task.AddFieldConfig("subtasks", &graphql.Field{
		Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t.subTask))),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			task, ok := p.Source.(dto.TaskDTO)
			if !ok {
				return []dto.SubTaskDTO{}, nil
			}
			subTasks, err := r.Tasks.ListSubTasks(p.Context, auth.IdentityFrom(p.Context), task.Key)
			if err != nil {
				return nil, r.fail(p.Context, err)
			}
			return dto.ToSubTaskDTOs(subTasks), nil
		},
	})
	t.subTask.AddFieldConfig("task", &graphql.Field{
		Type: t.task,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			subTask, ok := p.Source.(dto.SubTaskDTO)
			if !ok {
				return nil, nil
			}
			task, err := r.Tasks.GetTask(p.Context, auth.IdentityFrom(p.Context), subTask.TaskKey)
			if err != nil {
				return nil, r.fail(p.Context, err)
			}
			if task == nil {
				return nil, nil
			}
			return dto.ToTaskDTO(*task), nil
		},
	})

	pageInfo := graphql.NewObject(graphql.ObjectConfig{
		Name: "PageInfo",
		Fields: graphql.Fields{
			"page":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"limit":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"total":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"hasNext": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		},
	})
	t.taskPage = graphql.NewObject(graphql.ObjectConfig{
		Name: "TaskPage",
		Fields: graphql.Fields{
			"items":    &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t.task)))},
			"pageInfo": &graphql.Field{Type: graphql.NewNonNull(pageInfo)},
		},
	})

	t.taskInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "TaskInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"title":        &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"description":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"dueDate":      &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(Date)},
			"status":       &graphql.InputObjectFieldConfig{Type: graphql.String, DefaultValue: string(models.TaskStatusTodo)},
			"priority":     &graphql.InputObjectFieldConfig{Type: graphql.String, DefaultValue: string(models.TaskPriorityMedium)},
			"assignedToId": &graphql.InputObjectFieldConfig{Type: graphql.ID},
		},
	})
	t.updateTaskInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UpdateTaskInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"title":        &graphql.InputObjectFieldConfig{Type: graphql.String},
			"description":  &graphql.InputObjectFieldConfig{Type: graphql.String},
			"dueDate":      &graphql.InputObjectFieldConfig{Type: Date},
			"status":       &graphql.InputObjectFieldConfig{Type: graphql.String},
			"priority":     &graphql.InputObjectFieldConfig{Type: graphql.String},
			"assignedToId": &graphql.InputObjectFieldConfig{Type: graphql.ID},
		},
	})
	t.subTaskInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "SubTaskInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"taskId":      &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.ID)},
			"title":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"description": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"status":      &graphql.InputObjectFieldConfig{Type: graphql.String, DefaultValue: string(models.TaskStatusTodo)},
		},
	})
	t.updateSubTaskInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UpdateSubTaskInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"title":       &graphql.InputObjectFieldConfig{Type: graphql.String},
			"description": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"status":      &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})
	t.userInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UserInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"username": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"email":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"password": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})
	t.updateUserInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UpdateUserInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"firstName":      &graphql.InputObjectFieldConfig{Type: graphql.String},
			"lastName":       &graphql.InputObjectFieldConfig{Type: graphql.String},
			"email":          &graphql.InputObjectFieldConfig{Type: graphql.String},
			"gender":         &graphql.InputObjectFieldConfig{Type: graphql.String},
			"position":       &graphql.InputObjectFieldConfig{Type: graphql.String},
			"department":     &graphql.InputObjectFieldConfig{Type: graphql.String},
			"profilePicture": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"password":       &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	return t
}

// payload builds a mutation result object from a field list.
func payload(name string, fields graphql.Fields) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{Name: name, Fields: fields})
}
