package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	apierrors "github.com/yukikurage/task-graphql-api/internal/errors"
	"github.com/yukikurage/task-graphql-api/internal/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Metric labels for operations that do not name a schema root field.
const (
	operationOther   = "other"
	operationInvalid = "invalid"
)

type GraphQLHandler struct {
	schema graphql.Schema
	prom   *observability.Prom
	log    *slog.Logger

	// root field names of the schema, the only values used as metric labels
	rootFields map[string]struct{}
}

func NewGraphQLHandler(schema graphql.Schema, prom *observability.Prom, log *slog.Logger) *GraphQLHandler {
	if log == nil {
		log = slog.Default()
	}
	return &GraphQLHandler{
		schema:     schema,
		prom:       prom,
		log:        log,
		rootFields: rootFieldNames(schema),
	}
}

func rootFieldNames(schema graphql.Schema) map[string]struct{} {
	names := map[string]struct{}{}
	for _, root := range []*graphql.Object{schema.QueryType(), schema.MutationType()} {
		if root == nil {
			continue
		}
		for name := range root.Fields() {
			names[name] = struct{}{}
		}
	}
	return names
}

// operationLabel names the executed operation by its first root field. The
// client-supplied operationName only selects the operation in the document.
func (h *GraphQLHandler) operationLabel(query, operationName string) string {
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return operationInvalid
	}

	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if operationName != "" && (op.Name == nil || op.Name.Value != operationName) {
			continue
		}
		if op.SelectionSet == nil {
			return operationOther
		}
		for _, sel := range op.SelectionSet.Selections {
			field, ok := sel.(*ast.Field)
			if !ok || field.Name == nil {
				continue
			}
			if _, known := h.rootFields[field.Name.Value]; known {
				return field.Name.Value
			}
		}
		return operationOther
	}
	return operationOther
}

// GraphQLRequest is the standard GraphQL-over-HTTP request body
type GraphQLRequest struct {
	Query         string                 `json:"query" binding:"required"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Execute runs one GraphQL operation. Resolver errors are reported inside
// the response body with status 200; only unreadable requests get a 4xx.
func (h *GraphQLHandler) Execute(c *gin.Context) {
	var req GraphQLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid GraphQL request: "+err.Error())
		return
	}

	operation := h.operationLabel(req.Query, req.OperationName)
	ctx, span := observability.Tracer().Start(c.Request.Context(), "graphql "+operation,
		trace.WithAttributes(attribute.String("graphql.operation.root_field", operation)))
	defer span.End()

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})

	h.prom.ObserveOperation(operation, result.HasErrors())
	if result.HasErrors() {
		span.SetStatus(codes.Error, result.Errors[0].Message)
		h.log.DebugContext(ctx, "graphql operation returned errors",
			"operation", operation, "errors", len(result.Errors))
	}

	c.JSON(http.StatusOK, result)
}

// Health reports that the process is serving requests
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Task GraphQL API is running",
	})
}
