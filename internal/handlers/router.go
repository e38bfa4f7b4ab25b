package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yukikurage/task-graphql-api/internal/middleware"
	"github.com/yukikurage/task-graphql-api/internal/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxRequestBytes = 1 << 20

// RouterDeps is everything the HTTP surface needs.
type RouterDeps struct {
	ServiceName string
	Schema      graphql.Schema
	Identity    middleware.IdentityResolver
	Log         *slog.Logger

	// Prom and Gatherer are optional; /metrics is only mounted with a Gatherer
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
}

func NewRouter(deps RouterDeps) *gin.Engine {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if deps.ServiceName != "" {
		r.Use(otelgin.Middleware(deps.ServiceName))
	}
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	r.GET("/health", Health)
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	gql := NewGraphQLHandler(deps.Schema, deps.Prom, log)
	r.POST("/graphql",
		middleware.MaxBodyBytes(maxRequestBytes),
		middleware.Authenticate(deps.Identity),
		gql.Execute,
	)

	return r
}
