package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/yukikurage/task-graphql-api/internal/auth"
	"github.com/yukikurage/task-graphql-api/internal/config"
	"github.com/yukikurage/task-graphql-api/internal/database"
	"github.com/yukikurage/task-graphql-api/internal/graph"
	"github.com/yukikurage/task-graphql-api/internal/handlers"
	"github.com/yukikurage/task-graphql-api/internal/observability"
	"github.com/yukikurage/task-graphql-api/internal/ratelimit"
	"github.com/yukikurage/task-graphql-api/internal/repository"
	"github.com/yukikurage/task-graphql-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		Endpoint:    cfg.OTLPEndpoint,
		Environment: cfg.AppEnv,
		SampleRatio: cfg.OTelSampleRatio,
	})
	if err != nil {
		log.Error("failed to init tracer", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	// Connect to database
	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	if err := prom.InstrumentGORM(db); err != nil {
		log.Error("failed to instrument database", "err", err)
		os.Exit(1)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Error("failed to run migrations", "err", err)
		os.Exit(1)
	}

	jwtManager, err := auth.NewManager(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	if err != nil {
		log.Error("invalid JWT configuration", "err", err)
		os.Exit(1)
	}

	limiter, redisClient := ratelimit.New(cfg.RedisAddr(), cfg.RedisPassword, cfg.RedisDB, cfg.LoginRateWindow)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Wire up repositories and services
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	subTaskRepo := repository.NewSubTaskRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)

	userService := services.NewUserService(userRepo)
	groupService := services.NewGroupService(groupRepo, userRepo)
	taskService := services.NewTaskService(taskRepo, subTaskRepo, userRepo, log)
	authService := services.NewAuthService(userRepo, tokenRepo, jwtManager,
		services.WithLoginLimiter(limiter, cfg.LoginRateLimit),
		services.WithAuthMetrics(prom),
		services.WithAuthLogger(log),
	)

	seed := services.SeedManager{
		Username: cfg.SeedManagerUsername,
		Email:    cfg.SeedManagerEmail,
		Password: cfg.SeedManagerPassword,
	}
	if err := services.Seed(ctx, groupService, userService, seed); err != nil {
		log.Error("failed to seed", "err", err)
		os.Exit(1)
	}

	schema, err := graph.NewSchema(&graph.Resolver{
		Tasks: taskService,
		Users: userService,
		Auth:  authService,
		Log:   log,
	})
	if err != nil {
		log.Error("failed to build GraphQL schema", "err", err)
		os.Exit(1)
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		ServiceName: observability.ServiceName,
		Schema:      schema,
		Identity:    authService,
		Log:         log,
		Prom:        prom,
		Gatherer:    reg,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return
	}
	log.Info("shutdown complete")
}
