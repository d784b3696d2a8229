// Flow Engine Server - contact-engagement workflow execution engine.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/uptrace/bun"

	"github.com/flowengine/engine/internal/adapter"
	"github.com/flowengine/engine/internal/condition"
	"github.com/flowengine/engine/internal/config"
	"github.com/flowengine/engine/internal/engine"
	"github.com/flowengine/engine/internal/infrastructure/cache"
	"github.com/flowengine/engine/internal/infrastructure/logger"
	"github.com/flowengine/engine/internal/processor"
	"github.com/flowengine/engine/internal/storage/pg"
	"github.com/flowengine/engine/internal/store"
	"github.com/flowengine/engine/internal/trigger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Logging)
	logger.SetDefault(appLogger)

	appLogger.Info("starting flow engine server",
		"version", "1.0.0",
		"port", cfg.Server.Port,
	)

	db, err := pg.NewDB(pg.Config{
		DSN:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxConnections,
		MaxIdleConns:    cfg.Database.MinConnections,
		ConnMaxLifetime: cfg.Database.MaxConnLifetime,
		ConnMaxIdleTime: cfg.Database.MaxIdleTime,
		Debug:           cfg.Logging.Level == "debug",
	})
	if err != nil {
		appLogger.Error("failed to connect to database", "error", err.Error())
		os.Exit(1)
	}
	defer pg.Close(db)

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	if err := pg.EnsureSchema(bootCtx, db); err != nil {
		appLogger.Error("failed to provision schema", "error", err.Error())
		cancelBoot()
		os.Exit(1)
	}
	cancelBoot()
	appLogger.Info("database connected", "max_conns", cfg.Database.MaxConnections)

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		appLogger.Warn("redis cache unavailable, running single-runner without leader election", "error", err.Error())
		redisCache = nil
	} else {
		defer redisCache.Close()
		appLogger.Info("redis cache connected")
	}

	workflows := pg.NewWorkflowStore(db)
	contacts := pg.NewContactStore(db)
	enrollments := pg.NewEnrollmentStore(db)
	executions := pg.NewExecutionStore(db)
	logs := pg.NewLogStore(db)
	messages := pg.NewMessageStore(db)
	templates := pg.NewTemplateStore(db)
	settings := pg.NewSettingsStore(db)

	enroller := &trigger.Enroller{
		Workflows:   workflows,
		Enrollments: enrollments,
		Executions:  executions,
		MaxAttempts: cfg.Engine.MaxAttempts,
	}

	registry := processor.NewRegistry()
	deps := &processor.Deps{
		Contacts:   contacts,
		Messages:   messages,
		Templates:  templates,
		Settings:   settings,
		SMS:        adapter.LogSMSSender{Logger: appLogger},
		Email:      adapter.LogEmailSender{Logger: appLogger},
		Conditions: condition.NewCache(0),
		RawExpr:    condition.NewRawExpressionEvaluator(0),
		Enroller:   enroller,
	}
	if err := processor.RegisterBuiltins(registry, deps); err != nil {
		appLogger.Error("failed to register node processors", "error", err.Error())
		os.Exit(1)
	}
	appLogger.Info("node processors registered")

	executor := &engine.Executor{
		Executions:  executions,
		Enrollments: enrollments,
		Contacts:    contacts,
		Logs:        logs,
		Registry:    registry,
		Notifier:    engine.LogNotifier{Logger: appLogger},
		Logger:      appLogger,
		Config: engine.Config{
			RetryDelay:  cfg.Engine.RetryDelay,
			MaxAttempts: cfg.Engine.MaxAttempts,
		},
	}

	tickScheduler := trigger.NewTickScheduler(executions, executor, redisCache, trigger.TickSchedulerConfig{
		TickInterval: cfg.Engine.TickInterval,
		ClaimBatch:   cfg.Engine.ClaimBatchSize,
		LeaseTTL:     cfg.Engine.LeaseTTL,
	}, appLogger)

	runCtx, cancelRun := context.WithCancel(context.Background())
	if err := tickScheduler.Start(runCtx); err != nil {
		appLogger.Error("failed to start tick scheduler", "error", err.Error())
		cancelRun()
		os.Exit(1)
	}
	appLogger.Info("tick scheduler started", "tick_interval", cfg.Engine.TickInterval.String())

	scheduledFanout := &trigger.ScheduledFanout{Workflows: workflows, Enroller: enroller, Logger: appLogger}
	if err := scheduledFanout.Start(runCtx); err != nil {
		appLogger.Warn("scheduled fanout failed to start", "error", err.Error())
	} else {
		appLogger.Info("scheduled trigger fanout started")
	}

	var eventListener *trigger.EventListener
	if redisCache != nil {
		eventListener = &trigger.EventListener{Workflows: workflows, Enroller: enroller, Cache: redisCache, Logger: appLogger}
		eventListener.Start(runCtx)
		appLogger.Info("contact event listener started")
	} else {
		appLogger.Warn("contact event listener disabled - redis cache not available")
	}

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(appLogger))

	if cfg.Server.CORS {
		router.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, PATCH, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Max-Age", "86400")
			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusNoContent)
				return
			}
			c.Next()
		})
	}

	router.GET("/health", healthHandler(db, redisCache))
	router.GET("/ready", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ready"}) })
	router.GET("/metrics", metricsHandler(db, redisCache))

	registerWorkflowRoutes(router, workflows, enroller)

	appLogger.Info("REST routes registered")

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		appLogger.Info("http server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		appLogger.Error("server error", "error", err.Error())
		cancelRun()
		os.Exit(1)

	case sig := <-shutdown:
		appLogger.Info("shutdown initiated", "signal", sig.String())

		cancelRun()
		tickScheduler.Stop()
		scheduledFanout.Stop()
		if eventListener != nil {
			eventListener.Stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("graceful shutdown failed", "error", err.Error())
			server.Close()
		}
		appLogger.Info("server stopped")
	}
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

func healthHandler(db *bun.DB, redisCache *cache.RedisCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := pg.Ping(ctx, db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": fmt.Sprintf("database: %s", err.Error())})
			return
		}
		if redisCache != nil {
			if err := redisCache.Health(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": fmt.Sprintf("redis: %s", err.Error())})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}

func metricsHandler(db *bun.DB, redisCache *cache.RedisCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStats := pg.Stats(db)
		metrics := gin.H{
			"database": gin.H{
				"open_connections": dbStats.OpenConnections,
				"in_use":           dbStats.InUse,
				"idle":             dbStats.Idle,
				"max_open_conns":   dbStats.MaxOpenConnections,
			},
		}
		if redisCache != nil {
			stats := redisCache.Stats()
			metrics["redis"] = gin.H{
				"hits":        stats.Hits,
				"misses":      stats.Misses,
				"total_conns": stats.TotalConns,
				"idle_conns":  stats.IdleConns,
			}
		}
		c.JSON(http.StatusOK, gin.H{"metrics": metrics})
	}
}

// registerWorkflowRoutes exposes the thin administrative surface this
// engine needs beyond its background loops: reading workflow graphs and
// manually enrolling a contact (spec §4.5's manual trigger).
func registerWorkflowRoutes(router *gin.Engine, workflows store.WorkflowRepository, enroller *trigger.Enroller) {
	api := router.Group("/api/v1")

	api.GET("/workflows/:id", func(c *gin.Context) {
		wf, err := workflows.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, wf)
	})

	api.GET("/workflows", func(c *gin.Context) {
		list, err := workflows.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, list)
	})

	api.POST("/workflows/:id/enroll", func(c *gin.Context) {
		var body struct {
			ContactID string `json:"contact_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		enrollmentID, err := enroller.EnrollContact(c.Request.Context(), c.Param("id"), body.ContactID, false)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"enrollment_id": enrollmentID})
	})
}
