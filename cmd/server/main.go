package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/logimaster/backend/internal/application/bulkupload"
	"github.com/logimaster/backend/internal/domain/masterdata"
	"github.com/logimaster/backend/internal/domain/shared"
	"github.com/logimaster/backend/internal/infrastructure/cache"
	"github.com/logimaster/backend/internal/infrastructure/config"
	"github.com/logimaster/backend/internal/infrastructure/logger"
	"github.com/logimaster/backend/internal/infrastructure/persistence"
	"github.com/logimaster/backend/internal/infrastructure/scheduler"
	"github.com/logimaster/backend/internal/infrastructure/storage"
	"github.com/logimaster/backend/internal/infrastructure/telemetry"
	"github.com/logimaster/backend/internal/interfaces/http/handler"
	"github.com/logimaster/backend/internal/interfaces/http/middleware"
	"github.com/logimaster/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting LogiMaster Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection with a zap-backed GORM logger
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogLevel)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Telemetry providers (traces, metrics, logs, profiling)
	var (
		tracerProvider  *telemetry.TracerProvider
		meterProvider   *telemetry.MeterProvider
		profiler        *telemetry.Profiler
		pipelineMetrics *telemetry.PipelineMetrics
	)
	if cfg.Telemetry.Enabled {
		tracerProvider, err = telemetry.NewTracerProvider(context.Background(), telemetry.Config{
			Enabled:           cfg.Telemetry.Enabled,
			CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
			SamplingRatio:     cfg.Telemetry.SamplingRatio,
			ServiceName:       cfg.Telemetry.ServiceName,
			Insecure:          cfg.Telemetry.Insecure,
		}, log)
		if err != nil {
			log.Fatal("Failed to initialize tracer provider", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(ctx); err != nil {
				log.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()

		meterProvider, err = telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
			Enabled:           cfg.Telemetry.Enabled,
			CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
			ServiceName:       cfg.Telemetry.ServiceName,
			Insecure:          cfg.Telemetry.Insecure,
		}, log)
		if err != nil {
			log.Fatal("Failed to initialize meter provider", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := meterProvider.Shutdown(ctx); err != nil {
				log.Error("Error shutting down meter provider", zap.Error(err))
			}
		}()

		if cfg.Telemetry.ProfilingEnabled {
			profiler, err = telemetry.NewProfiler(telemetry.ProfilerConfig{
				Enabled:             true,
				ServerAddress:       cfg.Telemetry.ProfilingServer,
				ApplicationName:     cfg.Telemetry.ServiceName,
				ProfileCPU:          true,
				ProfileAllocObjects: true,
				ProfileAllocSpace:   true,
				ProfileInuseObjects: true,
				ProfileInuseSpace:   true,
			}, log)
			if err != nil {
				log.Warn("Failed to start profiler, continuing without it", zap.Error(err))
			} else {
				defer profiler.Stop()
				if err := tracerProvider.EnableSpanProfiles(); err != nil {
					log.Warn("Failed to enable span profiles", zap.Error(err))
				}
			}
		}

		if cfg.Telemetry.LogExportEnabled {
			loggerProvider, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{
				Enabled:           true,
				CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
				ServiceName:       cfg.Telemetry.ServiceName,
				Insecure:          cfg.Telemetry.Insecure,
			}, log)
			if err != nil {
				log.Warn("Failed to initialize log export, continuing without it", zap.Error(err))
			} else {
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
					defer cancel()
					if err := loggerProvider.Shutdown(ctx); err != nil {
						log.Error("Error shutting down logger provider", zap.Error(err))
					}
				}()
				minLevel, parseErr := zapcore.ParseLevel(cfg.Log.Level)
				if parseErr != nil {
					minLevel = zapcore.InfoLevel
				}
				log = loggerProvider.Bridge(log, minLevel)
			}
		}

		if cfg.Telemetry.DBTraceEnabled {
			dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
				Enabled:         true,
				LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
				SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
				DBSystem:        "postgresql",
			}, log)
			if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
				log.Warn("Failed to register database tracing", zap.Error(err))
			}
		}

		if cfg.Telemetry.DBMetricsEnabled {
			dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DBMetricsConfig{
				Enabled:            true,
				SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
			}, log)
			if err != nil {
				log.Warn("Failed to register database metrics", zap.Error(err))
			} else if dbMetrics != nil {
				dbMetrics.StartPoolStatsCollection(context.Background())
				defer dbMetrics.Stop()
			}
		}
	}

	// Initialize repositories
	batchRepo := persistence.NewGormUploadBatchRepository(db.DB)
	recordRepo := persistence.NewGormValidationRecordRepository(db.DB)
	uow := persistence.NewGormUnitOfWork(db.DB)

	// Duplicate submission guard backed by Redis, with in-memory fallback
	idemStore, err := cache.NewIdempotencyStore(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	idemCfg := shared.IdempotencyConfig{
		TTL:     cfg.Upload.DuplicateWindow,
		Enabled: !cfg.Upload.DuplicateGuardOff,
	}

	// Error report storage (local disk or S3-compatible object store)
	var reportStore bulkupload.ReportStore
	switch cfg.Storage.Driver {
	case "s3":
		s3Store, err := storage.NewS3ReportStore(&cfg.Storage)
		if err != nil {
			log.Fatal("Failed to create S3 report store", zap.Error(err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := s3Store.EnsureBucket(ctx); err != nil {
			cancel()
			log.Fatal("Failed to ensure report bucket", zap.Error(err))
		}
		cancel()
		reportStore = s3Store
		log.Info("Report storage ready", zap.String("driver", "s3"), zap.String("bucket", cfg.Storage.S3Bucket))
	default:
		localStore, err := storage.NewLocalReportStore(cfg.Storage.LocalDir)
		if err != nil {
			log.Fatal("Failed to create local report store", zap.Error(err))
		}
		reportStore = localStore
		log.Info("Report storage ready", zap.String("driver", "local"), zap.String("dir", cfg.Storage.LocalDir))
	}

	// Initialize application services
	reportService := bulkupload.NewReportService(batchRepo, recordRepo, reportStore, log)
	uploadService := bulkupload.NewService(
		bulkupload.Config{
			Workers:   cfg.Upload.Workers,
			UploadDir: cfg.Upload.ScratchDir,
		},
		batchRepo,
		recordRepo,
		uow,
		reportService,
		masterdata.NoopApprovalWorkflow{},
		idemStore,
		idemCfg,
		log,
	)
	defer uploadService.Shutdown()

	// Pipeline gauges need a meter, so they only exist with telemetry on
	if meterProvider != nil {
		pipelineMetrics, err = telemetry.NewPipelineMetrics(telemetry.PipelineMetricsConfig{
			Meter:         meterProvider.Meter("bulkupload"),
			Logger:        log,
			BatchProvider: batchRepo,
		})
		if err != nil {
			log.Warn("Failed to initialize pipeline metrics", zap.Error(err))
		} else {
			pipelineMetrics.StartPeriodicCollection(context.Background(), time.Minute)
			defer pipelineMetrics.Stop()
			uploadService.SetPipelineMetrics(pipelineMetrics)
		}
	}

	// Retention sweep: expire stored error reports and remove orphaned
	// workbook files; batch rows are kept as audit trail
	if cfg.Retention.Enabled {
		retentionExec := scheduler.NewRetentionExecutor(
			batchRepo,
			reportStore,
			scheduler.DefaultRetentionConfig(cfg.Upload.ScratchDir),
			log,
		)
		retentionScheduler := scheduler.NewScheduler(scheduler.DefaultSchedulerConfig(), retentionExec, log)
		if err := retentionScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start maintenance scheduler", zap.Error(err))
		}
		defer func() {
			if err := retentionScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping maintenance scheduler", zap.Error(err))
			}
		}()

		cronCfg := scheduler.DefaultCronTriggerConfig()
		cronCfg.DailySweepHour = cfg.Retention.SweepHour
		cronCfg.DailySweepMinute = cfg.Retention.SweepMinute
		cronCfg.RetentionAge = cfg.Retention.Age
		cronTrigger := scheduler.NewCronTrigger(cronCfg, retentionScheduler, log)
		if err := cronTrigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start retention trigger", zap.Error(err))
		}
		defer func() {
			if err := cronTrigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping retention trigger", zap.Error(err))
			}
		}()
		log.Info("Retention sweep scheduled",
			zap.Int("hour", cfg.Retention.SweepHour),
			zap.Int("minute", cfg.Retention.SweepMinute),
			zap.Duration("age", cfg.Retention.Age),
		)
	}

	// Initialize HTTP handlers
	bulkUploadHandler := handler.NewBulkUploadHandler(uploadService, cfg.Upload.MaxFileSize)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Tracing and metrics instrumentation
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
		engine.Use(middleware.TracingAttributeInjector())
		if meterProvider != nil {
			engine.Use(middleware.HTTPMetricsWithMeter(meterProvider.Meter("http"), true))
		}
		if cfg.Telemetry.ProfilingEnabled {
			engine.Use(middleware.Profiling())
		}
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Resolve the gateway-forwarded user identity for all API routes.
	// Write endpoints reject requests without one; reads stay open.
	r.Use(middleware.OptionalUserIdentity())

	// Bulk upload routes
	r.Register(bulkUploadHandler)

	// System routes
	systemHandler := handler.NewSystemHandler(db)
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	r.Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
