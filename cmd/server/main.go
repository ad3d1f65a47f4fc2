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
	catalogapp "github.com/mlmshop/backend/internal/application/catalog"
	commissionapp "github.com/mlmshop/backend/internal/application/commission"
	"github.com/mlmshop/backend/internal/application/network"
	tradeapp "github.com/mlmshop/backend/internal/application/trade"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/mlmshop/backend/internal/infrastructure/auth"
	"github.com/mlmshop/backend/internal/infrastructure/cache"
	"github.com/mlmshop/backend/internal/infrastructure/config"
	"github.com/mlmshop/backend/internal/infrastructure/event"
	"github.com/mlmshop/backend/internal/infrastructure/logger"
	"github.com/mlmshop/backend/internal/infrastructure/migration"
	"github.com/mlmshop/backend/internal/infrastructure/persistence"
	"github.com/mlmshop/backend/internal/infrastructure/scheduler"
	"github.com/mlmshop/backend/internal/interfaces/http/handler"
	"github.com/mlmshop/backend/internal/interfaces/http/middleware"
	"github.com/mlmshop/backend/internal/interfaces/http/router"
	"github.com/mlmshop/backend/migrations"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

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

	log.Info("Starting MLM shop backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get sql.DB", zap.Error(err))
	}
	log.Info("Database connected successfully")

	if cfg.Database.MigrateOnStart {
		m, err := migration.New(sqlDB, migrations.FS, log)
		if err != nil {
			log.Fatal("Failed to initialize migrations", zap.Error(err))
		}
		if err := m.Up(); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	ctx := context.Background()
	processed, err := cache.NewIdempotencyStore(ctx, cfg.MLM, cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() {
		_ = processed.Close()
	}()
	idempotency := shared.IdempotencyConfig{TTL: cfg.MLM.IdempotencyTTL, Enabled: true}

	// Repositories
	memberRepo := persistence.NewGormMemberRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	recordRepo := persistence.NewGormCommissionRecordRepository(db.DB)
	withdrawalRepo := persistence.NewGormWithdrawalRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	jwtService := auth.NewJWTService(cfg.JWT)
	jwtService.SetInviteStore(processed)

	// Application services
	placementService := network.NewPlacementService(memberRepo, txScope, network.PlacementConfig{
		MaxDepth:   cfg.MLM.MaxPlacementDepth,
		MaxRetries: cfg.MLM.PlacementRetries,
	}, log)
	registrationService := network.NewRegistrationService(memberRepo, placementService, jwtService, cfg.MLM.MaxProfilesPerAccount, log)
	treeService := network.NewTreeQueryService(memberRepo, cfg.MLM.MaxTreeDepth, log)
	productService := catalogapp.NewProductService(productRepo, memberRepo, log)
	distributionService := commissionapp.NewDistributionService(productRepo, txScope, log)
	distributionService.SetIdempotencyStore(processed, idempotency)
	ledgerService := commissionapp.NewLedgerService(memberRepo, recordRepo, withdrawalRepo, txScope, log)
	orderService := tradeapp.NewOrderService(orderRepo, productRepo, memberRepo, txScope, distributionService, ledgerService, log)

	// Events
	eventBus := event.NewInMemoryEventBus(log)
	event.RegisterHandlers(eventBus, processed, idempotency, log)
	placementService.SetEventPublisher(eventBus)
	registrationService.SetEventPublisher(eventBus)
	productService.SetEventPublisher(eventBus)
	distributionService.SetEventPublisher(eventBus)
	ledgerService.SetEventPublisher(eventBus)
	orderService.SetEventPublisher(eventBus)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		_ = eventBus.Stop(context.Background())
	}()

	// Nightly ledger reconciliation
	if cfg.Reconcile.Enabled {
		hour, minute, err := scheduler.ParseCronSchedule(cfg.Reconcile.Schedule)
		if err != nil {
			log.Fatal("Invalid reconciliation schedule", zap.Error(err))
		}
		sweep := scheduler.NewScheduler(scheduler.SchedulerConfig{
			MaxConcurrentJobs: cfg.Reconcile.Workers,
			JobTimeout:        cfg.Reconcile.JobTimeout,
			RetryAttempts:     cfg.Reconcile.Retries,
			RetryDelay:        30 * time.Second,
		}, scheduler.NewReconcileExecutor(ledgerService, log), log)
		trigger := scheduler.NewCronTrigger(scheduler.CronTriggerConfig{
			Hour:          hour,
			Minute:        minute,
			CheckInterval: time.Minute,
		}, sweep, scheduler.NewRepositoryMemberProvider(memberRepo), log)
		if err := sweep.Start(ctx); err != nil {
			log.Fatal("Failed to start reconciliation scheduler", zap.Error(err))
		}
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start reconciliation trigger", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = trigger.Stop(stopCtx)
			_ = sweep.Stop(stopCtx)
		}()
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := router.NewEngine(
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.BodyLimit(cfg.HTTP.MaxBodyBytes),
		middleware.Timeout(cfg.HTTP.RequestTimeout),
	)
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	healthHandler := handler.NewHealthHandler(map[string]handler.Pinger{
		"database": handler.PingFunc(sqlDB.PingContext),
	})
	engine.GET("/health", healthHandler.Health)

	r := router.NewRouter(engine, router.WithMiddleware(
		middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			JWTService: jwtService,
			SkipPaths:  []string{"/api/v1/health"},
			Logger:     log,
		}),
	))
	router.RegisterAPI(r, router.Handlers{
		Members:     handler.NewMemberHandler(registrationService, placementService, treeService, jwtService),
		Products:    handler.NewProductHandler(productService),
		Orders:      handler.NewOrderHandler(orderService),
		Commissions: handler.NewCommissionHandler(distributionService, ledgerService),
		Health:      healthHandler,
	})
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
