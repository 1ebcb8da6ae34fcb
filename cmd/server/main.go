package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apporder "github.com/ordertrack/backend/internal/application/order"
	"github.com/ordertrack/backend/internal/application/ordersync"
	"github.com/ordertrack/backend/internal/application/photo"
	"github.com/ordertrack/backend/internal/domain/integration"
	"github.com/ordertrack/backend/internal/infrastructure/cache"
	"github.com/ordertrack/backend/internal/infrastructure/config"
	"github.com/ordertrack/backend/internal/infrastructure/ecommerce"
	"github.com/ordertrack/backend/internal/infrastructure/logger"
	"github.com/ordertrack/backend/internal/infrastructure/persistence"
	"github.com/ordertrack/backend/internal/infrastructure/scheduler"
	"github.com/ordertrack/backend/internal/infrastructure/storage"
	"github.com/ordertrack/backend/internal/interfaces/http/handler"
	"github.com/ordertrack/backend/internal/interfaces/http/middleware"
	"github.com/ordertrack/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting order tracking backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Order store
	repo, err := persistence.NewJSONOrderLineRepository(cfg.Store.Path,
		persistence.WithRepositoryLogger(log.Named("store")),
	)
	if err != nil {
		log.Fatal("Failed to open order store", zap.String("path", cfg.Store.Path), zap.Error(err))
	}

	// Photo bucket
	var lister photo.ObjectLister
	if cfg.Storage.IsConfigured() {
		bucket, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log.Named("storage")))
		if err != nil {
			log.Fatal("Failed to initialize photo storage", zap.Error(err))
		}
		lister = bucket
		log.Info("Photo storage configured", zap.String("bucket", bucket.GetBucket()))
	} else {
		log.Warn("Photo storage not configured, photo lookup disabled")
	}
	resolver := photo.NewResolver(lister,
		photo.WithLogger(log.Named("photo")),
		photo.WithBatchInterval(cfg.Sync.PhotoBatchInterval),
	)

	// Marketplace connectors
	trendyolCfg := ecommerce.NewTrendyolConfig(cfg.Trendyol.SupplierID, cfg.Trendyol.APIKey, cfg.Trendyol.APISecret)
	trendyolCfg.APIBaseURL = cfg.Trendyol.APIURL
	trendyolCfg.PageSize = cfg.Trendyol.PageSize
	ikasCfg := ecommerce.NewIkasConfig(cfg.Ikas.ClientID, cfg.Ikas.ClientSecret)
	ikasCfg.APIBaseURL = cfg.Ikas.APIBaseURL
	ikasCfg.PageLimit = cfg.Ikas.PageLimit
	connectors := []integration.Connector{
		ecommerce.NewTrendyolAdapter(trendyolCfg, ecommerce.WithLogger(log.Named("trendyol"))),
		ecommerce.NewIkasAdapter(ikasCfg, ecommerce.WithLogger(log.Named("ikas"))),
	}

	// Webhook delivery store
	deliveries, err := cache.NewIdempotencyStoreFactory(
		cache.RedisConfig{
			URL:      cfg.Redis.URL,
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		cache.WithLogger(log.Named("cache")),
		cache.WithInMemoryFallback(!cfg.Redis.Required),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to initialize webhook delivery store", zap.Error(err))
	}
	defer func() {
		if err := deliveries.Close(); err != nil {
			log.Error("Error closing delivery store", zap.Error(err))
		}
	}()

	// Application services
	syncService := ordersync.NewService(repo, connectors,
		ordersync.WithLogger(log.Named("sync")),
		ordersync.WithPhotoResolver(resolver),
		ordersync.WithDeliveryStore(deliveries, cfg.Sync.DeliveryTTL),
		ordersync.WithWebhookTimeout(cfg.Sync.WebhookTimeout),
	)
	orderOpts := []apporder.Option{apporder.WithLogger(log.Named("orders"))}
	if resolver.Enabled() {
		orderOpts = append(orderOpts, apporder.WithPhotoSource(resolver))
	}
	orderService := apporder.NewService(repo, orderOpts...)

	// Background jobs
	var jobs handler.JobStatsProvider
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.New(scheduler.Config{
			JobTimeout:  cfg.Scheduler.JobTimeout,
			HistorySize: scheduler.DefaultHistorySize,
		}, scheduler.WithLogger(log.Named("scheduler")))
		if err != nil {
			log.Fatal("Failed to create scheduler", zap.Error(err))
		}
		mustRegister(log, sched, scheduler.NewOrderSyncJob(syncService, integration.PlatformCodeTrendyol,
			cfg.Sync.TrendyolInitialDelay, cfg.Sync.TrendyolInterval))
		mustRegister(log, sched, scheduler.NewOrderSyncJob(syncService, integration.PlatformCodeIkas,
			cfg.Sync.IkasInitialDelay, cfg.Sync.IkasInterval))
		if cfg.Scheduler.RetentionDays > 0 {
			mustRegister(log, sched, scheduler.NewRetentionJob(orderService,
				cfg.Scheduler.RetentionDays, cfg.Scheduler.RetentionInterval))
		}
		if err := sched.Start(context.Background()); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		jobs = sched
	} else {
		log.Info("Scheduler disabled, marketplaces sync only on demand")
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithConfig(corsConfig(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	healthHandler := handler.NewHealthHandler()
	orderHandler := handler.NewOrderHandler(orderService)
	syncHandler := handler.NewSyncHandler(syncService, jobs)

	r := router.NewRouter(engine)

	healthRoutes := router.NewDomainGroup("health", "/health")
	healthRoutes.GET("", healthHandler.Health)

	orderRoutes := router.NewDomainGroup("orders", "/siparisler")
	orderRoutes.GET("", orderHandler.List)
	orderRoutes.POST("", orderHandler.Create)
	orderRoutes.POST("/update-fotograflar", orderHandler.RefreshPhotos)
	orderRoutes.DELETE("/cleanup/old", orderHandler.PurgeOld)
	orderRoutes.DELETE("/cleanup/all", orderHandler.PurgeAll)
	orderRoutes.GET("/:id", orderHandler.GetByID)
	orderRoutes.PATCH("/:id/durum", orderHandler.UpdateStatus)
	orderRoutes.PATCH("/:id/uretim-durum", orderHandler.UpdateProductionStatus)
	orderRoutes.PATCH("/:id/not", orderHandler.UpdateNote)
	orderRoutes.PATCH("/:id/fotograf", orderHandler.UpdatePhoto)
	orderRoutes.DELETE("/:id", orderHandler.Delete)

	reportRoutes := router.NewDomainGroup("reports", "/raporlar")
	reportRoutes.GET("", orderHandler.Report)

	webhookRoutes := router.NewDomainGroup("webhooks", "/webhooks")
	webhookRoutes.POST("/trendyol", syncHandler.TrendyolWebhook)

	syncRoutes := router.NewDomainGroup("sync", "/sync")
	syncRoutes.GET("/history", syncHandler.History)
	syncRoutes.GET("/jobs", syncHandler.Jobs)
	syncRoutes.POST("/:platform", syncHandler.Trigger)

	r.Register(healthRoutes).
		Register(orderRoutes).
		Register(reportRoutes).
		Register(webhookRoutes).
		Register(syncRoutes).
		Setup()

	for _, g := range []*router.DomainGroup{healthRoutes, orderRoutes, reportRoutes, webhookRoutes, syncRoutes} {
		log.Debug("Routes registered", zap.String("group", g.Name()), zap.Strings("routes", g.Routes()))
	}

	// Create HTTP server with config
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

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

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if sched != nil {
		if err := sched.Stop(ctx); err != nil {
			log.Warn("Scheduler did not stop cleanly", zap.Error(err))
		}
	}
	if err := syncService.Shutdown(ctx); err != nil {
		log.Warn("Pending webhook work abandoned", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func mustRegister(log *zap.Logger, sched *scheduler.Scheduler, job scheduler.Job) {
	if err := sched.Register(job); err != nil {
		log.Fatal("Failed to register job", zap.String("job", job.Name), zap.Error(err))
	}
}

func corsConfig(c config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	if len(c.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = c.CORSAllowOrigins
	}
	if len(c.CORSAllowMethods) > 0 {
		cors.AllowMethods = c.CORSAllowMethods
	}
	if len(c.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = c.CORSAllowHeaders
	}
	return cors
}
