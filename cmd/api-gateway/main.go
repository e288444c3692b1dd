package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/review-desk-api/api/swagger"
	"github.com/noah-isme/review-desk-api/internal/handler"
	"github.com/noah-isme/review-desk-api/internal/middleware"
	"github.com/noah-isme/review-desk-api/internal/repository"
	"github.com/noah-isme/review-desk-api/internal/service"
	"github.com/noah-isme/review-desk-api/pkg/cache"
	"github.com/noah-isme/review-desk-api/pkg/config"
	"github.com/noah-isme/review-desk-api/pkg/database"
	"github.com/noah-isme/review-desk-api/pkg/gbp"
	"github.com/noah-isme/review-desk-api/pkg/jobs"
	"github.com/noah-isme/review-desk-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/review-desk-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/review-desk-api/pkg/middleware/requestid"
	"github.com/noah-isme/review-desk-api/pkg/secure"
	"github.com/noah-isme/review-desk-api/pkg/storage"
)

const (
	cachePrefix     = "review-desk:"
	shutdownTimeout = 15 * time.Second
)

// @title Review Desk API
// @version 1.0.0
// @description Template based replies to Google reviews with operator approval
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		version, err := database.Migrate(db)
		if err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
		logr.Info("schema up to date", zap.Uint("version", version))
	}

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
		}
	}

	tokenBox, err := secure.NewTokenBox(cfg.Security.TokenEncryptionKey)
	if err != nil {
		logr.Fatal("invalid token encryption key", zap.Error(err))
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	accountRepo := repository.NewAccountRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	pendingRepo := repository.NewPendingReplyRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, cachePrefix)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TemplateTTL, logr, cfg.Cache.Enabled && redisClient != nil)

	oauthConfig := service.NewOAuthConfig(
		cfg.Google.ClientID,
		cfg.Google.ClientSecret,
		cfg.Google.RedirectURI,
		cfg.Google.AuthURL,
		cfg.Google.TokenURL,
		cfg.Google.Scopes,
	)
	authSvc := service.NewAuthService(accountRepo, tokenBox, oauthConfig, nil, logr, service.AuthConfig{
		SessionSecret: cfg.JWT.Secret,
		SessionTTL:    cfg.JWT.Expiration,
		StateTTL:      cfg.JWT.StateTTL,
		HTTPTimeout:   cfg.Google.HTTPTimeout,
		Endpoints: gbp.Endpoints{
			AccountAPI:      cfg.Google.AccountAPIURL,
			BusinessInfoAPI: cfg.Google.BusinessInfoAPIURL,
			ReviewsAPI:      cfg.Google.ReviewsAPIURL,
			UserInfo:        cfg.Google.UserInfoURL,
		},
	})
	businessSvc := service.NewBusinessService(authSvc, cacheSvc, cfg.Cache.AccountNameTTL, logr)

	engine := service.NewTemplateEngine(logr)
	templateSvc := service.NewTemplateService(templateRepo, engine, cacheSvc, cfg.Cache.TemplateTTL, validate, logr)
	replySvc := service.NewReplyService(pendingRepo, reviewRepo, locationRepo, templateSvc, engine, businessSvc, metricsSvc, validate, logr, service.ReplyServiceConfig{
		SubmitTimeout: cfg.Replies.SubmitTimeout,
	})
	locationSvc := service.NewLocationService(locationRepo, reviewRepo, cacheSvc, cfg.Cache.LocationListTTL, logr)

	syncSvc := service.NewSyncService(locationRepo, reviewRepo, businessSvc, replySvc, cacheSvc, metricsSvc, logr, service.SyncConfig{
		Interval:    cfg.Sync.Interval,
		AutoSuggest: cfg.Sync.AutoSuggest,
	})
	syncQueue := jobs.NewQueue("review-sync", syncSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Sync.Workers,
		MaxRetries: cfg.Sync.Retries,
		Logger:     logr,
	})
	syncSvc.SetQueue(syncQueue)
	syncQueue.Start(ctx)
	defer syncQueue.Stop()
	syncSvc.StartScheduler(ctx)

	var exportHandler *handler.ExportHandler
	if cfg.Exports.Enabled {
		exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Fatal("failed to prepare export storage", zap.Error(err))
		}
		signer := storage.NewSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc := service.NewExportService(pendingRepo, exportStore, signer, metricsSvc, validate, logr, service.ExportConfig{
			APIPrefix:       cfg.APIPrefix,
			ResultTTL:       cfg.Exports.SignedURLTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
		})
		exportSvc.StartCleanup(ctx)
		exportHandler = handler.NewExportHandler(exportSvc)
	}

	checks := []handler.ReadinessCheck{{Name: "postgres", Check: func(ctx context.Context) error {
		return database.Ping(ctx, db)
	}}}
	if redisClient != nil {
		checks = append(checks, handler.ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
			return cache.Ping(ctx, redisClient)
		}})
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks...)
	authHandler := handler.NewAuthHandler(authSvc)
	locationHandler := handler.NewLocationHandler(locationSvc, syncSvc)
	templateHandler := handler.NewTemplateHandler(templateSvc, replySvc)
	replyHandler := handler.NewReplyHandler(replySvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/summary", metricsHandler.Snapshot)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/auth/login", authHandler.Login)
	api.GET("/auth/callback", authHandler.Callback)
	if exportHandler != nil {
		api.GET("/exports/download/:token", exportHandler.Download)
	}

	secured := api.Group("")
	secured.Use(middleware.Session(authSvc, cfg.JWT.RequireSession))

	secured.GET("/auth/accounts", authHandler.Accounts)
	secured.DELETE("/auth/accounts/:id", authHandler.Disconnect)
	secured.POST("/accounts/:id/locations/sync", locationHandler.SyncLocations)

	locations := secured.Group("/locations")
	locations.GET("", locationHandler.List)
	locations.POST("/reviews/sync", locationHandler.EnqueueAll)
	locations.GET("/:id", locationHandler.Get)
	locations.GET("/:id/reviews", locationHandler.Reviews)
	locations.POST("/:id/reviews/sync", locationHandler.SyncReviews)

	templates := secured.Group("/templates")
	templates.GET("", templateHandler.List)
	templates.POST("", templateHandler.Create)
	templates.POST("/preview", templateHandler.Preview)
	templates.POST("/validate", templateHandler.Validate)
	templates.GET("/:id", templateHandler.Get)
	templates.PUT("/:id", templateHandler.Update)
	templates.DELETE("/:id", templateHandler.Delete)

	replies := secured.Group("/replies")
	replies.POST("/reviews/:reviewId/suggest", replyHandler.Suggest)
	replies.GET("/pending", replyHandler.Pending)
	replies.POST("/:id/approve", replyHandler.Approve)
	replies.POST("/:id/reject", replyHandler.Reject)
	replies.POST("/:id/edit", replyHandler.Edit)

	if exportHandler != nil {
		secured.POST("/exports/replies", exportHandler.Create)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
