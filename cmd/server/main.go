// Package main runs the meeting slot allocation HTTP server.
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

	"github.com/horizon-mentorship/backend/config"
	"github.com/horizon-mentorship/backend/internal/alerts"
	"github.com/horizon-mentorship/backend/internal/auth"
	"github.com/horizon-mentorship/backend/internal/groups"
	"github.com/horizon-mentorship/backend/internal/meetings"
	"github.com/horizon-mentorship/backend/internal/middleware"
	"github.com/horizon-mentorship/backend/internal/provider"
	"github.com/horizon-mentorship/backend/internal/slots"
	"github.com/horizon-mentorship/backend/pkg/database"
	"github.com/horizon-mentorship/backend/pkg/queue"
	"github.com/horizon-mentorship/backend/pkg/redis"
	"github.com/horizon-mentorship/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Slot allocation
	txRunner := database.NewPoolRunner(pool)
	slotRepo := slots.NewRepository()
	historyRepo := slots.NewHistoryRepository(pool)
	groupRepo := groups.NewRepository(pool)
	providerClient := provider.NewClient(cfg.Provider, logger)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	alertSink := alerts.NewSink(jobQueue, cfg.Alerts.RecipientRole, logger)

	meetingService := meetings.NewService(
		txRunner, slotRepo, historyRepo, providerClient, alertSink,
		time.Duration(cfg.Meetings.GracePeriodMin)*time.Minute,
		time.Duration(cfg.Meetings.LinkTTLDays)*24*time.Hour,
		logger,
	)
	meetingHandler := meetings.NewHandler(meetingService, groupRepo, historyRepo, logger)

	joinLimiter := middleware.NewRateLimiter(cfg.Meetings.JoinRatePerMin)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.POST("/groups/:id/meeting/join", joinLimiter.Limit(), meetingHandler.Join)
		api.GET("/groups/:id/meeting/history", meetingHandler.History)

		// Housekeeping, triggered by external cron; reclamation otherwise
		// happens lazily inside join.
		api.POST("/cron/reclaim", middleware.RequireRole("admin"), meetingHandler.Reclaim)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
