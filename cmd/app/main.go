package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dailyrise_engine/internal/api"
	"dailyrise_engine/internal/feed"
	"dailyrise_engine/internal/middleware"
	"dailyrise_engine/internal/notify"
	"dailyrise_engine/internal/reminderstore"
	"dailyrise_engine/internal/repository"
	"dailyrise_engine/internal/scheduler"
	"dailyrise_engine/internal/service"
	"dailyrise_engine/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	store, err := reminderstore.New(cfg.Reminders.Path)
	if err != nil {
		zapLogger.Fatal("Failed to open reminder store", zap.Error(err))
	}
	defer store.Close()

	var notifier notify.Notifier = notify.Noop{}
	if cfg.Telegram.BotToken != "" {
		notifier, err = notify.NewTelegram(cfg.Telegram.BotToken, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to initialize telegram notifier", zap.Error(err))
		}
	}

	pointsService := service.NewPointsService(repo, zapLogger)
	accountability := service.NewAccountabilityService(repo, pointsService, cfg.Points.ChallengeReward, zapLogger)

	hub := api.NewPushHub()
	sched := scheduler.New(store, hub, notifier, accountability, zapLogger,
		scheduler.WithEventSink(hub.AlarmSink()))

	reminderService := service.NewReminderService(store, sched, zapLogger)
	challengeService := service.NewChallengeService(repo, reminderService, zapLogger)

	feedSub := feed.New(cfg.Database.GetDatabaseURL(), repo, cfg.Feed.PollInterval, zapLogger)
	if err := feedSub.Start(ctx); err != nil {
		zapLogger.Fatal("Failed to start change feed", zap.Error(err))
	}

	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	config.AllowHeaders = []string{"*"}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour

	router.Use(cors.New(config))

	a := router.Group("/api/v1")
	a.Use(middleware.UserIdentity())

	api.NewHabitRoutes(a, repo)
	api.NewChallengeRoutes(a, challengeService)
	api.NewPointsRoutes(a, pointsService)
	api.NewReminderRoutes(a, reminderService, repo)
	api.NewFeedRoutes(a, feedSub, pointsService, reminderService, hub)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	go func() {
		zapLogger.Info("Starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server shutdown failed", zap.Error(err))
	}
}
