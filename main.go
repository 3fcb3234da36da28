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
	"github.com/yeremiapane/notification-hub/config"
	"github.com/yeremiapane/notification-hub/database"
	"github.com/yeremiapane/notification-hub/hub"
	"github.com/yeremiapane/notification-hub/repositories"
	"github.com/yeremiapane/notification-hub/router"
	"github.com/yeremiapane/notification-hub/services"
	"github.com/yeremiapane/notification-hub/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

	switch cfg.GinMode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.GinMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}

	realtime := hub.New(cfg.WSWriteTimeout)
	defer realtime.Close()

	sweeper := services.NewRetentionSweeper(
		repositories.NewPreferencesRepository(db),
		repositories.NewNotificationRepository(db),
		services.NewAuthService(repositories.NewUserRepository(db), repositories.NewRefreshTokenRepository(db), cfg.JWTManager()),
	)
	sweeper.Interval = cfg.RetentionInterval
	sweeper.Start()
	defer sweeper.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.SetupRouter(db, cfg, realtime),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.InfoLogger.Infof("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.InfoLogger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	// Hijacked WebSocket connections are not tracked by Shutdown; the hub closes them.
	realtime.Close()
	if err := srv.Shutdown(ctx); err != nil {
		utils.ErrorLogger.WithError(err).Error("Server forced to shutdown")
	}
}
