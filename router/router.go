package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/notification-hub/config"
	"github.com/yeremiapane/notification-hub/controllers"
	"github.com/yeremiapane/notification-hub/hub"
	"github.com/yeremiapane/notification-hub/middlewares"
	"github.com/yeremiapane/notification-hub/repositories"
	"github.com/yeremiapane/notification-hub/services"
	"github.com/yeremiapane/notification-hub/utils"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func SetupRouter(db *gorm.DB, cfg *config.Config, h *hub.Hub) *gin.Engine {
	if err := utils.RegisterValidators(); err != nil {
		utils.ErrorLogger.WithError(err).Error("Custom validators not registered")
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(cfg.AllowedOrigins))
	r.Use(middlewares.LoggerMiddleware())

	jwtManager := cfg.JWTManager()

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	tokenRepo := repositories.NewRefreshTokenRepository(db)
	appRepo := repositories.NewApplicationRepository(db)
	prefsRepo := repositories.NewPreferencesRepository(db)
	notifRepo := repositories.NewNotificationRepository(db)

	// Services
	authSvc := services.NewAuthService(userRepo, tokenRepo, jwtManager)
	appSvc := services.NewApplicationService(appRepo, notifRepo, jwtManager)
	prefSvc := services.NewPreferenceService(prefsRepo, userRepo)
	dispatcher := services.NewDispatcher(h, notifRepo)
	notifSvc := services.NewNotificationService(notifRepo, userRepo, prefSvc, dispatcher)
	ingestSvc := services.NewIngestionService(appSvc, notifSvc)

	// Controllers
	authCtrl := controllers.NewAuthController(authSvc)
	webhookCtrl := controllers.NewWebhookController(ingestSvc, appSvc)
	notifCtrl := controllers.NewNotificationController(notifSvc)
	prefCtrl := controllers.NewPreferencesController(prefSvc)
	appCtrl := controllers.NewApplicationController(appSvc)
	realtimeCtrl := controllers.NewRealtimeController(h, cfg.AllowedOrigins)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	public := r.Group("/auth")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", authCtrl.Register)
		public.POST("/login", authCtrl.Login)
		public.POST("/refresh", authCtrl.Refresh)
		public.POST("/logout", authCtrl.Logout)
	}

	// Webhook callers authenticate with an application token, checked by the service.
	webhookLimiter := middlewares.NewRateLimiter(
		rate.Every(time.Minute/time.Duration(cfg.WebhookRatePerMinute)),
		cfg.WebhookRatePerMinute,
		middlewares.ByParam("appId"),
	)
	webhook := r.Group("/webhook")
	{
		webhook.POST("/:appId", webhookLimiter.RateLimit(), webhookCtrl.Receive)
		webhook.GET("/:appId/status", webhookCtrl.Status)
	}

	r.GET("/ws", middlewares.WebSocketAuthMiddleware(jwtManager, userRepo), realtimeCtrl.Connect)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware(jwtManager))

	auth.GET("/auth/me", authCtrl.Me)

	// NOTIFICATIONS
	auth.GET("/notifications", notifCtrl.GetNotifications)
	auth.GET("/notifications/unread", notifCtrl.GetUnread)
	auth.GET("/notifications/count", notifCtrl.GetCounts)
	auth.PUT("/notifications/bulk-action", notifCtrl.BulkAction)
	auth.GET("/notifications/:id", notifCtrl.GetNotificationByID)
	auth.PUT("/notifications/:id/read", notifCtrl.MarkAsRead)
	auth.PUT("/notifications/:id/unread", notifCtrl.MarkAsUnread)
	auth.PUT("/notifications/:id/archive", notifCtrl.Archive)
	auth.DELETE("/notifications/:id", notifCtrl.DeleteNotification)

	// PREFERENCES
	auth.GET("/preferences", prefCtrl.GetPreferences)
	auth.PUT("/preferences", prefCtrl.UpdatePreferences)
	auth.POST("/preferences/reset", prefCtrl.ResetPreferences)
	auth.POST("/preferences/apps/:appId/mute", prefCtrl.MuteApp)
	auth.POST("/preferences/apps/:appId/unmute", prefCtrl.UnmuteApp)
	auth.PUT("/preferences/quiet-hours", prefCtrl.UpdateQuietHours)
	auth.PUT("/preferences/notifications/toggle", prefCtrl.ToggleNotifications)

	// APPLICATIONS (owner only)
	auth.POST("/applications", appCtrl.RegisterApplication)
	auth.GET("/applications", appCtrl.GetApplications)
	auth.GET("/applications/:appId", appCtrl.GetApplication)
	auth.PATCH("/applications/:appId", appCtrl.UpdateApplication)
	auth.POST("/applications/:appId/token", appCtrl.IssueToken)
	auth.GET("/applications/:appId/notifications", appCtrl.GetRecentNotifications)

	return r
}
