package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/notification-hub/middlewares"
	"github.com/yeremiapane/notification-hub/services"
	"github.com/yeremiapane/notification-hub/utils"
)

var errWebhookAuthHeader = errors.New("Missing or invalid Authorization header")

type WebhookController struct {
	Ingestion    *services.IngestionService
	Applications *services.ApplicationService
}

func NewWebhookController(ingestion *services.IngestionService, apps *services.ApplicationService) *WebhookController {
	return &WebhookController{Ingestion: ingestion, Applications: apps}
}

type WebhookResponse struct {
	NotificationID string    `json:"notification_id"`
	Delivered      bool      `json:"delivered"`
	Status         string    `json:"status"`
	Message        string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
}

// Receive -> POST /webhook/:appId
func (wc *WebhookController) Receive(c *gin.Context) {
	appID := c.Param("appId")

	token, ok := middlewares.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		utils.InfoLogger.WithField("app_id", appID).Warn("Webhook call without bearer token")
		utils.RespondError(c, http.StatusUnauthorized, errWebhookAuthHeader)
		return
	}

	var req services.WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	n, err := wc.Ingestion.Ingest(c.Request.Context(), appID, token, req, services.RequestSource{
		IP:        clientIP(c),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		utils.InfoLogger.WithFields(logrus.Fields{"app_id": appID}).WithError(err).Warn("Webhook rejected")
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Notification processed successfully", WebhookResponse{
		NotificationID: n.ID,
		Delivered:      n.Delivered,
		Status:         "success",
		Message:        "Notification processed successfully",
		Timestamp:      time.Now(),
	})
}

// Status -> GET /webhook/:appId/status
func (wc *WebhookController) Status(c *gin.Context) {
	status, err := wc.Applications.Status(c.Request.Context(), c.Param("appId"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Webhook status retrieved", status)
}

// clientIP prefers proxy headers over the socket address.
func clientIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(c.GetHeader("X-Real-IP")); realIP != "" {
		return realIP
	}
	return c.ClientIP()
}
