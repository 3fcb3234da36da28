package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/notification-hub/apperrors"
	"github.com/yeremiapane/notification-hub/middlewares"
	"github.com/yeremiapane/notification-hub/models"
	"github.com/yeremiapane/notification-hub/services"
	"github.com/yeremiapane/notification-hub/utils"
)

var errNotificationNotFound = errors.New("Notification not found")

type NotificationController struct {
	Notifications *services.NotificationService
}

func NewNotificationController(notifications *services.NotificationService) *NotificationController {
	return &NotificationController{Notifications: notifications}
}

type bulkActionRequest struct {
	Action          string   `json:"action" binding:"required"`
	NotificationIDs []string `json:"notification_ids" binding:"required,min=1,max=500"`
}

type BulkActionResult struct {
	Action    string `json:"action"`
	Requested int    `json:"requested"`
	Updated   int    `json:"updated"`
}

// respondNotificationError hides whether a notification is missing or belongs to someone else.
func respondNotificationError(c *gin.Context, err error) {
	if apperrors.IsKind(err, apperrors.KindNotFound) || apperrors.IsKind(err, apperrors.KindForbidden) {
		utils.RespondError(c, http.StatusBadRequest, errNotificationNotFound)
		return
	}
	utils.RespondAppError(c, err)
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

func (nc *NotificationController) feed(c *gin.Context, status string) {
	userID, _ := middlewares.CurrentUserID(c)

	page, err := queryInt(c, "page", 0)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	size, err := queryInt(c, "size", 0)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if status == "" {
		status = c.Query("status")
	}

	result, err := nc.Notifications.Feed(c.Request.Context(), services.FeedQuery{
		UserID:   userID,
		Page:     page,
		Size:     size,
		Status:   status,
		Type:     c.Query("type"),
		Priority: c.Query("priority"),
	})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notifications retrieved successfully", result)
}

// GetNotifications -> paginated feed with optional status/type/priority filters
func (nc *NotificationController) GetNotifications(c *gin.Context) {
	nc.feed(c, "")
}

func (nc *NotificationController) GetUnread(c *gin.Context) {
	nc.feed(c, string(models.StatusUnread))
}

func (nc *NotificationController) GetCounts(c *gin.Context) {
	userID, _ := middlewares.CurrentUserID(c)
	counts, err := nc.Notifications.Counts(c.Request.Context(), userID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification counts retrieved successfully", counts)
}

func (nc *NotificationController) GetNotificationByID(c *gin.Context) {
	userID, _ := middlewares.CurrentUserID(c)
	n, err := nc.Notifications.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondNotificationError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification retrieved successfully", n)
}

func (nc *NotificationController) MarkAsRead(c *gin.Context) {
	userID, _ := middlewares.CurrentUserID(c)
	n, err := nc.Notifications.MarkAsRead(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondNotificationError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification marked as read", n)
}

func (nc *NotificationController) MarkAsUnread(c *gin.Context) {
	userID, _ := middlewares.CurrentUserID(c)
	n, err := nc.Notifications.MarkAsUnread(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondNotificationError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification marked as unread", n)
}

func (nc *NotificationController) Archive(c *gin.Context) {
	userID, _ := middlewares.CurrentUserID(c)
	n, err := nc.Notifications.Archive(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondNotificationError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification archived", n)
}

// BulkAction -> best effort per item; only an unknown action fails the request
func (nc *NotificationController) BulkAction(c *gin.Context) {
	userID, _ := middlewares.CurrentUserID(c)

	var req bulkActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	action, err := services.ParseBulkAction(req.Action)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	updated := nc.Notifications.PerformBulkAction(c.Request.Context(), action, req.NotificationIDs, userID)

	utils.RespondJSON(c, http.StatusOK,
		fmt.Sprintf("Successfully performed '%s' action on %d notifications", action, updated),
		BulkActionResult{Action: action.String(), Requested: len(req.NotificationIDs), Updated: updated})
}

func (nc *NotificationController) DeleteNotification(c *gin.Context) {
	userID, _ := middlewares.CurrentUserID(c)
	if err := nc.Notifications.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondNotificationError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification deleted successfully", nil)
}
