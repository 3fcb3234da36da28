package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/notification-hub/middlewares"
	"github.com/yeremiapane/notification-hub/models"
	"github.com/yeremiapane/notification-hub/services"
	"github.com/yeremiapane/notification-hub/utils"
)

type PreferencesController struct {
	Preferences *services.PreferenceService
}

func NewPreferencesController(prefs *services.PreferenceService) *PreferencesController {
	return &PreferencesController{Preferences: prefs}
}

func (pc *PreferencesController) respond(c *gin.Context, message string, p *models.UserPreferences, err error) {
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, message, p)
}

// GetPreferences creates the defaults on first access
func (pc *PreferencesController) GetPreferences(c *gin.Context) {
	userID, _ := middlewares.CurrentUserID(c)
	p, err := pc.Preferences.Ensure(c.Request.Context(), userID)
	pc.respond(c, "Preferences retrieved successfully", p, err)
}

func (pc *PreferencesController) UpdatePreferences(c *gin.Context) {
	userID, _ := middlewares.CurrentUserID(c)

	var req services.PreferencesUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	p, err := pc.Preferences.Update(c.Request.Context(), userID, req)
	pc.respond(c, "Preferences updated successfully", p, err)
}

func (pc *PreferencesController) ResetPreferences(c *gin.Context) {
	userID, _ := middlewares.CurrentUserID(c)
	p, err := pc.Preferences.Reset(c.Request.Context(), userID)
	pc.respond(c, "Preferences reset to defaults", p, err)
}

func (pc *PreferencesController) MuteApp(c *gin.Context) {
	userID, _ := middlewares.CurrentUserID(c)
	p, err := pc.Preferences.MuteApp(c.Request.Context(), userID, c.Param("appId"))
	pc.respond(c, "Application muted", p, err)
}

func (pc *PreferencesController) UnmuteApp(c *gin.Context) {
	userID, _ := middlewares.CurrentUserID(c)
	p, err := pc.Preferences.UnmuteApp(c.Request.Context(), userID, c.Param("appId"))
	pc.respond(c, "Application unmuted", p, err)
}

func (pc *PreferencesController) UpdateQuietHours(c *gin.Context) {
	userID, _ := middlewares.CurrentUserID(c)

	var req services.QuietHoursUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	p, err := pc.Preferences.UpdateQuietHours(c.Request.Context(), userID, req)
	pc.respond(c, "Quiet hours updated", p, err)
}

func (pc *PreferencesController) ToggleNotifications(c *gin.Context) {
	userID, _ := middlewares.CurrentUserID(c)
	p, err := pc.Preferences.ToggleNotifications(c.Request.Context(), userID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	message := "Notifications disabled"
	if p.NotificationsEnabled {
		message = "Notifications enabled"
	}
	utils.RespondJSON(c, http.StatusOK, message, p)
}
