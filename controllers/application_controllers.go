package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/notification-hub/middlewares"
	"github.com/yeremiapane/notification-hub/services"
	"github.com/yeremiapane/notification-hub/utils"
)

type ApplicationController struct {
	Applications *services.ApplicationService
}

func NewApplicationController(apps *services.ApplicationService) *ApplicationController {
	return &ApplicationController{Applications: apps}
}

type updateApplicationRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// RegisterApplication -> the caller becomes the owner
func (ac *ApplicationController) RegisterApplication(c *gin.Context) {
	userID, _ := middlewares.CurrentUserID(c)

	var req services.RegisterApplicationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	app, err := ac.Applications.Register(c.Request.Context(), userID, req)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Application registered", app)
}

func (ac *ApplicationController) GetApplications(c *gin.Context) {
	userID, _ := middlewares.CurrentUserID(c)
	apps, err := ac.Applications.ListOwned(c.Request.Context(), userID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Applications retrieved", apps)
}

func (ac *ApplicationController) GetApplication(c *gin.Context) {
	userID, _ := middlewares.CurrentUserID(c)
	app, err := ac.Applications.GetOwned(c.Request.Context(), c.Param("appId"), userID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Application detail", app)
}

// GetRecentNotifications -> what the application sent lately, for its owner
func (ac *ApplicationController) GetRecentNotifications(c *gin.Context) {
	userID, _ := middlewares.CurrentUserID(c)

	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	notifications, err := ac.Applications.RecentNotifications(c.Request.Context(), c.Param("appId"), userID, limit)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Recent notifications retrieved", notifications)
}

// UpdateApplication enables or disables webhook delivery for the application
func (ac *ApplicationController) UpdateApplication(c *gin.Context) {
	userID, _ := middlewares.CurrentUserID(c)

	var req updateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	app, err := ac.Applications.SetEnabled(c.Request.Context(), c.Param("appId"), userID, *req.Enabled)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Application updated", app)
}

func (ac *ApplicationController) IssueToken(c *gin.Context) {
	userID, _ := middlewares.CurrentUserID(c)
	token, err := ac.Applications.IssueToken(c.Request.Context(), c.Param("appId"), userID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Application token issued", token)
}
