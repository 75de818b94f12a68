package controllers

import (
	"habitgrowth/backend/apperrors"
	"habitgrowth/backend/middleware"
	"habitgrowth/backend/services"
	"habitgrowth/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type NotificationController struct {
	Notifications *services.NotificationService
}

func NewNotificationController(notifications *services.NotificationService) *NotificationController {
	return &NotificationController{Notifications: notifications}
}

type TestNotificationRequest struct {
	Type    string `json:"type" enums:"browser,email"`
	Message string `json:"message"`
}

// GetPreferences godoc
// @Summary Get notification preferences
// @Description Defaults are created on first access
// @Tags notifications
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /notifications/preferences [get]
func (nc *NotificationController) GetPreferences(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	prefs, err := nc.Notifications.Preferences(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, prefs)
}

// UpdatePreferences godoc
// @Summary Update notification preferences
// @Tags notifications
// @Accept json
// @Produce json
// @Param input body services.NotificationPatch true "Fields to change"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /notifications/preferences [put]
func (nc *NotificationController) UpdatePreferences(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	var patch services.NotificationPatch
	if err := c.BodyParser(&patch); err != nil {
		return apperrors.Validation("Cannot parse JSON")
	}
	prefs, err := nc.Notifications.UpdatePreferences(c.UserContext(), userID, patch)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, prefs)
}

// GetUsersForReminders godoc
// @Summary Users whose daily reminder is due this minute
// @Tags notifications
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /notifications/users-for-reminders [get]
func (nc *NotificationController) GetUsersForReminders(c *fiber.Ctx) error {
	users, err := nc.Notifications.UsersForReminders(c.UserContext())
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, users)
}

// TestNotification godoc
// @Summary Echo a test notification without sending it
// @Tags notifications
// @Accept json
// @Produce json
// @Param input body TestNotificationRequest false "Notification"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /notifications/test [post]
func (nc *NotificationController) TestNotification(c *fiber.Ctx) error {
	var input TestNotificationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return apperrors.Validation("Cannot parse JSON")
		}
	}
	message, err := nc.Notifications.TestNotification(input.Type, input.Message)
	if err != nil {
		return err
	}
	return c.JSON(utils.SuccessResponse{Success: true, Message: message})
}
