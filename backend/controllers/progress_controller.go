package controllers

import (
	"habitgrowth/backend/apperrors"
	"habitgrowth/backend/middleware"
	"habitgrowth/backend/models"
	"habitgrowth/backend/services"
	"habitgrowth/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type ProgressController struct {
	Growth *services.GrowthUpdater
}

func NewProgressController(growth *services.GrowthUpdater) *ProgressController {
	return &ProgressController{Growth: growth}
}

type SwitchMetaphorRequest struct {
	MetaphorType models.MetaphorType `json:"metaphorType" enums:"plant,creature"`
}

// GetProgress godoc
// @Summary Get growth progress
// @Description Returns the user's growth record and the milestone of the current stage
// @Tags progress
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /progress [get]
func (pc *ProgressController) GetProgress(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	progress, milestone, err := pc.Growth.Progress(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"progress":         progress,
		"currentMilestone": milestone,
	})
}

// UpdateProgress godoc
// @Summary Recompute growth progress from completions
// @Tags progress
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /progress/update [post]
func (pc *ProgressController) UpdateProgress(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	progress, err := pc.Growth.Recompute(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, progress)
}

// SwitchMetaphor godoc
// @Summary Switch growth metaphor
// @Description Restarts the chosen track at stage 1; completed milestones and XP are kept
// @Tags progress
// @Accept json
// @Produce json
// @Param input body SwitchMetaphorRequest true "Metaphor"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/metaphor [post]
func (pc *ProgressController) SwitchMetaphor(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	var input SwitchMetaphorRequest
	if err := c.BodyParser(&input); err != nil {
		return apperrors.Validation("Cannot parse JSON")
	}
	progress, err := pc.Growth.SwitchMetaphor(c.UserContext(), userID, input.MetaphorType)
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, progress)
}

// GetMilestones godoc
// @Summary Stages of a growth track
// @Tags progress
// @Produce json
// @Param metaphorType path string true "plant or creature"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/milestones/{metaphorType} [get]
func (pc *ProgressController) GetMilestones(c *fiber.Ctx) error {
	milestones, err := pc.Growth.Milestones(c.UserContext(), models.MetaphorType(c.Params("metaphorType")))
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, milestones)
}
