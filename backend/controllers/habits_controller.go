package controllers

import (
	"strconv"

	"habitgrowth/backend/apperrors"
	"habitgrowth/backend/middleware"
	"habitgrowth/backend/services"

	"github.com/gofiber/fiber/v2"
)

type HabitsController struct {
	Habits   *services.HabitService
	Awarder  *services.MilestoneAwarder
	Reporter *services.Reporter
}

func NewHabitsController(habits *services.HabitService, awarder *services.MilestoneAwarder, reporter *services.Reporter) *HabitsController {
	return &HabitsController{Habits: habits, Awarder: awarder, Reporter: reporter}
}

type CompleteHabitRequest struct {
	Date  string `json:"date" example:"2024-05-01T08:30:00Z"`
	Notes string `json:"notes"`
}

// CreateHabit godoc
// @Summary Create a habit
// @Tags habits
// @Accept json
// @Produce json
// @Param input body services.HabitInput true "Habit"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /habits [post]
func (hc *HabitsController) CreateHabit(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	var input services.HabitInput
	if err := c.BodyParser(&input); err != nil {
		return apperrors.Validation("Cannot parse JSON")
	}
	habit, err := hc.Habits.Create(c.UserContext(), userID, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Habit created successfully",
		"habit":   habit,
	})
}

// GetHabits godoc
// @Summary List the caller's habits, newest first
// @Tags habits
// @Produce json
// @Success 200 {array} models.Habit
// @Security ApiKeyAuth
// @Router /habits [get]
func (hc *HabitsController) GetHabits(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	habits, err := hc.Habits.List(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(habits)
}

// UpdateHabit godoc
// @Summary Update a habit
// @Tags habits
// @Accept json
// @Produce json
// @Param id path int true "Habit ID"
// @Param input body services.HabitPatch true "Fields to change"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /habits/{id} [put]
func (hc *HabitsController) UpdateHabit(c *fiber.Ctx) error {
	userID, habitID, err := habitRequest(c)
	if err != nil {
		return err
	}
	var patch services.HabitPatch
	if err := c.BodyParser(&patch); err != nil {
		return apperrors.Validation("Cannot parse JSON")
	}
	habit, err := hc.Habits.Update(c.UserContext(), userID, habitID, patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Habit updated successfully",
		"habit":   habit,
	})
}

// DeleteHabit godoc
// @Summary Delete a habit and its completions
// @Tags habits
// @Produce json
// @Param id path int true "Habit ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /habits/{id} [delete]
func (hc *HabitsController) DeleteHabit(c *fiber.Ctx) error {
	userID, habitID, err := habitRequest(c)
	if err != nil {
		return err
	}
	if err := hc.Habits.Delete(c.UserContext(), userID, habitID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Habit deleted successfully"})
}

// CompleteHabit godoc
// @Summary Mark a habit completed for a day (default today)
// @Description Milestones and growth progress are recomputed in the background and are
// @Description not reflected in this response.
// @Tags habits
// @Accept json
// @Produce json
// @Param id path int true "Habit ID"
// @Param input body CompleteHabitRequest false "Completion date"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /habits/{id}/complete [post]
func (hc *HabitsController) CompleteHabit(c *fiber.Ctx) error {
	userID, habitID, err := habitRequest(c)
	if err != nil {
		return err
	}

	var input CompleteHabitRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return apperrors.Validation("Cannot parse JSON")
		}
	}
	date, err := services.ParseCompletionDate(input.Date, hc.Habits.Loc)
	if err != nil {
		return err
	}

	completion, err := hc.Habits.Complete(c.UserContext(), userID, habitID, services.CompleteInput{
		Date:  date,
		Notes: input.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Habit marked as completed",
		"completion": completion,
	})
}

// GetCompletions godoc
// @Summary List completion dates, oldest first
// @Tags habits
// @Produce json
// @Param id path int true "Habit ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /habits/{id}/completions [get]
func (hc *HabitsController) GetCompletions(c *fiber.Ctx) error {
	userID, habitID, err := habitRequest(c)
	if err != nil {
		return err
	}
	completions, err := hc.Habits.Completions(c.UserContext(), userID, habitID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"completions": completions})
}

// CheckMilestones godoc
// @Summary Recompute the streak and award new milestones now
// @Tags milestones
// @Produce json
// @Param id path int true "Habit ID"
// @Success 200 {object} services.MilestoneCheck
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /habits/{id}/milestones [get]
func (hc *HabitsController) CheckMilestones(c *fiber.Ctx) error {
	userID, habitID, err := habitRequest(c)
	if err != nil {
		return err
	}
	result, err := hc.Awarder.Check(c.UserContext(), userID, habitID)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// GetStats godoc
// @Summary Streak, totals, achievements and next milestone of a habit
// @Tags milestones
// @Produce json
// @Param id path int true "Habit ID"
// @Success 200 {object} services.HabitStats
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /habits/{id}/stats [get]
func (hc *HabitsController) GetStats(c *fiber.Ctx) error {
	userID, habitID, err := habitRequest(c)
	if err != nil {
		return err
	}
	stats, err := hc.Reporter.HabitStats(c.UserContext(), userID, habitID)
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// GetCalendar godoc
// @Summary Completions of a habit for one month
// @Tags milestones
// @Produce json
// @Param id path int true "Habit ID"
// @Param year query int false "Year (default current)"
// @Param month query int false "Month 1-12 (default current)"
// @Success 200 {object} services.HabitCalendar
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /habits/{id}/calendar [get]
func (hc *HabitsController) GetCalendar(c *fiber.Ctx) error {
	userID, habitID, err := habitRequest(c)
	if err != nil {
		return err
	}
	year, err := optionalIntQuery(c, "year")
	if err != nil {
		return err
	}
	month, err := optionalIntQuery(c, "month")
	if err != nil {
		return err
	}
	calendar, err := hc.Reporter.HabitCalendar(c.UserContext(), userID, habitID, year, month)
	if err != nil {
		return err
	}
	return c.JSON(calendar)
}

func habitRequest(c *fiber.Ctx) (uint, uint, error) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return 0, 0, err
	}
	habitID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || habitID == 0 {
		return 0, 0, apperrors.Validation("Invalid habit ID")
	}
	return userID, uint(habitID), nil
}

func optionalIntQuery(c *fiber.Ctx, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Validation("Invalid %s %q", key, raw)
	}
	return n, nil
}
