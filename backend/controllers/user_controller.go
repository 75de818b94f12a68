package controllers

import (
	"errors"
	"net/mail"
	"strings"

	"habitgrowth/backend/apperrors"
	"habitgrowth/backend/config"
	"habitgrowth/backend/middleware"
	"habitgrowth/backend/models"
	"habitgrowth/backend/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UserController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewUserController(db *gorm.DB, cfg *config.Config) *UserController {
	return &UserController{DB: db, Cfg: cfg}
}

type UpdateUserRequest struct {
	Username *string `json:"username" example:"john_doe"`
	Email    *string `json:"email" example:"user@example.com"`
}

// GetProfile godoc
// @Summary Get user profile
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/profile [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	user, err := uc.currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(userView(user))
}

// UpdateProfile godoc
// @Summary Update username or email
// @Tags users
// @Accept json
// @Produce json
// @Param input body UpdateUserRequest true "Profile update data"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/profile [put]
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	user, err := uc.currentUser(c)
	if err != nil {
		return err
	}

	var input UpdateUserRequest
	if err := c.BodyParser(&input); err != nil {
		return apperrors.Validation("Cannot parse JSON")
	}

	if input.Username != nil && strings.TrimSpace(*input.Username) != user.Username {
		username := strings.TrimSpace(*input.Username)
		if username == "" {
			return apperrors.Validation("Username cannot be empty")
		}
		if err := uc.ensureFree("username", "Username", username, user.ID); err != nil {
			return err
		}
		user.Username = username
	}

	if input.Email != nil && strings.TrimSpace(*input.Email) != user.Email {
		email := strings.TrimSpace(*input.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			return apperrors.Validation("Invalid email address")
		}
		if err := uc.ensureFree("email", "Email", email, user.ID); err != nil {
			return err
		}
		user.Email = email
	}

	if err := uc.DB.Save(user).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "User profile updated successfully",
		"user":    userView(user),
	})
}

// DeleteProfile godoc
// @Summary Delete the account and everything it owns
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /users/profile [delete]
func (uc *UserController) DeleteProfile(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	if err := services.DeleteUser(c.UserContext(), uc.DB, userID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "User profile deleted successfully"})
}

func (uc *UserController) currentUser(c *fiber.Ctx) (*models.User, error) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, err
	}
	return &user, nil
}

func (uc *UserController) ensureFree(column, label, value string, userID uint) error {
	var count int64
	if err := uc.DB.Model(&models.User{}).
		Where(column+" = ? AND id <> ?", value, userID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperrors.Validation("%s already taken", label)
	}
	return nil
}
