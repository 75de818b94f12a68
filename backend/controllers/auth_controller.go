package controllers

import (
	"errors"
	"net/mail"
	"strings"

	"habitgrowth/backend/apperrors"
	"habitgrowth/backend/config"
	"habitgrowth/backend/models"
	"habitgrowth/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuthController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewAuthController(db *gorm.DB, cfg *config.Config) *AuthController {
	return &AuthController{DB: db, Cfg: cfg}
}

type RegisterRequest struct {
	Username string `json:"username" example:"john_doe"`
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"password123" minLength:"8"`
}

// LoginRequest identifies the user by email or, failing that, by username.
type LoginRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "User registration data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Router /auth/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input RegisterRequest
	if err := c.BodyParser(&input); err != nil {
		return apperrors.Validation("Cannot parse JSON")
	}
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	if input.Username == "" || input.Email == "" || input.Password == "" {
		return apperrors.Validation("Username, email and password are required")
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return apperrors.Validation("Invalid email address")
	}
	if len(input.Password) < utils.MinPasswordLength {
		return apperrors.Validation("Password must be at least %d characters", utils.MinPasswordLength)
	}

	var taken int64
	if err := ac.DB.Model(&models.User{}).
		Where("username = ? OR email = ?", input.Username, input.Email).
		Count(&taken).Error; err != nil {
		return err
	}
	if taken > 0 {
		return apperrors.Validation("User already exists")
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return err
	}
	user := models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashed,
		AvatarLevel:  1,
	}
	if err := ac.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Validation("User already exists")
		}
		return err
	}

	token, err := utils.GenerateJWTToken(user.ID, ac.Cfg)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  userView(&user),
	})
}

// Login godoc
// @Summary User login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input LoginRequest
	if err := c.BodyParser(&input); err != nil {
		return apperrors.Validation("Cannot parse JSON")
	}

	identifier := strings.TrimSpace(input.Email)
	if identifier == "" {
		identifier = strings.TrimSpace(input.Username)
	}
	if identifier == "" || input.Password == "" {
		return apperrors.Validation("Email and password are required")
	}

	var user models.User
	if err := ac.DB.Where("email = ? OR username = ?", identifier, identifier).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Unauthorized("Invalid credentials")
		}
		return err
	}

	if !utils.CheckPassword(user.PasswordHash, input.Password) {
		return apperrors.Unauthorized("Invalid credentials")
	}

	token, err := utils.GenerateJWTToken(user.ID, ac.Cfg)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  userView(&user),
	})
}

func userView(user *models.User) fiber.Map {
	return fiber.Map{
		"id":           user.ID,
		"username":     user.Username,
		"email":        user.Email,
		"avatar_level": user.AvatarLevel,
		"total_xp":     user.TotalXP,
		"created_at":   user.CreatedAt,
	}
}
