package controllers

import (
	"habitgrowth/backend/apperrors"
	"habitgrowth/backend/config"
	"habitgrowth/backend/services"

	"github.com/gofiber/fiber/v2"
)

const resetRequestedMessage = "If an account with that email exists, a password reset link has been sent."

type PasswordResetController struct {
	Resets *services.PasswordResetService
	Cfg    *config.Config
}

func NewPasswordResetController(resets *services.PasswordResetService, cfg *config.Config) *PasswordResetController {
	return &PasswordResetController{Resets: resets, Cfg: cfg}
}

type PasswordResetRequest struct {
	Email string `json:"email" example:"user@example.com"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword" minLength:"8"`
}

// RequestReset godoc
// @Summary Request a password reset token
// @Description The answer is the same whether or not the email is registered.
// @Tags auth
// @Accept json
// @Produce json
// @Param input body PasswordResetRequest true "Account email"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Router /password-reset/request [post]
func (pc *PasswordResetController) RequestReset(c *fiber.Ctx) error {
	var input PasswordResetRequest
	if err := c.BodyParser(&input); err != nil {
		return apperrors.Validation("Cannot parse JSON")
	}
	token, err := pc.Resets.Request(c.UserContext(), input.Email)
	if err != nil {
		return err
	}

	response := fiber.Map{"message": resetRequestedMessage}
	if token != "" && pc.Cfg.AppEnv == "development" {
		response["resetToken"] = token
	}
	return c.JSON(response)
}

// VerifyToken godoc
// @Summary Check that a reset token is live
// @Tags auth
// @Produce json
// @Param token path string true "Reset token"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Router /password-reset/verify/{token} [get]
func (pc *PasswordResetController) VerifyToken(c *fiber.Ctx) error {
	user, err := pc.Resets.Verify(c.UserContext(), c.Params("token"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Token is valid", "email": user.Email})
}

// ResetPassword godoc
// @Summary Set a new password with a reset token
// @Tags auth
// @Accept json
// @Produce json
// @Param input body ResetPasswordRequest true "Token and new password"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Router /password-reset/reset [post]
func (pc *PasswordResetController) ResetPassword(c *fiber.Ctx) error {
	var input ResetPasswordRequest
	if err := c.BodyParser(&input); err != nil {
		return apperrors.Validation("Cannot parse JSON")
	}
	if err := pc.Resets.Reset(c.UserContext(), input.Token, input.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Password has been reset successfully"})
}
