package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"habitgrowth/backend/apperrors"
	"habitgrowth/backend/models"
	"habitgrowth/backend/utils"

	"gorm.io/gorm"
)

// ResetTokenTTL is how long a password reset token stays valid.
const ResetTokenTTL = time.Hour

// PasswordResetService issues single-use reset tokens. Only a hash of the token is
// stored; the plain token is handed to the caller for delivery.
type PasswordResetService struct {
	DB  *gorm.DB
	TTL time.Duration
	Now func() time.Time
}

func NewPasswordResetService(db *gorm.DB) *PasswordResetService {
	return &PasswordResetService{DB: db, TTL: ResetTokenTTL, Now: time.Now}
}

func (s *PasswordResetService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *PasswordResetService) ttl() time.Duration {
	if s.TTL <= 0 {
		return ResetTokenTTL
	}
	return s.TTL
}

// Request issues a token for the account registered under email, replacing any
// earlier one. An unknown email returns an empty token and no error.
func (s *PasswordResetService) Request(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", apperrors.Validation("Email is required")
	}

	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("load user for reset: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	token := hex.EncodeToString(raw)
	hash := hashResetToken(token)
	expiry := s.now().Add(s.ttl())

	err := s.DB.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"reset_token_hash":   hash,
		"reset_token_expiry": expiry,
	}).Error
	if err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}
	return token, nil
}

// Verify returns the user a live token belongs to.
func (s *PasswordResetService) Verify(ctx context.Context, token string) (*models.User, error) {
	return s.userForToken(s.DB.WithContext(ctx), token)
}

// Reset sets a new password for the token's user and consumes the token.
func (s *PasswordResetService) Reset(ctx context.Context, token, newPassword string) error {
	if strings.TrimSpace(token) == "" || newPassword == "" {
		return apperrors.Validation("Token and new password are required")
	}
	if len(newPassword) < utils.MinPasswordLength {
		return apperrors.Validation("Password must be at least %d characters", utils.MinPasswordLength)
	}
	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.userForToken(tx, token)
		if err != nil {
			return err
		}
		res := tx.Model(&models.User{}).
			Where("id = ? AND reset_token_hash = ?", user.ID, hashResetToken(token)).
			Updates(map[string]interface{}{
				"password_hash":      hashed,
				"reset_token_hash":   nil,
				"reset_token_expiry": nil,
			})
		if res.Error != nil {
			return fmt.Errorf("reset password: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.Validation("Invalid or expired reset token")
		}
		return nil
	})
}

func (s *PasswordResetService) userForToken(db *gorm.DB, token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.Validation("Invalid or expired reset token")
	}
	var user models.User
	err := db.Where("reset_token_hash = ?", hashResetToken(token)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Validation("Invalid or expired reset token")
	}
	if err != nil {
		return nil, fmt.Errorf("load reset token: %w", err)
	}
	if user.ResetTokenExpiry == nil || !s.now().Before(*user.ResetTokenExpiry) {
		return nil, apperrors.Validation("Invalid or expired reset token")
	}
	return &user, nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
