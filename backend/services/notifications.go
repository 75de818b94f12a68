package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // reminder zones must resolve without a system zoneinfo

	"habitgrowth/backend/apperrors"
	"habitgrowth/backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultReminderTime     = "09:00:00"
	DefaultReminderTimezone = "UTC"
)

// NotificationService stores reminder preferences and answers which users are due a
// reminder. Delivery itself happens outside this service.
type NotificationService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{DB: db, Now: time.Now}
}

// NotificationPatch carries optional updates; nil fields are left untouched.
type NotificationPatch struct {
	BrowserNotifications   *bool   `json:"browser_notifications"`
	EmailNotifications     *bool   `json:"email_notifications"`
	ReminderTime           *string `json:"reminder_time" example:"07:30"`
	Timezone               *string `json:"timezone" example:"Europe/Berlin"`
	DailyReminder          *bool   `json:"daily_reminder"`
	MilestoneNotifications *bool   `json:"milestone_notifications"`
}

type ReminderRecipient struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (s *NotificationService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Preferences returns the user's settings, creating the defaults on first access.
func (s *NotificationService) Preferences(ctx context.Context, userID uint) (*models.NotificationPreference, error) {
	return loadOrCreatePreference(s.DB.WithContext(ctx), userID)
}

// UpdatePreferences validates patch and applies it, creating the defaults first when
// the user has no settings yet.
func (s *NotificationService) UpdatePreferences(ctx context.Context, userID uint, patch NotificationPatch) (*models.NotificationPreference, error) {
	var reminderTime, timezone string
	if patch.ReminderTime != nil {
		normalized, err := NormalizeReminderTime(*patch.ReminderTime)
		if err != nil {
			return nil, err
		}
		reminderTime = normalized
	}
	if patch.Timezone != nil {
		timezone = strings.TrimSpace(*patch.Timezone)
		if _, err := time.LoadLocation(timezone); err != nil || timezone == "" || timezone == "Local" {
			return nil, apperrors.Validation("Unknown timezone %q", *patch.Timezone)
		}
	}

	var result *models.NotificationPreference
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pref, err := loadOrCreatePreference(tx, userID)
		if err != nil {
			return err
		}
		if patch.BrowserNotifications != nil {
			pref.BrowserNotifications = *patch.BrowserNotifications
		}
		if patch.EmailNotifications != nil {
			pref.EmailNotifications = *patch.EmailNotifications
		}
		if reminderTime != "" {
			pref.ReminderTime = reminderTime
		}
		if timezone != "" {
			pref.Timezone = timezone
		}
		if patch.DailyReminder != nil {
			pref.DailyReminder = *patch.DailyReminder
		}
		if patch.MilestoneNotifications != nil {
			pref.MilestoneNotifications = *patch.MilestoneNotifications
		}
		if err := tx.Save(pref).Error; err != nil {
			return fmt.Errorf("save notification preferences: %w", err)
		}
		result = pref
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UsersForReminders lists users with daily browser reminders whose reminder time,
// read in their own time zone, falls in the current minute.
func (s *NotificationService) UsersForReminders(ctx context.Context) ([]ReminderRecipient, error) {
	var rows []struct {
		UserID       uint
		Username     string
		Email        string
		ReminderTime string
		Timezone     string
	}
	err := s.DB.WithContext(ctx).
		Table("notification_preferences AS np").
		Select("np.user_id, u.username, u.email, np.reminder_time, np.timezone").
		Joins("JOIN users u ON u.id = np.user_id AND u.deleted_at IS NULL").
		Where("np.deleted_at IS NULL AND np.daily_reminder = ? AND np.browser_notifications = ?", true, true).
		Order("np.user_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load reminder preferences: %w", err)
	}

	now := s.now()
	due := []ReminderRecipient{}
	for _, row := range rows {
		loc, err := time.LoadLocation(row.Timezone)
		if err != nil {
			loc = time.UTC
		}
		if len(row.ReminderTime) < 5 || row.ReminderTime[:5] != now.In(loc).Format("15:04") {
			continue
		}
		due = append(due, ReminderRecipient{ID: row.UserID, Username: row.Username, Email: row.Email})
	}
	return due, nil
}

// TestNotification validates a test request and returns the confirmation text. No
// notification is sent.
func (s *NotificationService) TestNotification(kind, message string) (string, error) {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = "browser"
	}
	if kind != "browser" && kind != "email" {
		return "", apperrors.Validation("Unknown notification type %q", kind)
	}
	if strings.TrimSpace(message) == "" {
		message = "This is a test notification"
	}
	return fmt.Sprintf("Test %s notification sent: %s", kind, message), nil
}

// NormalizeReminderTime accepts HH:MM or HH:MM:SS and returns HH:MM:SS.
func NormalizeReminderTime(value string) (string, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("15:04:05"), nil
		}
	}
	return "", apperrors.Validation("Invalid reminder time %q, expected HH:MM", value)
}

func loadOrCreatePreference(db *gorm.DB, userID uint) (*models.NotificationPreference, error) {
	var pref models.NotificationPreference
	err := db.Where("user_id = ?", userID).First(&pref).Error
	if err == nil {
		return &pref, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load notification preferences: %w", err)
	}

	pref = models.NotificationPreference{
		UserID:                 userID,
		BrowserNotifications:   true,
		EmailNotifications:     false,
		ReminderTime:           DefaultReminderTime,
		Timezone:               DefaultReminderTimezone,
		DailyReminder:          true,
		MilestoneNotifications: true,
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&pref).Error
	if err != nil {
		return nil, fmt.Errorf("create notification preferences: %w", err)
	}

	var stored models.NotificationPreference
	if err := db.Where("user_id = ?", userID).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("reload notification preferences: %w", err)
	}
	return &stored, nil
}
