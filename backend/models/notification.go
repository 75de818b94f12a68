package models

// NotificationPreference holds a user's reminder settings. ReminderTime is a
// wall-clock time (HH:MM:SS) in Timezone.
type NotificationPreference struct {
	Model
	UserID                 uint   `gorm:"not null;uniqueIndex" json:"user_id"`
	BrowserNotifications   bool   `gorm:"not null" json:"browser_notifications"`
	EmailNotifications     bool   `gorm:"not null" json:"email_notifications"`
	ReminderTime           string `gorm:"size:8;not null" json:"reminder_time"`
	Timezone               string `gorm:"size:50;not null" json:"timezone"`
	DailyReminder          bool   `gorm:"not null" json:"daily_reminder"`
	MilestoneNotifications bool   `gorm:"not null" json:"milestone_notifications"`
}
