// Package testutil provides a throwaway sqlite store for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"habitgrowth/backend/models"
	"habitgrowth/backend/utils"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB opens a migrated sqlite database in t's temp dir.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "habits.db")
	db, err := gorm.Open(sqlite.Open(utils.SQLiteDSN(path)), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, utils.MigrateDB(db))
	return db
}

// CreateUser inserts a user with a placeholder password hash.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		AvatarLevel:  1,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateHabit inserts an active daily habit owned by userID.
func CreateHabit(t *testing.T, db *gorm.DB, userID uint, name string) *models.Habit {
	t.Helper()
	habit := &models.Habit{
		UserID:          userID,
		Name:            name,
		Category:        "General",
		DifficultyLevel: 1,
		TargetFrequency: "daily",
		IsActive:        true,
	}
	require.NoError(t, db.Create(habit).Error)
	return habit
}
