package controllers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationPreferencesEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "alice")

	status, body := s.do(t, http.MethodGet, "/api/notifications/preferences", token, nil)
	require.Equal(t, fiber.StatusOK, status, body)
	prefs := body["data"].(map[string]interface{})
	assert.Equal(t, true, prefs["browser_notifications"])
	assert.Equal(t, false, prefs["email_notifications"])
	assert.Equal(t, "09:00:00", prefs["reminder_time"])
	assert.Equal(t, "UTC", prefs["timezone"])

	status, body = s.do(t, http.MethodPut, "/api/notifications/preferences", token, map[string]interface{}{
		"reminder_time":       "12:00",
		"email_notifications": true,
	})
	require.Equal(t, fiber.StatusOK, status, body)
	prefs = body["data"].(map[string]interface{})
	assert.Equal(t, "12:00:00", prefs["reminder_time"])
	assert.Equal(t, true, prefs["email_notifications"])
	assert.Equal(t, true, prefs["daily_reminder"])

	status, _ = s.do(t, http.MethodPut, "/api/notifications/preferences", token, map[string]interface{}{
		"timezone": "Nowhere/Special",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodGet, "/api/notifications/preferences", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestUsersForRemindersEndpoint(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")

	// The test clock reads 12:00 UTC.
	status, _ := s.do(t, http.MethodPut, "/api/notifications/preferences", alice, map[string]interface{}{
		"reminder_time": "12:00",
	})
	require.Equal(t, fiber.StatusOK, status)
	status, _ = s.do(t, http.MethodGet, "/api/notifications/preferences", bob, nil)
	require.Equal(t, fiber.StatusOK, status)

	users, err := s.engine.Notifications.UsersForReminders(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)

	status, _ = s.do(t, http.MethodGet, "/api/notifications/users-for-reminders", alice, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestNotificationTestEndpoint(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "alice")

	status, body := s.do(t, http.MethodPost, "/api/notifications/test", token, map[string]string{
		"type": "email", "message": "hello",
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Test email notification sent: hello", body["message"])

	status, body = s.do(t, http.MethodPost, "/api/notifications/test", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Test browser notification sent: This is a test notification", body["message"])

	status, _ = s.do(t, http.MethodPost, "/api/notifications/test", token, map[string]string{"type": "pager"})
	assert.Equal(t, fiber.StatusBadRequest, status)
}
