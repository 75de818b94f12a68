package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"habitgrowth/backend/config"
	"habitgrowth/backend/routes"
	"habitgrowth/backend/services"
	"habitgrowth/backend/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var refNow = time.Date(2024, time.May, 15, 12, 0, 0, 0, time.UTC)

type testServer struct {
	app    *fiber.App
	db     *gorm.DB
	engine *services.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewDB(t)
	_, err := services.SeedGrowthMilestones(context.Background(), db)
	require.NoError(t, err)

	cfg := &config.Config{JWTSecret: "testsecret", TokenTTL: time.Hour, AppEnv: "development"}
	engine := services.NewEngine(db, services.EngineOptions{
		Location:  time.UTC,
		QueueSize: 64,
		Now:       func() time.Time { return refNow },
	})
	logger := log.New(io.Discard, "", 0)
	return &testServer{
		app:    routes.NewApp(db, cfg, engine, logger),
		db:     db,
		engine: engine,
	}
}

// do sends a JSON request and decodes the JSON response body, if any.
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var result map[string]interface{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &result))
	}
	return resp.StatusCode, result
}

func (s *testServer) register(t *testing.T, username string) string {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	token, ok := body["token"].(string)
	require.True(t, ok)
	return token
}

func (s *testServer) createHabit(t *testing.T, token, name string) uint {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/habits", token, map[string]interface{}{
		"name":             name,
		"category":         "Health",
		"difficulty_level": 2,
		"target_frequency": "daily",
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	habit := body["habit"].(map[string]interface{})
	return uint(habit["id"].(float64))
}
