package routes

import (
	"log"

	"habitgrowth/backend/config"
	"habitgrowth/backend/controllers"
	"habitgrowth/backend/middleware"
	"habitgrowth/backend/services"
	"habitgrowth/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// NewApp builds the Fiber application with middleware, error handling and routes.
func NewApp(db *gorm.DB, cfg *config.Config, engine *services.Engine, logger *log.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "habit-tracker",
		ErrorHandler: utils.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	SetupRoutes(app, db, cfg, engine)
	return app
}

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, engine *services.Engine) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	resetController := controllers.NewPasswordResetController(engine.PasswordResets, cfg)
	resets := app.Group("/api/password-reset")
	resets.Post("/request", resetController.RequestReset)
	resets.Get("/verify/:token", resetController.VerifyToken)
	resets.Post("/reset", resetController.ResetPassword)

	authMiddleware := middleware.AuthMiddleware(cfg)

	// User routes
	userController := controllers.NewUserController(db, cfg)
	users := app.Group("/api/users", authMiddleware)
	for _, path := range []string{"/", "/profile"} {
		users.Get(path, userController.GetProfile)
		users.Put(path, userController.UpdateProfile)
		users.Delete(path, userController.DeleteProfile)
	}

	// Habit routes
	habitsController := controllers.NewHabitsController(engine.Habits, engine.Awarder, engine.Reporter)
	habits := app.Group("/api/habits", authMiddleware)
	habits.Get("/", habitsController.GetHabits)
	habits.Post("/", habitsController.CreateHabit)
	habits.Put("/:id", habitsController.UpdateHabit)
	habits.Delete("/:id", habitsController.DeleteHabit)
	habits.Post("/:id/complete", habitsController.CompleteHabit)
	habits.Get("/:id/completions", habitsController.GetCompletions)
	habits.Get("/:id/milestones", habitsController.CheckMilestones)
	habits.Get("/:id/stats", habitsController.GetStats)
	habits.Get("/:id/calendar", habitsController.GetCalendar)

	// Progress routes
	progressController := controllers.NewProgressController(engine.Growth)
	progress := app.Group("/api/progress", authMiddleware)
	progress.Get("/", progressController.GetProgress)
	progress.Post("/update", progressController.UpdateProgress)
	progress.Post("/metaphor", progressController.SwitchMetaphor)
	progress.Get("/milestones/:metaphorType", progressController.GetMilestones)

	// Notification routes
	notificationController := controllers.NewNotificationController(engine.Notifications)
	notifications := app.Group("/api/notifications", authMiddleware)
	notifications.Get("/preferences", notificationController.GetPreferences)
	notifications.Put("/preferences", notificationController.UpdatePreferences)
	notifications.Post("/test", notificationController.TestNotification)
	notifications.Get("/users-for-reminders", notificationController.GetUsersForReminders)
}
