package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"habitgrowth/backend/config"
	"habitgrowth/backend/routes"
	"habitgrowth/backend/services"
	"habitgrowth/backend/utils"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate, seed and start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, db, err := bootstrap()
		if err != nil {
			return err
		}
		if err := prepareStore(cmd.Context(), db, logger); err != nil {
			return err
		}

		engine := services.NewEngine(db, services.EngineOptions{
			Catalog:   services.DefaultMilestoneCatalog(),
			Location:  cfg.Location(),
			QueueSize: cfg.RecomputeQueueSize,
		})
		engine.Queue.Start(cfg.RecomputeWorkers)
		go func() {
			for err := range engine.Queue.Errors() {
				logger.Printf("recompute failed: %v", err)
			}
		}()

		app := routes.NewApp(db, cfg, engine, logger)

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-stop
			logger.Println("shutting down")
			if err := app.Shutdown(); err != nil {
				logger.Printf("shutdown: %v", err)
			}
		}()

		logger.Printf("server starting on port %s", cfg.ServerPort)
		if err := app.Listen(":" + cfg.ServerPort); err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return engine.Queue.Close()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logger, db, err := bootstrap()
		if err != nil {
			return err
		}
		if err := utils.MigrateDB(db); err != nil {
			return err
		}
		logger.Println("migrations applied")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the growth milestone catalog if it is empty",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logger, db, err := bootstrap()
		if err != nil {
			return err
		}
		return prepareStore(cmd.Context(), db, logger)
	},
}

func bootstrap() (*config.Config, *log.Logger, *gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger := utils.InitLogger(utils.LoggerConfig{
		Format:       cfg.LogFormat,
		File:         cfg.LogFile,
		EnableColors: isatty.IsTerminal(os.Stdout.Fd()),
	})

	db, err := utils.InitDB(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init database: %w", err)
	}
	logger.Printf("database initialized (%s)", cfg.DBDriver)
	return cfg, logger, db, nil
}

func prepareStore(ctx context.Context, db *gorm.DB, logger *log.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := utils.MigrateDB(db); err != nil {
		return err
	}
	seeded, err := services.SeedGrowthMilestones(ctx, db)
	if err != nil {
		return err
	}
	if seeded > 0 {
		logger.Printf("growth milestones seeded (%d rows)", seeded)
	} else {
		logger.Println("growth milestones already exist, skipping seed")
	}
	return nil
}
