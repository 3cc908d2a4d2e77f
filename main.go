package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rlsguard/stats-service/internal/app"
	"github.com/rlsguard/stats-service/internal/config"
	"github.com/rlsguard/stats-service/internal/database"
	"github.com/rlsguard/stats-service/pkg/logger"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		runMigrations(os.Args[2:])
		return
	}

	bootLog := logger.New()

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.NewWithConfig(cfg.Logging.Level, cfg.Logging.Pretty, cfg.Logging.NoColor)

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("Stats service stopped unexpectedly")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown gracefully")
	}
}

type migrateCommand struct {
	direction string
	version   int
}

// parseMigrateArgs reads "[up|down]" or "force <version>".
func parseMigrateArgs(args []string) (migrateCommand, error) {
	if len(args) == 0 {
		return migrateCommand{direction: "up"}, nil
	}

	switch args[0] {
	case "up", "down":
		return migrateCommand{direction: args[0]}, nil
	case "force":
		if len(args) < 2 {
			return migrateCommand{}, errors.New("force requires a version")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return migrateCommand{}, fmt.Errorf("invalid migration version %q: %w", args[1], err)
		}
		return migrateCommand{direction: "force", version: version}, nil
	default:
		return migrateCommand{}, fmt.Errorf("invalid migration direction %q, use 'up', 'down' or 'force <version>'", args[0])
	}
}

func runMigrations(args []string) {
	log := logger.New()

	cmd, err := parseMigrateArgs(args)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid migrate command")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	migrator, err := database.NewMigrator(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create migrator")
	}

	switch cmd.direction {
	case "up":
		if err := migrator.Up(); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
		log.Info().Msg("Migrations applied successfully")
	case "down":
		if err := migrator.Down(); err != nil {
			log.Fatal().Err(err).Msg("Failed to rollback migrations")
		}
		log.Info().Msg("Migrations rolled back successfully")
	case "force":
		// Clears the dirty flag after a failed migration was repaired by hand.
		if err := migrator.Force(cmd.version); err != nil {
			log.Fatal().Err(err).Msg("Failed to force migration version")
		}
		log.Info().Int("version", cmd.version).Msg("Migration version forced")
	}
}
