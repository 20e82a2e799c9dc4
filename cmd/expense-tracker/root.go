package main

import (
	"fmt"
	"log/slog"
	"os"

	"expense-tracker/internal/config"
	"expense-tracker/internal/database"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	gormlogger "gorm.io/gorm/logger"
)

// app carries what every subcommand needs once the root command has run
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "expense-tracker",
		Short:        "Personal expense tracker API and maintenance tools",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newMigrateCmd(a))
	cmd.AddCommand(newStatsCmd(a))
	cmd.AddCommand(newImportCmd(a))

	return cmd
}

func (a *app) init() error {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	a.cfg = cfg
	a.logger = newLogger(cfg)
	slog.SetDefault(a.logger)

	return nil
}

// newLogger writes JSON in production and text elsewhere, at LOG_LEVEL
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Server.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// openDB connects without running migrations
func (a *app) openDB() (*database.DB, error) {
	logLevel := gormlogger.Warn
	if a.cfg.IsDevelopment() {
		logLevel = gormlogger.Info
	}

	db, err := database.New(&a.cfg.Database, logLevel)
	if err != nil {
		return nil, err
	}
	return db, nil
}
