// filevault serves the deduplicating file vault API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"file-vault-api/config"
	"file-vault-api/internal"
	"file-vault-api/internal/infrastructure/logger"
)

var envFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           "filevault",
		Short:         "Deduplicating per-user file vault",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply the database schema",
			RunE:  runMigrate,
		},
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "filevault:", err)
		os.Exit(1)
	}
}

// setup loads the env file, then the config, then the logger.
func setup() (config.Config, *zap.Logger, error) {
	// a missing file is fine, the environment may already be set
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, fmt.Errorf("invalid config: %w", err)
	}

	l, err := logger.New(cfg.Log)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("cannot initialize zap logger: %w", err)
	}

	return cfg, l, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, l, err := setup()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := internal.NewApp(ctx, cfg, l)
	if err != nil {
		l.Error("init app failed", zap.Error(err))
		_ = l.Sync()
		return err
	}
	defer app.Close()

	app.InitControllers()

	if err = app.Run(ctx); err != nil {
		app.Logger().Sugar().Errorf("filevault stopped with error: %v", err)
		return err
	}

	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, l, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	if cfg.DB.Driver != config.DriverPostgres {
		return fmt.Errorf("migrate needs DB_DRIVER=%s, got %q", config.DriverPostgres, cfg.DB.Driver)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	return internal.Migrate(ctx, cfg, l)
}
