package main

import (
	"os"

	"phone_auth/internal/config"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		Long:  `Create the users table and its unique phone constraint if they do not exist.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	logger, err := config.NewLogger(cfg, os.Stdout)
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	ctx := cmd.Context()
	pool, err := config.ConnectDB(ctx, &cfg.DB, logger)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	if err := config.AutoMigrate(ctx, pool, logger); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "apply schema").Wrap(err)
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
