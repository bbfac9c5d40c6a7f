package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command. Running it without a subcommand starts the server.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phone-auth",
		Short: "Phone number registration and login API",
		Long: `phone-auth serves the /api/auth endpoints: register, login and logout
with bcrypt-hashed passwords and JWT bearer tokens.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  `Connect to PostgreSQL, apply the schema and serve the HTTP API until SIGINT or SIGTERM.`,
		RunE:  runServe,
	}
}
