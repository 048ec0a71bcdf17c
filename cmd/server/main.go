package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tomato_backend/internal/config"
	"tomato_backend/internal/database"
	"tomato_backend/internal/transport/http"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tomato [command]",
	Short: "Tomato location-tagged post backend",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrateUp,
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrateDown,
}

var downSteps int

func init() {
	migrateDownCmd.Flags().IntVarP(&downSteps, "steps", "n", 1, "number of migrations to roll back")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return http.Run(ctx, cfg)
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	return database.MigrateUp(cfg)
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	return database.MigrateDown(cfg, downSteps)
}
