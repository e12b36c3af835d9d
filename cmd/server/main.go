package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/yukikurage/taskroom/internal/config"
	"github.com/yukikurage/taskroom/internal/database"
	"github.com/yukikurage/taskroom/internal/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "taskroom",
		Short:         "Task board API with meetings and organizations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if port != "" {
				cfg.HTTP.Port = port
			}
			gin.SetMode(cfg.App.GinMode)

			srv, err := server.New(cfg)
			if err != nil {
				return fmt.Errorf("server init: %w", err)
			}
			defer func() {
				if err := srv.Close(); err != nil {
					log.Printf("close: %v", err)
				}
			}()

			return srv.Run()
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "HTTP port (overrides HTTP_PORT)")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|status]",
		Short: "Apply, roll back or inspect database migrations",
		Long: `Manage the database schema.

  up      create tables and apply versioned migrations (default)
  down    roll back the last versioned migration (postgres only)
  status  print the applied state of versioned migrations (postgres only)`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = args[0]
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			db, err := database.Connect(cfg.DB)
			if err != nil {
				return err
			}
			defer database.Close(db)

			switch action {
			case "up":
				return database.Migrate(db)
			case "down":
				return database.RollbackVersioned(db)
			case "status":
				return database.VersionedStatus(db)
			default:
				return fmt.Errorf("unknown migrate action %q (want up, down or status)", action)
			}
		},
	}
}
