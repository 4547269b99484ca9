package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rajmohan-121/Ai-Tool-Finder/internal/app"
	"github.com/rajmohan-121/Ai-Tool-Finder/internal/config"
	"github.com/rajmohan-121/Ai-Tool-Finder/pkg/logger"
)

var version = "dev" // set by the linker

// cli carries state shared by every command once the root pre-run loaded it.
type cli struct {
	cfg *config.Config
	log *slog.Logger
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	serveCmd := newServeCmd(c)
	root := &cobra.Command{
		Use:   "toolfinder",
		Short: "AI tool directory backend",
		Long: `toolfinder serves the AI tool directory API: a public catalog with
filters, review submission, and an admin area for tool management and review
moderation. Running without a subcommand starts the HTTP server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				slog.Error("failed to load config", slog.String("error", err.Error()))
				return err
			}
			c.cfg = cfg
			c.log = logger.New(config.ServiceName, cfg.LogLevel)
			return nil
		},
		RunE: serveCmd.RunE,
	}

	root.AddCommand(serveCmd, newMigrateCmd(c), newSeedCmd(c), newAdminCmd(c))
	return root
}

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.log.Info("starting toolfinder service",
				slog.String("environment", c.cfg.Environment),
				slog.String("version", version),
				slog.Int("http_port", c.cfg.HTTPPort),
			)

			application, err := app.NewApp(c.cfg, c.log)
			if err != nil {
				c.log.Error("failed to initialize application", slog.String("error", err.Error()))
				return err
			}

			if err := application.Run(cmd.Context()); err != nil {
				c.log.Error("application error", slog.String("error", err.Error()))
				return err
			}

			c.log.Info("toolfinder service stopped")
			return nil
		},
	}
}

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			applied, err := app.Migrate(ctx, c.cfg, c.log)
			if err != nil {
				c.log.Error("migration failed", slog.String("error", err.Error()))
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", len(applied))
			return nil
		},
	}
}

func newSeedCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the starter tool catalog",
		Long:  "Creates every starter tool whose name is not in the directory yet. Safe to run repeatedly.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			created, err := app.Seed(ctx, c.cfg, c.log)
			if err != nil {
				c.log.Error("seed failed", slog.String("error", err.Error()))
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d tool(s)\n", created)
			return nil
		},
	}
}

func newAdminCmd(c *cli) *cobra.Command {
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}

	var email, password string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator if the email is not taken",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			created, err := app.CreateAdmin(ctx, c.cfg, c.log, email, password)
			if err != nil {
				c.log.Error("create admin failed", slog.String("error", err.Error()))
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "admin %s created\n", email)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "admin %s already exists\n", email)
			}
			return nil
		},
	}
	createCmd.Flags().StringVar(&email, "email", "", "administrator email")
	createCmd.Flags().StringVar(&password, "password", "", "administrator password (at most 72 bytes)")
	_ = createCmd.MarkFlagRequired("email")
	_ = createCmd.MarkFlagRequired("password")

	adminCmd.AddCommand(createCmd)
	return adminCmd
}
