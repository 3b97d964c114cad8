package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/topi314/clubagenda/server"
	"github.com/topi314/clubagenda/server/auth"
	"github.com/topi314/clubagenda/server/database"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:          "clubagenda",
		Short:        "Club meeting agenda and role booking server",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.toml", "path to the config file")

	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Manage user sessions",
	}
	sessionCmd.AddCommand(sessionIssueCommand())

	rootCmd.AddCommand(serveCommand(), migrateCommand(), sessionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (server.Config, error) {
	cfg, err := server.LoadConfig(configPath)
	if err != nil {
		return server.Config{}, err
	}
	server.SetupLogger(cfg.Log)
	return cfg, nil
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the http server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			slog.Info("Starting clubagenda", slog.String("config", configPath))
			slog.Debug("Config loaded", slog.String("config", cfg.String()))

			srv, err := server.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			srv.Start()
			defer srv.Stop()

			s := make(chan os.Signal, 1)
			signal.Notify(s, syscall.SIGTERM, syscall.SIGINT)
			<-s
			slog.Info("Shutting down")
			return nil
		},
	}
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := database.New(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			slog.Info("Database migrated", slog.String("driver", string(cfg.Database.Driver)))
			return db.Close()
		},
	}
}

func sessionIssueCommand() *cobra.Command {
	var clubID int
	cmd := &cobra.Command{
		Use:   "issue <username>",
		Short: "Create a session for a user and print its cookie",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := database.New(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()

			return issueSession(ctx, cfg.Session, db, args[0], clubID)
		},
	}
	cmd.Flags().IntVar(&clubID, "club", 0, "club the session starts in, defaults to the user's home club")
	return cmd
}

func issueSession(ctx context.Context, cfg auth.Config, db *database.Database, username string, clubID int) error {
	user, err := db.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to find user %q: %w", username, err)
	}

	var club *int
	if clubID > 0 {
		club = &clubID
	}

	sessions := auth.NewSessions(cfg, db)
	session, err := sessions.Issue(ctx, &user.ID, club)
	if err != nil {
		return err
	}

	cookie := sessions.Cookie(*session)
	fmt.Printf("%s=%s\n", cookie.Name, cookie.Value)
	return nil
}
