// Package main provides the livechat server executable: the REST API and the
// STOMP-over-WebSocket endpoint on one listener.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/coregx/livechat"
	"github.com/coregx/livechat/adapters/jwtauth"
	"github.com/coregx/livechat/adapters/relica"
	"github.com/coregx/livechat/cmd/livechat-server/internal/config"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:          "livechat-server",
		Short:        "Marketplace buyer/seller chat server",
		Version:      version,
		SilenceUsage: true,
		RunE:         runServe,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and WebSocket endpoint",
		RunE:  runServe,
	}

	var down bool
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply (or with --down, roll back) the chat schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(down)
		},
	}
	migrateCmd.Flags().BoolVar(&down, "down", false, "roll back every migration")

	var (
		userID int64
		role   string
		ttl    string
	)
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for local testing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runToken(cmd, userID, role, ttl)
		},
	}
	tokenCmd.Flags().Int64VarP(&userID, "user", "u", 0, "user id carried by the token (required)")
	tokenCmd.Flags().StringVarP(&role, "role", "r", "", "role claim (BUYER or SELLER)")
	tokenCmd.Flags().StringVar(&ttl, "ttl", "", "token lifetime, e.g. 30m (default AUTH_TOKEN_TTL)")
	_ = tokenCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMigrate(down bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log)

	if down {
		if err := relica.Rollback(cfg.Database.Driver, cfg.Database.GetDSN()); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		logger.Info("Chat schema rolled back")
		return nil
	}

	if err := relica.Migrate(cfg.Database.Driver, cfg.Database.GetDSN()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Chat schema is up to date")
	return nil
}

func runToken(cmd *cobra.Command, userID int64, role, rawTTL string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ttl := cfg.Auth.TokenTTL
	if rawTTL != "" {
		if ttl, err = parsePositiveDuration(rawTTL); err != nil {
			return err
		}
	}

	validator, err := jwtauth.NewValidator(cfg.Auth.JWTSecret, jwtauth.WithIssuer(cfg.Auth.Issuer))
	if err != nil {
		return err
	}
	token, err := validator.Issue(userID, role, ttl)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}

// newLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func newLogger(cfg config.LogConfig) *livechat.SlogLogger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return livechat.NewSlogLogger(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
