package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/danicaoo/musicShop/internal/api"
	"github.com/danicaoo/musicShop/internal/auth"
	"github.com/danicaoo/musicShop/internal/db"
	"github.com/danicaoo/musicShop/internal/logging"
	"github.com/danicaoo/musicShop/internal/store"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd)
		},
	}
	cmd.Flags().StringP("addr", "a", "", "listen address (default: :8080)")
	return cmd
}

func (a *app) serve(cmd *cobra.Command) error {
	cfg := a.cfg
	ctx := cmd.Context()

	// Auto-init on first run.
	if _, err := os.Stat(cfg.Database.Path); errors.Is(err, fs.ErrNotExist) {
		database, password, err := initDatabase(ctx, cfg.Database.Path, cfg.Auth.AdminUser)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		database.Close()

		printInitResult(cmd.OutOrStdout(), cfg.Database.Path, cfg.Auth.AdminUser, password)
		fmt.Fprintln(cmd.OutOrStdout())
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	logging.Info().Str("path", cfg.Database.Path).Msg("database ready")

	secret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("loading token secret: %w", err)
	}
	tokens, err := auth.NewTokens(secret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	handler := api.NewRouter(api.Options{
		DB:            database,
		Tokens:        tokens,
		CORSOrigins:   cfg.CORS.AllowedOrigins,
		LoginRequests: cfg.RateLimit.LoginRequests,
		LoginWindow:   cfg.RateLimit.LoginWindow,
		Metrics:       cfg.Metrics.Enabled,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	logging.Info().Str("addr", cfg.Server.Addr).Msg("server started")
	if err := serveUntilSignal(server, quit, cfg.Server.ShutdownTimeout); err != nil {
		return err
	}

	logging.Info().Msg("server stopped, closing database")
	return nil
}

// serveUntilSignal runs server until a signal arrives on quit, then shuts it
// down within timeout. When the listener fails, quit is stopped and closed
// so the shutdown goroutine exits too.
func serveUntilSignal(server *http.Server, quit chan os.Signal, timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		sig, ok := <-quit
		if !ok {
			return
		}
		logging.Info().Str("signal", sig.String()).Msg("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logging.Error().Err(err).Msg("server forced to shutdown")
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		signal.Stop(quit)
		close(quit)
		<-done
		return fmt.Errorf("serving: %w", err)
	}
	<-done
	return nil
}
