package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/config"
	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/provider"
	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the browser application's HTTP API",
	Long: `Run the HTTP API that backs the browser application.

The server accepts media uploads, runs caption generation jobs
asynchronously, and serves job status, active-caption lookups, and
bilingual SRT downloads. Configuration is read from the environment:

  PORT                     listen port (default 8080)
  GEMINI_API_KEY           Gemini API key (required)
  VLINGO_MODEL             Gemini model (default gemini-2.5-flash)
  VLINGO_POLL_INTERVAL     seconds between processing checks (default 2)
  VLINGO_MAX_POLL_ATTEMPTS processing checks before giving up (default 150)
  CORS_ORIGINS             comma-separated allowed origins (default *)`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gemini, err := provider.NewGemini(ctx, cfg.APIKey, cfg.Model)
	if err != nil {
		return fmt.Errorf("failed to create Gemini provider: %w", err)
	}

	srv := server.New(cfg, gemini, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("Server listening", "addr", httpServer.Addr, "model", cfg.Model)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Infow("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}
