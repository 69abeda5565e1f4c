package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/discussion-sync/internal/adapters/driving/webhook"
	"github.com/custodia-labs/discussion-sync/internal/logger"
)

var flagServeAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Receive discussion events over HTTP",
	Long: `Starts a webhook receiver. Point a GitHub webhook for "Discussions"
events at http://<addr>/webhook. Deliveries are verified with the secret
from $DISCUSSION_SYNC_WEBHOOK_SECRET or webhook.secret when one is set,
and applied one at a time.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "listen address (default 127.0.0.1:8787)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	s, err := loadServices()
	if err != nil {
		return err
	}

	h := webhook.NewHandler(s.Syncer, webhook.Options{
		Secret:            cfg.Webhook.Secret,
		RequestsPerSecond: cfg.Webhook.RequestsPerSecond,
		Burst:             cfg.Webhook.Burst,
	})
	srv := webhook.NewServer(cfg.Webhook.Addr, h)
	if err := srv.Start(); err != nil {
		return err
	}

	if cfg.Webhook.Secret == "" {
		logger.Warn("No webhook secret configured; deliveries are not verified")
	}
	cmd.Printf("Listening on %s\n", srv.URL())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var serveErr error
	select {
	case <-ctx.Done():
	case err := <-srv.Err():
		serveErr = fmt.Errorf("webhook server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil && serveErr == nil {
		serveErr = err
	}
	logger.Info("Webhook server stopped")
	return serveErr
}
