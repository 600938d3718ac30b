package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alexa-chat-bridge/internal/app"
	"alexa-chat-bridge/internal/config"
	"alexa-chat-bridge/internal/logging"
	"alexa-chat-bridge/internal/server"
)

var (
	port     string
	envFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "alexa-chat-server",
	Short: "Serve the Alexa chat skill endpoint over HTTP",
	Long: `Runs the HTTP endpoint an Alexa custom skill posts its requests to.
Each ChatIntent utterance is forwarded to an OpenAI-compatible chat model
along with the session's recent conversation.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&port, "port", "", "Listen port (overrides PORT)")
	rootCmd.Flags().StringVar(&envFile, "env-file", "", "Load variables from this .env file instead of ./.env")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	var cfg config.Config
	if envFile != "" {
		cfg = config.Load(envFile)
	} else {
		cfg = config.Load()
	}
	if port != "" {
		cfg.Port = port
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl, err := app.NewController(ctx, cfg, logger, app.SSMParams)
	if err != nil {
		logger.Error("failed to configure dialogue", zap.Error(err))
		return err
	}
	s, err := server.NewServer(cfg, ctrl, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("alexa chat server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
