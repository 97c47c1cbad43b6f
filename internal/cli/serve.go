package cli

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

	"aigateway/internal/config"
	"aigateway/internal/endpoint"
	"aigateway/internal/httpapi"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	var (
		addr  string
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket API",
		Long: `Start the gateway API server.

Routes:
  POST   /v1/query                   ask a question
  GET    /v1/sessions/{id}/messages  chat history
  DELETE /v1/sessions/{id}/messages  clear chat
  POST   /v1/files                   register extracted file text
  GET    /v1/status                  connection status
  POST   /v1/connection/retry        drop caches and re-probe
  GET    /v1/chat/ws                 websocket chat

A background job re-probes candidate endpoints before the active one goes
stale. With --watch the config file is watched and candidate changes apply
without a restart.`,
		Example: `  aigateway serve --addr :8080
  AIGW_CONFIG=/etc/aigateway.yaml aigateway serve --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts, addr, watch)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", os.Getenv("AIGW_ADDR"), "HTTP listen address, e.g. :8080 (default from config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Reload candidate endpoints when the config file changes")
	return cmd
}

func runServe(cmd *cobra.Command, opts *options, addr string, watch bool) error {
	if watch && opts.configPath == "" {
		return errors.New("--watch needs --config")
	}
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	log, err := opts.logger(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetBaseContext(ctx)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetRequestTimeout(rt.durations.Request)
	httpapi.SetCORSOptions(cfg.CORS.Enabled, cfg.CORS.Origins, cfg.CORS.Methods, cfg.CORS.Headers)
	if cfg.HTTPLog != "" {
		httpapi.SetDefaultLogLevel(cfg.HTTPLog)
	}

	refresher := endpoint.NewRefresher(rt.resolver, rt.durations.Refresh, log.With().Str("component", "refresher").Logger())
	if err := refresher.Start(ctx); err != nil {
		return err
	}
	defer refresher.Stop()

	if watch {
		go func() {
			if err := config.Watch(ctx, opts.configPath, log, rt.applyConfig); err != nil {
				log.Error().Err(err).Msg("config watch stopped")
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(rt.backend),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Addr).
			Str("db", cfg.DBPath).
			Str("model", cfg.RequiredModel).
			Int("candidates", len(cfg.Candidates)).
			Msg("aigateway listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// Graceful shutdown (Ctrl+C / SIGTERM)
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	log.Info().Msg("aigateway stopped")
	return nil
}
