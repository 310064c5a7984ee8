package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/tinoosan/bookkeeping/internal/cache"
	"github.com/tinoosan/bookkeeping/internal/config"
	v1 "github.com/tinoosan/bookkeeping/internal/httpapi/v1"
)

func newServeCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(*envFile, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, logger, cmd)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger, cmd *cobra.Command) error {
	store, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := v1.Options{
		Currency:           cfg.Currency,
		RequestTimeout:     cfg.AppRequestTimeout,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}
	if cfg.UseRedis() {
		rc := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rc.Close()
		reports := cache.New(rc, cfg.ReportCacheTTL)
		opts.Cache = reports
		opts.Ready = append(opts.Ready, reports)
		logger.Info("report cache enabled", "redis_addr", cfg.RedisAddr, "ttl", cfg.ReportCacheTTL.String())
	}

	if cfg.DevSeed {
		seed, err := seedDemo(ctx, store, logger)
		if err != nil {
			logger.Error("dev seed failed", "err", err)
		} else {
			seed.log(logger)
			seed.printBanner(cmd.OutOrStdout())
		}
	}

	srv := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           v1.New(store, opts, logger).Handler(),
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: cfg.AppReadTimeout,
		WriteTimeout:      cfg.AppWriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("bookkeeping service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "err", err)
			return err
		}
		logger.Info("server stopped")
		return nil
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}
