package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tinoosan/bookkeeping/internal/config"
	v1 "github.com/tinoosan/bookkeeping/internal/httpapi/v1"
	"github.com/tinoosan/bookkeeping/internal/jobs"
	"github.com/tinoosan/bookkeeping/internal/storage/memory"
	pgstore "github.com/tinoosan/bookkeeping/internal/storage/postgres"
)

// backend is a store usable by every command.
type backend interface {
	v1.Store
	jobs.CompanyLister
	Close()
}

var (
	_ backend = (*memory.Store)(nil)
	_ backend = (*pgstore.Store)(nil)
)

// openBackend selects postgres when DATABASE_URL is set and memory otherwise.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (backend, error) {
	if cfg.UsePostgres() {
		pg, err := pgstore.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		logger.Info("storage backend: postgres")
		return pg, nil
	}
	logger.Info("storage backend: memory")
	return memory.New(), nil
}

// loadConfig reads configuration and builds the process logger from it.
func loadConfig(envFile string, out io.Writer) (*config.Config, *slog.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if envFile != "" {
		cfg, err = config.Load(envFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, err
	}
	logger := buildLogger(cfg.LogLevel, cfg.LogFormat, out)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// parseLogLevel maps config values to slog.Leveler.
func parseLogLevel(s string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLogger(level, format string, out io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}
	if strings.EqualFold(strings.TrimSpace(format), "text") {
		return slog.New(slog.NewTextHandler(out, opts))
	}
	// default to JSON
	return slog.New(slog.NewJSONHandler(out, opts))
}
