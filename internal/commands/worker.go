package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/tinoosan/bookkeeping/internal/jobs"
	"github.com/tinoosan/bookkeeping/internal/service/report"
)

func newWorkerCommand(envFile *string) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the background integrity worker",
		Long:  "Runs the asynq worker that periodically recomputes every company's trial balance and flags disagreement. Requires REDIS_ADDR.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(*envFile, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if !cfg.UseRedis() {
				return errors.New("worker: REDIS_ADDR is required")
			}
			if !cfg.UsePostgres() {
				logger.Warn("worker is using an in-memory store; it will only see its own empty journal")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := openBackend(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
			client := asynq.NewClient(redisOpts)
			defer client.Close()

			job := &jobs.IntegrityJob{
				Companies: store,
				Reports:   report.New(store),
				Enqueuer:  client,
				Logger:    logger.With("component", "integrity"),
				Metrics:   jobs.NewMetrics(nil),
			}
			worker, err := jobs.NewWorker(jobs.WorkerConfig{
				RedisOpts:   redisOpts,
				Logger:      logger,
				Concurrency: concurrency,
				Handlers:    jobs.IntegrityHandlers(job),
				Cron: []jobs.CronRegistration{{
					Spec:    cfg.IntegrityCron,
					Task:    jobs.NewIntegrityScanTask(),
					Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)},
				}},
			})
			if err != nil {
				return err
			}
			logger.Info("integrity schedule registered", "cron", cfg.IntegrityCron)
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 5, "number of concurrent task handlers")
	return cmd
}
