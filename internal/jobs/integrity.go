package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/tinoosan/bookkeeping/internal/service/report"
)

// CompanyLister lists companies that have journal data.
type CompanyLister interface {
	CompanyIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Enqueuer submits tasks. *asynq.Client satisfies it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// IntegrityJob recomputes trial balances in the background and flags any
// company whose debit and credit totals disagree.
type IntegrityJob struct {
	Companies CompanyLister
	Reports   report.Service
	Enqueuer  Enqueuer
	Logger    *slog.Logger
	Metrics   *Metrics
}

// HandleScan enqueues one TaskIntegrityCheck per company.
func (j *IntegrityJob) HandleScan(ctx context.Context, _ *asynq.Task) (err error) {
	if j == nil || j.Companies == nil || j.Enqueuer == nil {
		return errors.New("integrity scan: handler not configured")
	}
	tracker := j.Metrics.Track(TaskIntegrityScan)
	defer func() { err = tracker.End(err) }()

	ids, err := j.Companies.CompanyIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		task, err := NewIntegrityCheckTask(IntegrityPayload{CompanyID: id})
		if err != nil {
			return err
		}
		if _, err := j.Enqueuer.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(3)); err != nil {
			return fmt.Errorf("enqueue integrity check for %s: %w", id, err)
		}
	}
	j.logger().Info("integrity scan enqueued", slog.Int("companies", len(ids)))
	return nil
}

// HandleCheck computes one company's trial balance and records its diff.
func (j *IntegrityJob) HandleCheck(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Reports == nil {
		return errors.New("integrity check: handler not configured")
	}
	var payload IntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.CompanyID == uuid.Nil {
		return asynq.SkipRetry
	}
	tracker := j.Metrics.Track(TaskIntegrityCheck)
	defer func() { err = tracker.End(err) }()

	start := time.Now()
	logger := j.logger().With(slog.String("company_id", payload.CompanyID.String()))
	tb, err := j.Reports.TrialBalance(ctx, payload.CompanyID)
	if err != nil {
		logger.Error("integrity check failed", slog.Any("error", err))
		return err
	}
	diff, _ := tb.Diff.Float64()
	j.Metrics.SetTrialBalanceDiff(payload.CompanyID, diff)
	if !tb.Balanced {
		logger.Warn("trial balance out of agreement",
			slog.String("total_dr", tb.GrandTotalDr.String()),
			slog.String("total_cr", tb.GrandTotalCr.String()),
			slog.String("diff", tb.Diff.String()),
			slog.Int64("version", tb.Version),
		)
		return nil
	}
	logger.Info("integrity check passed", slog.Int64("version", tb.Version), slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *IntegrityJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}
