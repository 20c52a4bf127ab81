package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/garagehub/garagehub/internal/observability"
)

// LowStockScanJob counts catalog products sitting at or below the restock
// threshold and publishes the count as a gauge.
type LowStockScanJob struct {
	Pool      *pgxpool.Pool
	Logger    *slog.Logger
	Metrics   *observability.Metrics
	Threshold int
}

// NewLowStockScanJob initialises the low stock scan handler.
func NewLowStockScanJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *observability.Metrics, threshold int) *LowStockScanJob {
	return &LowStockScanJob{Pool: pool, Logger: logger, Metrics: metrics, Threshold: threshold}
}

// Handle executes the low stock scan.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	threshold := j.Threshold
	if payload.Threshold > 0 {
		threshold = payload.Threshold
	}

	logger := j.logger()
	start := time.Now()

	var count int
	err := j.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE quantity <= $1`, threshold).Scan(&count)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		j.record("error")
		return err
	}

	if j.Metrics != nil {
		j.Metrics.SetLowStock(count)
	}
	if count > 0 {
		logger.Warn("products below restock threshold",
			slog.Int("count", count),
			slog.Int("threshold", threshold),
		)
	}
	logger.Info("completed low stock scan",
		slog.Int("count", count),
		slog.Duration("duration", time.Since(start)),
	)
	j.record("ok")
	return nil
}

func (j *LowStockScanJob) record(outcome string) {
	if j.Metrics != nil {
		j.Metrics.JobRun(TaskStockLowScan, outcome)
	}
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskStockLowScan))
	}
	return slog.Default().With(slog.String("job", TaskStockLowScan))
}
