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

// OverdueScanJob counts pending ledger transactions past their due date and
// publishes the counts as gauges. Read only; the ledger itself is never
// mutated by the scan.
type OverdueScanJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *observability.Metrics
	clock   func() time.Time
}

// NewOverdueScanJob initialises the overdue scan handler.
func NewOverdueScanJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *observability.Metrics) *OverdueScanJob {
	return &OverdueScanJob{
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the overdue scan.
func (j *OverdueScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("overdue scan: handler not configured")
	}
	var payload OverdueScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	logger := j.logger()
	start := j.clock()
	cutoff := start.AddDate(0, 0, -payload.GraceDays)

	counts, err := j.scan(ctx, cutoff)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		j.record("error")
		return err
	}

	for txType, n := range counts {
		if j.Metrics != nil {
			j.Metrics.SetOverdue(txType, n)
		}
		if n > 0 {
			logger.Warn("overdue transactions found",
				slog.String("type", txType),
				slog.Int("count", n),
			)
		}
	}
	logger.Info("completed overdue scan",
		slog.Int("payable", counts["expense"]),
		slog.Int("receivable", counts["income"]),
		slog.Duration("duration", time.Since(start)),
	)
	j.record("ok")
	return nil
}

func (j *OverdueScanJob) scan(ctx context.Context, cutoff time.Time) (map[string]int, error) {
	rows, err := j.Pool.Query(ctx, `SELECT type, COUNT(*) FROM transactions WHERE status = 'pending' AND due_date IS NOT NULL AND due_date < $1 GROUP BY type`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{"income": 0, "expense": 0}
	for rows.Next() {
		var txType string
		var n int
		if err := rows.Scan(&txType, &n); err != nil {
			return nil, err
		}
		counts[txType] = n
	}
	return counts, rows.Err()
}

func (j *OverdueScanJob) record(outcome string) {
	if j.Metrics != nil {
		j.Metrics.JobRun(TaskFinanceOverdueScan, outcome)
	}
}

func (j *OverdueScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskFinanceOverdueScan))
	}
	return slog.Default().With(slog.String("job", TaskFinanceOverdueScan))
}
