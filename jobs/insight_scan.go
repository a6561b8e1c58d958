package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-pos/meridian-pos/internal/insights"
)

// InsightScanJob runs the insight sweeps from the worker.
type InsightScanJob struct {
	service *insights.Service
	logger  *slog.Logger
}

// NewInsightScanJob constructs InsightScanJob.
func NewInsightScanJob(service *insights.Service, logger *slog.Logger) *InsightScanJob {
	return &InsightScanJob{service: service, logger: logger}
}

// HandleLowStockScan processes TaskInsightLowStockScan tasks.
func (j *InsightScanJob) HandleLowStockScan(ctx context.Context, _ *asynq.Task) error {
	j.logger.Info("low stock sweep started")
	if err := j.service.ScanAllTenants(ctx); err != nil {
		j.logger.Error("low stock sweep", slog.Any("error", err))
		return err
	}
	return nil
}

// HandleDailySummary processes TaskInsightDailySummary tasks.
func (j *InsightScanJob) HandleDailySummary(ctx context.Context, _ *asynq.Task) error {
	j.logger.Info("daily summary sweep started")
	if err := j.service.SummarizeAllTenants(ctx); err != nil {
		j.logger.Error("daily summary sweep", slog.Any("error", err))
		return err
	}
	return nil
}
