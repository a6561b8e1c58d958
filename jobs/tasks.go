// Package jobs contains the asynq task definitions and the worker runtime.
package jobs

import (
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskInsightLowStockScan sweeps every active store for low stock.
	TaskInsightLowStockScan = "insights:low_stock_scan"
	// TaskInsightDailySummary records yesterday's sales totals per store.
	TaskInsightDailySummary = "insights:daily_summary"
)

// NewLowStockScanTask constructs the low-stock sweep task. The sweep takes
// no parameters; it always covers every active store.
func NewLowStockScanTask() *asynq.Task {
	return asynq.NewTask(TaskInsightLowStockScan, nil)
}

// NewDailySummaryTask constructs the daily summary task.
func NewDailySummaryTask() *asynq.Task {
	return asynq.NewTask(TaskInsightDailySummary, nil)
}
