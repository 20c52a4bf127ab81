package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskFinanceOverdueScan flags pending transactions past their due date.
	TaskFinanceOverdueScan = "finance:overdue-scan"
	// TaskStockLowScan flags products whose stock fell below the threshold.
	TaskStockLowScan = "stock:low-stock-scan"
)

// OverdueScanPayload configures a single overdue scan run.
type OverdueScanPayload struct {
	// GraceDays shifts the cutoff so invoices due today are not flagged.
	GraceDays int `json:"grace_days"`
}

// NewOverdueScanTask constructs an Asynq task.
func NewOverdueScanTask(payload OverdueScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFinanceOverdueScan, data), nil
}

// LowStockScanPayload configures a single low stock scan run.
type LowStockScanPayload struct {
	// Threshold overrides the configured minimum quantity when positive.
	Threshold int `json:"threshold"`
}

// NewLowStockScanTask constructs an Asynq task.
func NewLowStockScanTask(payload LowStockScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockLowScan, data), nil
}
