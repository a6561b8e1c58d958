// Package insights generates operational alerts for store owners: low-stock
// warnings and daily sales summaries.
package insights

import (
	"time"

	"github.com/google/uuid"
)

// InsightKind classifies an insight.
type InsightKind string

const (
	KindLowStock     InsightKind = "low_stock"
	KindDailySummary InsightKind = "daily_summary"
)

// Urgency grades how loudly the insight should surface.
type Urgency string

const (
	UrgencyInfo     Urgency = "info"
	UrgencyWarning  Urgency = "warning"
	UrgencyCritical Urgency = "critical"
)

// Stock thresholds: at or below Low raises a warning, at or below Critical
// escalates it.
const (
	LowStockThreshold      = 10.0
	CriticalStockThreshold = 3.0
)

// Insight is one generated alert. Meta carries kind-specific fields
// (product_id for low stock, date/count/total for summaries).
type Insight struct {
	ID        uuid.UUID      `json:"id"`
	TenantID  uuid.UUID      `json:"tenant_id"`
	Kind      InsightKind    `json:"kind"`
	Message   string         `json:"message"`
	Urgency   Urgency        `json:"urgency"`
	IsActive  bool           `json:"is_active"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
