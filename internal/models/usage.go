package models

import "time"

// APIUsage is one row per completed request that passed authentication.
// Writes are fire-and-forget; the request path never waits on them.
type APIUsage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	APIKeyID   uint      `gorm:"index;not null" json:"api_key_id"`
	Endpoint   string    `gorm:"size:128" json:"endpoint"`
	Method     string    `gorm:"size:8" json:"method"`
	StatusCode int       `json:"status_code"`
	LatencyMs  float64   `json:"latency_ms"`
	UserAgent  string    `gorm:"size:256" json:"user_agent"`
	ClientIP   string    `gorm:"size:64" json:"client_ip"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for GORM
func (APIUsage) TableName() string {
	return "api_usage"
}

// APIUsageDaily is the incremental per-day rollup of APIUsage, keyed by
// (key, date). AvgLatencyMs is a rolling mean updated on every event.
type APIUsageDaily struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	APIKeyID     uint      `gorm:"uniqueIndex:idx_usage_key_date;not null" json:"api_key_id"`
	Date         string    `gorm:"uniqueIndex:idx_usage_key_date;size:10;not null" json:"date"` // YYYY-MM-DD
	RequestCount int       `json:"request_count"`
	SuccessCount int       `json:"success_count"`
	ErrorCount   int       `json:"error_count"`
	AvgLatencyMs float64   `json:"avg_latency_ms"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (APIUsageDaily) TableName() string {
	return "api_usage_daily"
}

// Absorb folds one usage event into the rollup's counters.
func (d *APIUsageDaily) Absorb(statusCode int, latencyMs float64) {
	total := d.AvgLatencyMs*float64(d.RequestCount) + latencyMs
	d.RequestCount++
	d.AvgLatencyMs = total / float64(d.RequestCount)
	if statusCode >= 200 && statusCode < 400 {
		d.SuccessCount++
	} else {
		d.ErrorCount++
	}
}
