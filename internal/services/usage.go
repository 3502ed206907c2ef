package services

import (
	"context"
	"fmt"

	"github.com/IMmedia2025/My-PL-ML-System/internal/models"
	"github.com/IMmedia2025/My-PL-ML-System/internal/storage"
)

// UsageSummary aggregates a key's daily rollups over the requested span.
type UsageSummary struct {
	Days          int                    `json:"days"`
	TotalRequests int                    `json:"total_requests"`
	TotalSuccess  int                    `json:"total_success"`
	TotalErrors   int                    `json:"total_errors"`
	AvgLatencyMs  float64                `json:"avg_latency_ms"`
	Daily         []models.APIUsageDaily `json:"daily"`
}

// UsageService serves a caller's own usage statistics.
type UsageService struct {
	store storage.Store
}

func NewUsageService(store storage.Store) *UsageService {
	return &UsageService{store: store}
}

// Stats returns the rollups for the last `days` days (1-90).
func (s *UsageService) Stats(ctx context.Context, keyID uint, days int) (*UsageSummary, error) {
	if days < 1 || days > 90 {
		return nil, fmt.Errorf("days must be between 1 and 90")
	}

	daily, err := s.store.ListDailyUsage(ctx, keyID, days)
	if err != nil {
		return nil, fmt.Errorf("failed to load usage stats: %w", err)
	}

	summary := &UsageSummary{Days: days, Daily: daily}
	var weightedLatency float64
	for _, d := range daily {
		summary.TotalRequests += d.RequestCount
		summary.TotalSuccess += d.SuccessCount
		summary.TotalErrors += d.ErrorCount
		weightedLatency += d.AvgLatencyMs * float64(d.RequestCount)
	}
	if summary.TotalRequests > 0 {
		summary.AvgLatencyMs = weightedLatency / float64(summary.TotalRequests)
	}
	if summary.Daily == nil {
		summary.Daily = []models.APIUsageDaily{}
	}
	return summary, nil
}
