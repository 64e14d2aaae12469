package usecase

import "context"

// MetricsSummary represents aggregated analysis insights.
type MetricsSummary struct {
	TotalPhotos      int64   `json:"total_photos"`
	PositiveVerdicts int64   `json:"positive_verdicts"`
	PositiveRate     float64 `json:"positive_rate"`
}

// GetMetricsSummary aggregates verdict metrics from persisted records.
func (uc *ProcessUseCase) GetMetricsSummary(ctx context.Context) (*MetricsSummary, error) {
	total, positive, err := uc.repo.AggregateMetrics(ctx)
	if err != nil {
		return nil, err
	}

	summary := &MetricsSummary{
		TotalPhotos:      total,
		PositiveVerdicts: positive,
	}
	if total > 0 {
		summary.PositiveRate = float64(positive) / float64(total)
	}

	return summary, nil
}
