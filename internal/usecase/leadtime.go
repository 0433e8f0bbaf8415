package usecase

import (
	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/github-dashboard/internal/domain"
)

// LeadTimeSeconds converts lead time records into durations in seconds.
func LeadTimeSeconds(data []domain.PRLeadTime) []float64 {
	seconds := make([]float64, 0, len(data))
	for _, d := range data {
		seconds = append(seconds, d.LastReviewedAt.Sub(d.CreatedAt).Seconds())
	}
	return seconds
}

// SummarizeLeadTimes returns nil when there is nothing to summarize.
func SummarizeLeadTimes(seconds []float64) *domain.LeadTimeSummary {
	if len(seconds) == 0 {
		return nil
	}
	// Mean and Median only fail on empty input.
	mean, _ := stats.Mean(seconds)
	median, _ := stats.Median(seconds)
	p90, err := stats.Percentile(seconds, 90)
	if err != nil {
		// NaN would not survive JSON encoding.
		p90, _ = stats.Max(seconds)
	}
	return &domain.LeadTimeSummary{
		Count:         len(seconds),
		MeanSeconds:   mean,
		MedianSeconds: median,
		P90Seconds:    p90,
	}
}
