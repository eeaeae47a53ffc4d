package matcher

import (
	"advisor-match-workers/internal/common/metrics"
	"advisor-match-workers/internal/models"
)

// Observer receives diagnostic events from a matching run. None of them affect results.
type Observer interface {
	CandidateScored(p models.Percentage)
	EmptyPool(student models.Student)
	ResultProduced(result models.MatchResult)
	AdvisorsAtCapacity(full []models.Advisor)
}

type prometheusObserver struct{}

func (prometheusObserver) CandidateScored(p models.Percentage) {
	metrics.MatchPercentage.Observe(float64(p))
}

func (prometheusObserver) EmptyPool(models.Student) {
	metrics.MatchEmptyPool.Inc()
}

func (prometheusObserver) ResultProduced(result models.MatchResult) {
	metrics.MatchResults.WithLabelValues(result.Status).Inc()
}

func (prometheusObserver) AdvisorsAtCapacity(full []models.Advisor) {
	metrics.AdvisorsAtCapacity.Set(float64(len(full)))
}
