package predictors

import (
	"BotBourse/internal/domain/models"
)

// VolatilityRiskScorer buckets volatility and drawdown into a 1..5 risk
// score.
type VolatilityRiskScorer struct{}

// NewRiskScorer creates a risk scorer.
func NewRiskScorer() *VolatilityRiskScorer {
	return &VolatilityRiskScorer{}
}

func (s *VolatilityRiskScorer) Score(snapshot *models.FeatureSnapshot) int {
	vol20 := snapshot.FeatureOr(models.FeatureVolatility20D, 0.25)
	vol60 := snapshot.FeatureOr(models.FeatureVolatility60D, 0.25)
	drawdown := snapshot.FeatureOr(models.FeatureDrawdown, 0)

	avgVol := (vol20 + vol60) / 2
	points := 0
	switch {
	case avgVol < 0.15:
	case avgVol < 0.25:
		points += 1
	case avgVol < 0.35:
		points += 2
	default:
		points += 3
	}

	switch {
	case drawdown > -0.10:
	case drawdown > -0.25:
		points += 1
	default:
		points += 2
	}

	score := points + 1
	if score < 1 {
		score = 1
	}
	if score > 5 {
		score = 5
	}
	return score
}
