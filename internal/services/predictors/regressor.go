package predictors

import (
	"fmt"
	"math"

	"BotBourse/internal/domain/models"
	"BotBourse/internal/domain/repository"
)

// MediumTermRegressor inverts a log1p-target regression into a clipped
// expected return; confidence is a signal-to-noise ratio against 60-day
// volatility.
type MediumTermRegressor struct {
	model repository.Regressor
}

// NewMediumTermRegressor wraps a trained regressor artifact.
func NewMediumTermRegressor(model repository.Regressor) *MediumTermRegressor {
	return &MediumTermRegressor{model: model}
}

func (r *MediumTermRegressor) Horizon() models.Horizon {
	return models.HorizonMedium
}

func (r *MediumTermRegressor) Predict(snapshot *models.FeatureSnapshot) (models.HorizonSignal, error) {
	if r.model == nil {
		return models.NeutralSignal(models.HorizonMedium), nil
	}

	raw, err := r.model.Predict(snapshot.ModelVector())
	if err != nil {
		return models.HorizonSignal{}, fmt.Errorf("regressor predict %s: %w", snapshot.Ticker, err)
	}

	// model is trained on log1p of the forward return
	er := clip(math.Expm1(raw), -0.40, 0.50)

	trend := models.TrendNeutral
	switch {
	case er > 0.03:
		trend = models.TrendBullish
	case er < -0.03:
		trend = models.TrendBearish
	}

	vol := snapshot.FeatureOr(models.FeatureVolatility60D, 0.25)
	snr := math.Abs(er) / math.Max(vol, 0.05)
	confidence, level := regressorConfidence(snr)

	return models.HorizonSignal{
		Horizon:         models.HorizonMedium,
		ExpectedReturn:  er,
		Trend:           trend,
		Confidence:      confidence,
		ConfidenceLevel: level,
	}, nil
}

func regressorConfidence(snr float64) (float64, models.ConfidenceLevel) {
	switch {
	case snr > 0.4:
		return math.Min(0.80, 0.5+snr*0.3), models.ConfidenceHigh
	case snr > 0.15:
		return 0.4 + snr*0.3, models.ConfidenceMedium
	default:
		return math.Max(0.25, 0.2+snr), models.ConfidenceLow
	}
}
