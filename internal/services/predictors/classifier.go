package predictors

import (
	"fmt"
	"math"

	"BotBourse/internal/domain/models"
	"BotBourse/internal/domain/repository"
)

// Canonical per-class returns for the 22-day classifier: down < -2%,
// flat, up > +2%.
var classReturns = [3]float64{-0.04, 0, 0.04}

var classTrends = [3]models.TrendLabel{models.TrendBearish, models.TrendNeutral, models.TrendBullish}

// ShortTermClassifier blends 3-class probabilities into a bounded expected
// return with a piecewise confidence map.
type ShortTermClassifier struct {
	model repository.Classifier
}

// NewShortTermClassifier wraps a trained classifier artifact.
func NewShortTermClassifier(model repository.Classifier) *ShortTermClassifier {
	return &ShortTermClassifier{model: model}
}

func (c *ShortTermClassifier) Horizon() models.Horizon {
	return models.HorizonShort
}

func (c *ShortTermClassifier) Predict(snapshot *models.FeatureSnapshot) (models.HorizonSignal, error) {
	if c.model == nil {
		return models.NeutralSignal(models.HorizonShort), nil
	}

	probs, err := c.model.PredictProba(snapshot.ModelVector())
	if err != nil {
		return models.HorizonSignal{}, fmt.Errorf("classifier predict %s: %w", snapshot.Ticker, err)
	}
	if len(probs) != 3 {
		return models.HorizonSignal{}, fmt.Errorf("classifier predict %s: got %d class probabilities, want 3", snapshot.Ticker, len(probs))
	}

	er := 0.0
	for i, p := range probs {
		er += p * classReturns[i]
	}
	er = clip(er, -0.10, 0.10)

	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	maxProb := probs[best]

	confidence, level := classifierConfidence(maxProb)

	return models.HorizonSignal{
		Horizon:         models.HorizonShort,
		ExpectedReturn:  er,
		Trend:           classTrends[best],
		Confidence:      confidence,
		ConfidenceLevel: level,
		Probabilities:   append([]float64(nil), probs...),
	}, nil
}

// classifierConfidence maps the winning class probability through the
// three-tier calibration.
func classifierConfidence(maxProb float64) (float64, models.ConfidenceLevel) {
	switch {
	case maxProb >= 0.50:
		return math.Min(0.85, 0.5+(maxProb-0.5)*2), models.ConfidenceHigh
	case maxProb >= 0.40:
		return 0.4 + (maxProb-0.40)*1.5, models.ConfidenceMedium
	default:
		return math.Max(0.2, 0.8*maxProb), models.ConfidenceLow
	}
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
