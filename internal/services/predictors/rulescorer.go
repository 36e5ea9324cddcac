package predictors

import (
	"math"

	"BotBourse/internal/domain/models"
	"BotBourse/internal/domain/repository"
)

// LongTermRuleScorer scores a snapshot against a hand-authored weight
// table. No trained backing; pure function of its inputs.
type LongTermRuleScorer struct {
	table *repository.RuleTable
}

// NewLongTermRuleScorer wraps a rule table artifact. Without a table the
// scorer has no backing and emits the neutral default, like the trained
// horizons do when their artifact is absent.
func NewLongTermRuleScorer(table *repository.RuleTable) *LongTermRuleScorer {
	return &LongTermRuleScorer{table: table}
}

func (s *LongTermRuleScorer) Horizon() models.Horizon {
	return models.HorizonLong
}

func (s *LongTermRuleScorer) Predict(snapshot *models.FeatureSnapshot) (models.HorizonSignal, error) {
	if s.table == nil || len(s.table.Scoring) == 0 {
		return models.NeutralSignal(models.HorizonLong), nil
	}

	total := 0.0
	weightSum := 0.0
	for name, rule := range s.table.Scoring {
		weightSum += rule.Weight
		v, ok := snapshot.Feature(name)
		if !ok {
			continue
		}
		total += ruleTransform(v, rule.Direction) * rule.Weight
	}

	normalized := total / math.Max(weightSum, 0.01)
	er := clip(normalized*0.12, -0.15, 0.15)

	trend := models.TrendNeutral
	switch {
	case er > 0.02:
		trend = models.TrendBullish
	case er < -0.02:
		trend = models.TrendBearish
	}

	confidence := math.Min(0.60, 0.3+0.3*math.Abs(normalized))
	level := models.ConfidenceLow
	if confidence >= 0.45 {
		level = models.ConfidenceMedium
	}

	return models.HorizonSignal{
		Horizon:         models.HorizonLong,
		ExpectedReturn:  er,
		Trend:           trend,
		Confidence:      confidence,
		ConfidenceLevel: level,
	}, nil
}

// ruleTransform applies the direction-tagged transform to one feature
// value before weighting.
func ruleTransform(v float64, dir repository.RuleDirection) float64 {
	switch dir {
	case repository.DirectionPositive:
		return math.Tanh(3 * v)
	case repository.DirectionNegative:
		return -math.Tanh(2 * v)
	case repository.DirectionNegativeAbs:
		return 1 - math.Min(math.Abs(v), 1)
	case repository.DirectionMeanRevert:
		return 1 - math.Abs(v-50)/50
	default:
		return 0
	}
}

// DefaultRuleTable is the reference long-horizon scoring document, matching
// the shipped long_term.json artifact.
func DefaultRuleTable() *repository.RuleTable {
	return &repository.RuleTable{
		Version: "default-1",
		Scoring: map[string]repository.RuleEntry{
			models.FeaturePriceVsSMA200: {Weight: 0.25, Direction: repository.DirectionPositive, Desc: "long trend position"},
			models.FeatureReturn60D:     {Weight: 0.15, Direction: repository.DirectionPositive, Desc: "quarterly momentum"},
			models.FeatureVolatility60D: {Weight: 0.20, Direction: repository.DirectionNegative, Desc: "volatility drag"},
			models.FeatureDrawdown:      {Weight: 0.15, Direction: repository.DirectionNegativeAbs, Desc: "distance from peak"},
			models.FeatureRSI14:         {Weight: 0.10, Direction: repository.DirectionMeanRevert, Desc: "oscillator balance"},
			models.FeatureADX:           {Weight: 0.15, Direction: repository.DirectionPositive, Desc: "trend strength"},
		},
	}
}
