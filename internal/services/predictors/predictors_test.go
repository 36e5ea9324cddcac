package predictors

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BotBourse/internal/domain/models"
	"BotBourse/internal/domain/repository"
)

type stubClassifier struct {
	probs []float64
	err   error
}

func (s *stubClassifier) PredictProba(_ []float64) ([]float64, error) {
	return s.probs, s.err
}

type stubRegressor struct {
	raw float64
	err error
}

func (s *stubRegressor) Predict(_ []float64) (float64, error) {
	return s.raw, s.err
}

func snapshot(features map[string]float64) *models.FeatureSnapshot {
	return &models.FeatureSnapshot{
		Ticker:    "TEST",
		Features:  features,
		LastClose: 100,
		LastDate:  time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestClassifierBullishHighConfidence(t *testing.T) {
	c := NewShortTermClassifier(&stubClassifier{probs: []float64{0.1, 0.2, 0.7}})

	sig, err := c.Predict(snapshot(nil))
	require.NoError(t, err)

	assert.InDelta(t, 0.024, sig.ExpectedReturn, 1e-12)
	assert.Equal(t, models.TrendBullish, sig.Trend)
	assert.Equal(t, models.ConfidenceHigh, sig.ConfidenceLevel)
	assert.InDelta(t, 0.85, sig.Confidence, 1e-12)
	assert.Equal(t, []float64{0.1, 0.2, 0.7}, sig.Probabilities)
}

func TestClassifierMediumAndLowTiers(t *testing.T) {
	sig, err := NewShortTermClassifier(&stubClassifier{probs: []float64{0.42, 0.30, 0.28}}).Predict(snapshot(nil))
	require.NoError(t, err)
	assert.Equal(t, models.TrendBearish, sig.Trend)
	assert.Equal(t, models.ConfidenceMedium, sig.ConfidenceLevel)
	assert.InDelta(t, 0.4+(0.42-0.40)*1.5, sig.Confidence, 1e-12)

	sig, err = NewShortTermClassifier(&stubClassifier{probs: []float64{0.34, 0.33, 0.33}}).Predict(snapshot(nil))
	require.NoError(t, err)
	assert.Equal(t, models.ConfidenceLow, sig.ConfidenceLevel)
	assert.InDelta(t, math.Max(0.2, 0.8*0.34), sig.Confidence, 1e-12)
}

func TestClassifierExpectedReturnClipped(t *testing.T) {
	sig, err := NewShortTermClassifier(&stubClassifier{probs: []float64{0, 0, 1}}).Predict(snapshot(nil))
	require.NoError(t, err)
	assert.LessOrEqual(t, sig.ExpectedReturn, 0.10)
	assert.GreaterOrEqual(t, sig.ExpectedReturn, -0.10)
}

func TestClassifierMissingArtifactIsNeutral(t *testing.T) {
	sig, err := NewShortTermClassifier(nil).Predict(snapshot(nil))
	require.NoError(t, err)
	assert.Equal(t, models.NeutralSignal(models.HorizonShort), sig)
}

func TestRegressorInvertsLogTarget(t *testing.T) {
	raw := math.Log1p(0.20)
	r := NewMediumTermRegressor(&stubRegressor{raw: raw})

	sig, err := r.Predict(snapshot(map[string]float64{
		models.FeatureVolatility60D: 0.30,
	}))
	require.NoError(t, err)

	assert.InDelta(t, 0.20, sig.ExpectedReturn, 1e-12)
	assert.Equal(t, models.TrendBullish, sig.Trend)

	snr := 0.20 / 0.30
	assert.Equal(t, models.ConfidenceHigh, sig.ConfidenceLevel)
	assert.InDelta(t, math.Min(0.80, 0.5+snr*0.3), sig.Confidence, 1e-12)
}

func TestRegressorClipsExtremes(t *testing.T) {
	sig, err := NewMediumTermRegressor(&stubRegressor{raw: 5}).Predict(snapshot(nil))
	require.NoError(t, err)
	assert.InDelta(t, 0.50, sig.ExpectedReturn, 1e-12)

	sig, err = NewMediumTermRegressor(&stubRegressor{raw: -5}).Predict(snapshot(nil))
	require.NoError(t, err)
	assert.InDelta(t, -0.40, sig.ExpectedReturn, 1e-12)
}

func TestRegressorVolatilityFloor(t *testing.T) {
	raw := math.Log1p(0.04)
	sig, err := NewMediumTermRegressor(&stubRegressor{raw: raw}).Predict(snapshot(map[string]float64{
		models.FeatureVolatility60D: 0.01, // floored at 0.05
	}))
	require.NoError(t, err)

	snr := 0.04 / 0.05
	assert.Equal(t, models.ConfidenceHigh, sig.ConfidenceLevel)
	assert.InDelta(t, math.Min(0.80, 0.5+snr*0.3), sig.Confidence, 1e-12)
	assert.Equal(t, models.TrendBullish, sig.Trend)
}

func TestRuleScorerMissingArtifactIsNeutral(t *testing.T) {
	s := NewLongTermRuleScorer(nil)

	// strongly bullish inputs must not leak through without a table
	sig, err := s.Predict(snapshot(map[string]float64{
		models.FeaturePriceVsSMA200: 0.25,
		models.FeatureReturn60D:     0.20,
		models.FeatureADX:           40,
	}))
	require.NoError(t, err)
	assert.Equal(t, models.NeutralSignal(models.HorizonLong), sig)

	sig, err = NewLongTermRuleScorer(&repository.RuleTable{}).Predict(snapshot(nil))
	require.NoError(t, err)
	assert.Equal(t, models.NeutralSignal(models.HorizonLong), sig)
}

func TestRuleScorerBounds(t *testing.T) {
	s := NewLongTermRuleScorer(DefaultRuleTable())

	inputs := []map[string]float64{
		{
			models.FeaturePriceVsSMA200: 0.5,
			models.FeatureReturn60D:     0.4,
			models.FeatureVolatility60D: -0.5,
			models.FeatureDrawdown:      0,
			models.FeatureRSI14:         50,
			models.FeatureADX:           100,
		},
		{
			models.FeaturePriceVsSMA200: -0.9,
			models.FeatureReturn60D:     -0.9,
			models.FeatureVolatility60D: 2.0,
			models.FeatureDrawdown:      -0.9,
			models.FeatureRSI14:         0,
			models.FeatureADX:           -100,
		},
	}
	for _, features := range inputs {
		sig, err := s.Predict(snapshot(features))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, sig.ExpectedReturn, -0.15)
		assert.LessOrEqual(t, sig.ExpectedReturn, 0.15)
		assert.GreaterOrEqual(t, sig.Confidence, 0.0)
		assert.LessOrEqual(t, sig.Confidence, 0.60)
		assert.NotEqual(t, models.ConfidenceHigh, sig.ConfidenceLevel)
	}
}

func TestRuleScorerIsDeterministic(t *testing.T) {
	s := NewLongTermRuleScorer(DefaultRuleTable())
	features := map[string]float64{
		models.FeaturePriceVsSMA200: 0.12,
		models.FeatureReturn60D:     0.08,
		models.FeatureVolatility60D: 0.22,
		models.FeatureDrawdown:      -0.05,
		models.FeatureRSI14:         61,
		models.FeatureADX:           28,
	}

	first, err := s.Predict(snapshot(features))
	require.NoError(t, err)
	second, err := s.Predict(snapshot(features))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRuleScorerSkipsMissingFeatures(t *testing.T) {
	table := &repository.RuleTable{Scoring: map[string]repository.RuleEntry{
		models.FeaturePriceVsSMA200: {Weight: 0.5, Direction: repository.DirectionPositive},
		models.FeatureADX:           {Weight: 0.5, Direction: repository.DirectionPositive},
	}}
	s := NewLongTermRuleScorer(table)

	// only one of two configured features present; the other contributes
	// nothing while its weight still normalizes the score
	sig, err := s.Predict(snapshot(map[string]float64{
		models.FeaturePriceVsSMA200: 0.30,
	}))
	require.NoError(t, err)

	normalized := math.Tanh(3*0.30) * 0.5 / 1.0
	assert.InDelta(t, clip(normalized*0.12, -0.15, 0.15), sig.ExpectedReturn, 1e-12)
}

func TestRiskScorerBuckets(t *testing.T) {
	s := NewRiskScorer()

	tests := []struct {
		name     string
		features map[string]float64
		want     int
	}{
		{
			name: "calm",
			features: map[string]float64{
				models.FeatureVolatility20D: 0.10,
				models.FeatureVolatility60D: 0.10,
				models.FeatureDrawdown:      -0.02,
			},
			want: 1,
		},
		{
			name: "moderate",
			features: map[string]float64{
				models.FeatureVolatility20D: 0.20,
				models.FeatureVolatility60D: 0.24,
				models.FeatureDrawdown:      -0.15,
			},
			want: 3,
		},
		{
			name: "stressed",
			features: map[string]float64{
				models.FeatureVolatility20D: 0.50,
				models.FeatureVolatility60D: 0.60,
				models.FeatureDrawdown:      -0.40,
			},
			want: 5,
		},
		{
			name:     "missing features use defaults",
			features: map[string]float64{},
			want:     3, // vol defaults 0.25 -> 2 points, drawdown default 0 -> 0
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, s.Score(snapshot(tc.features)))
		})
	}
}
