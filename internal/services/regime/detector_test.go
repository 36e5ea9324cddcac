package regime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BotBourse/internal/domain/models"
)

func snapshot(features map[string]float64) *models.FeatureSnapshot {
	return &models.FeatureSnapshot{
		Ticker:    "TEST",
		Features:  features,
		LastClose: 100,
		LastDate:  time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
	}
}

func primaries(signals []models.WatchlistSignal) []string {
	out := make([]string, len(signals))
	for i, s := range signals {
		out[i] = s.SignalPrimary
	}
	return out
}

func TestDetectVolatilityRegimeShift(t *testing.T) {
	d := NewDetector()
	signals := d.Detect(snapshot(map[string]float64{
		models.FeatureVolatility20D: 0.30,
		models.FeatureVolatility60D: 0.10,
	}))

	require.Len(t, signals, 1)
	assert.Equal(t, "Volatility regime shift", signals[0].SignalPrimary)
	assert.Equal(t, models.HorizonShort, signals[0].Horizon)
	assert.Contains(t, signals[0].SignalSecondary, "3.0x the 60d average")
}

func TestDetectNoShiftWhenBaseVolTooLow(t *testing.T) {
	d := NewDetector()
	signals := d.Detect(snapshot(map[string]float64{
		models.FeatureVolatility20D: 0.12,
		models.FeatureVolatility60D: 0.04, // below the 0.05 floor
	}))
	assert.Empty(t, signals)
}

func TestDetectTrendReversalNeedsBothConditions(t *testing.T) {
	d := NewDetector()

	// overbought but far from the 200d MA: must not fire
	signals := d.Detect(snapshot(map[string]float64{
		models.FeatureRSI14:         78,
		models.FeaturePriceVsSMA200: 0.20,
	}))
	assert.NotContains(t, primaries(signals), "Trend reversal candidate")

	// overbought and sitting on the 200d MA
	signals = d.Detect(snapshot(map[string]float64{
		models.FeatureRSI14:         78,
		models.FeaturePriceVsSMA200: 0.01,
	}))
	require.Len(t, signals, 1)
	assert.Equal(t, "Trend reversal candidate", signals[0].SignalPrimary)
	assert.Contains(t, signals[0].Explanation, "overbought near resistance")

	signals = d.Detect(snapshot(map[string]float64{
		models.FeatureRSI14:         22,
		models.FeaturePriceVsSMA200: -0.02,
	}))
	require.Len(t, signals, 1)
	assert.Contains(t, signals[0].Explanation, "oversold near support")
}

func TestDetectVolumeAnomaly(t *testing.T) {
	d := NewDetector()
	signals := d.Detect(snapshot(map[string]float64{
		models.FeatureVolumeRatio: 4.2,
	}))

	require.Len(t, signals, 1)
	assert.Equal(t, "Volume anomaly detected", signals[0].SignalPrimary)
	assert.Contains(t, signals[0].SignalSecondary, "4.2x")
}

func TestDetectDivergences(t *testing.T) {
	d := NewDetector()

	signals := d.Detect(snapshot(map[string]float64{
		models.FeatureReturn20D:     -0.08,
		models.FeatureRSI14:         58,
		models.FeatureMACDHistogram: 0.4,
	}))
	require.Len(t, signals, 1)
	assert.Equal(t, "Bullish divergence", signals[0].SignalPrimary)
	assert.Contains(t, signals[0].Explanation, "8.0%")

	signals = d.Detect(snapshot(map[string]float64{
		models.FeatureReturn20D:     0.09,
		models.FeatureRSI14:         42,
		models.FeatureMACDHistogram: -0.2,
	}))
	require.Len(t, signals, 1)
	assert.Equal(t, "Bearish divergence", signals[0].SignalPrimary)
}

func TestDetectStrongTrendDirection(t *testing.T) {
	d := NewDetector()

	signals := d.Detect(snapshot(map[string]float64{
		models.FeatureADX:       47,
		models.FeatureReturn20D: 0.11,
	}))
	require.Len(t, signals, 1)
	assert.Equal(t, "Strong upward trend", signals[0].SignalPrimary)
	assert.Equal(t, models.HorizonMedium, signals[0].Horizon)

	signals = d.Detect(snapshot(map[string]float64{
		models.FeatureADX:       47,
		models.FeatureReturn20D: -0.11,
	}))
	require.Len(t, signals, 1)
	assert.Equal(t, "Strong downward trend", signals[0].SignalPrimary)
}

func TestDetectConstantPriceSeriesFiresNothing(t *testing.T) {
	// features of a flat series: zero vols and returns, RSI undefined
	d := NewDetector()
	signals := d.Detect(snapshot(map[string]float64{
		models.FeatureVolatility20D: 0,
		models.FeatureVolatility60D: 0,
		models.FeatureReturn20D:     0,
		models.FeaturePriceVsSMA200: 0,
		models.FeatureMACDHistogram: 0,
		models.FeatureVolumeRatio:   1,
		models.FeatureADX:           0,
	}))
	assert.Empty(t, signals)
}

func TestDetectMultiplePredicatesMayFire(t *testing.T) {
	d := NewDetector()
	signals := d.Detect(snapshot(map[string]float64{
		models.FeatureVolatility20D: 0.40,
		models.FeatureVolatility60D: 0.12,
		models.FeatureVolumeRatio:   3.5,
		models.FeatureADX:           45,
		models.FeatureReturn20D:     0.06,
		models.FeatureRSI14:         55,
		models.FeatureMACDHistogram: 0.1,
	}))
	got := primaries(signals)
	assert.Contains(t, got, "Volatility regime shift")
	assert.Contains(t, got, "Volume anomaly detected")
	assert.Contains(t, got, "Strong upward trend")
}
