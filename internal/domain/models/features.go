package models

import (
	"math"
	"time"
)

// Feature names produced by the feature computer. Values are those of the
// most recent completed daily bar.
const (
	FeatureReturn1D      = "return_1d"
	FeatureReturn5D      = "return_5d"
	FeatureReturn20D     = "return_20d"
	FeatureReturn60D     = "return_60d"
	FeatureReturn252D    = "return_252d"
	FeatureSMA20         = "sma_20"
	FeatureSMA50         = "sma_50"
	FeatureSMA200        = "sma_200"
	FeatureEMA12         = "ema_12"
	FeatureEMA26         = "ema_26"
	FeaturePriceVsSMA20  = "price_vs_sma20"
	FeaturePriceVsSMA50  = "price_vs_sma50"
	FeaturePriceVsSMA200 = "price_vs_sma200"
	FeatureVolatility20D = "volatility_20d"
	FeatureVolatility60D = "volatility_60d"
	FeatureDrawdown      = "drawdown"
	FeatureMaxDrawdown1Y = "max_drawdown_1y"
	FeatureVolumeRatio   = "volume_ratio"
	FeatureRSI14         = "rsi_14"
	FeatureMACD          = "macd"
	FeatureMACDSignal    = "macd_signal"
	FeatureMACDHistogram = "macd_histogram"
	FeatureBBUpper       = "bb_upper"
	FeatureBBLower       = "bb_lower"
	FeatureBBWidth       = "bb_width"
	FeatureBBPosition    = "bb_position"
	FeatureStochK        = "stoch_k"
	FeatureStochD        = "stoch_d"
	FeatureADX           = "adx"
	FeatureATR14         = "atr_14"
)

// ModelFeatures is the fixed, ordered feature set consumed by the trained
// tree models. Column order here IS the model input order; changing it
// invalidates existing artifacts.
var ModelFeatures = []string{
	FeatureReturn5D,
	FeatureReturn20D,
	FeatureReturn60D,
	FeatureVolatility20D,
	FeatureVolatility60D,
	FeatureRSI14,
	FeatureMACDHistogram,
	FeaturePriceVsSMA20,
	FeaturePriceVsSMA50,
	FeaturePriceVsSMA200,
	FeatureBBPosition,
	FeatureBBWidth,
	FeatureStochK,
	FeatureADX,
	FeatureVolumeRatio,
	FeatureDrawdown,
}

// FeatureTable is a time-indexed table of indicator columns for one asset.
// Missing values (insufficient history or non-finite arithmetic) are NaN;
// they never leave the table as numeric sentinels.
type FeatureTable struct {
	Ticker  string
	Dates   []time.Time
	Closes  []float64
	Columns map[string][]float64
}

// Len returns the number of rows.
func (t *FeatureTable) Len() int {
	return len(t.Dates)
}

// Value returns the column value at row i, or false when the column is
// absent or the value is not finite.
func (t *FeatureTable) Value(name string, i int) (float64, bool) {
	col, ok := t.Columns[name]
	if !ok || i < 0 || i >= len(col) {
		return 0, false
	}
	v := col[i]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Row materializes row i as a name->value map, skipping missing values.
func (t *FeatureTable) Row(i int) map[string]float64 {
	row := make(map[string]float64, len(t.Columns))
	for name := range t.Columns {
		if v, ok := t.Value(name, i); ok {
			row[name] = v
		}
	}
	return row
}

// FeatureSnapshot is the latest feature row for one asset, the sole input
// to predictors and regime detectors.
type FeatureSnapshot struct {
	Ticker    string
	Features  map[string]float64
	LastClose float64
	LastDate  time.Time
}

// Feature returns a named feature value, or false when missing.
func (s *FeatureSnapshot) Feature(name string) (float64, bool) {
	v, ok := s.Features[name]
	return v, ok
}

// FeatureOr returns a named feature value, or def when missing.
func (s *FeatureSnapshot) FeatureOr(name string, def float64) float64 {
	if v, ok := s.Features[name]; ok {
		return v
	}
	return def
}

// ModelVector assembles the fixed-order input vector for tree models.
// Missing features are substituted with zero, matching how the training
// pipeline fills gaps before fitting.
func (s *FeatureSnapshot) ModelVector() []float64 {
	vec := make([]float64, len(ModelFeatures))
	for i, name := range ModelFeatures {
		vec[i] = s.FeatureOr(name, 0)
	}
	return vec
}
