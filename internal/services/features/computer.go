package features

import (
	"fmt"
	"math"

	"BotBourse/internal/domain/models"
	"BotBourse/internal/services/indicators"
)

// MinHistory is the minimum number of valid closes required before the
// computed table is usable at all.
const MinHistory = 50

// Computer derives the indicator table and latest snapshot from a price
// series. Stateless; safe for concurrent use.
type Computer struct {
	minHistory int
}

// NewComputer creates a feature computer.
func NewComputer(minHistory int) *Computer {
	if minHistory <= 0 {
		minHistory = MinHistory
	}
	return &Computer{minHistory: minHistory}
}

// Compute builds the full time-indexed feature table for one asset. Bars
// with non-positive or non-finite closes are discarded first; if fewer
// than the minimum history survives, an error is returned and the asset
// should be skipped.
func (c *Computer) Compute(series *models.PriceSeries) (*models.FeatureTable, error) {
	bars := sanitizeBars(series.Bars)
	if len(bars) < c.minHistory {
		return nil, fmt.Errorf("compute features %s: %d valid bars, need %d", series.Ticker, len(bars), c.minHistory)
	}

	n := len(bars)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	t := &models.FeatureTable{
		Ticker:  series.Ticker,
		Closes:  closes,
		Columns: make(map[string][]float64, 32),
	}
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = b.Volume
		t.Dates = append(t.Dates, b.Date)
	}

	cols := t.Columns
	cols[models.FeatureReturn1D] = indicators.PctChange(closes, 1)
	cols[models.FeatureReturn5D] = indicators.PctChange(closes, 5)
	cols[models.FeatureReturn20D] = indicators.PctChange(closes, 20)
	cols[models.FeatureReturn60D] = indicators.PctChange(closes, 60)
	cols[models.FeatureReturn252D] = indicators.PctChange(closes, 252)

	sma20 := indicators.SMA(closes, 20)
	sma50 := indicators.SMA(closes, 50)
	sma200 := indicators.SMA(closes, 200)
	cols[models.FeatureSMA20] = sma20
	cols[models.FeatureSMA50] = sma50
	cols[models.FeatureSMA200] = sma200
	cols[models.FeaturePriceVsSMA20] = priceVs(closes, sma20)
	cols[models.FeaturePriceVsSMA50] = priceVs(closes, sma50)
	cols[models.FeaturePriceVsSMA200] = priceVs(closes, sma200)

	cols[models.FeatureEMA12] = indicators.EMA(closes, 12)
	cols[models.FeatureEMA26] = indicators.EMA(closes, 26)

	cols[models.FeatureVolatility20D] = indicators.AnnualizedVolatility(closes, 20)
	cols[models.FeatureVolatility60D] = indicators.AnnualizedVolatility(closes, 60)

	cols[models.FeatureDrawdown] = indicators.Drawdown(closes)
	cols[models.FeatureMaxDrawdown1Y] = indicators.MaxDrawdown(closes, 252)

	cols[models.FeatureVolumeRatio] = indicators.VolumeRatio(volumes, 20)
	cols[models.FeatureRSI14] = indicators.RSI(closes, 14)

	macd, signal, hist := indicators.MACD(closes)
	cols[models.FeatureMACD] = macd
	cols[models.FeatureMACDSignal] = signal
	cols[models.FeatureMACDHistogram] = hist

	bbUpper, bbLower, bbWidth, bbPosition := indicators.Bollinger(closes, 20, 2)
	cols[models.FeatureBBUpper] = bbUpper
	cols[models.FeatureBBLower] = bbLower
	cols[models.FeatureBBWidth] = bbWidth
	cols[models.FeatureBBPosition] = bbPosition

	stochK, stochD := indicators.Stochastic(highs, lows, closes, 14)
	cols[models.FeatureStochK] = stochK
	cols[models.FeatureStochD] = stochD

	cols[models.FeatureADX] = indicators.ADX(highs, lows, closes, 14)
	cols[models.FeatureATR14] = indicators.ATR(highs, lows, closes, 14)

	sanitizeColumns(cols)
	return t, nil
}

// Latest extracts the most recent row as a snapshot.
func (c *Computer) Latest(t *models.FeatureTable) (*models.FeatureSnapshot, error) {
	if t == nil || t.Len() == 0 {
		return nil, fmt.Errorf("latest snapshot: empty feature table")
	}
	last := t.Len() - 1
	return &models.FeatureSnapshot{
		Ticker:    t.Ticker,
		Features:  t.Row(last),
		LastClose: t.Closes[last],
		LastDate:  t.Dates[last],
	}, nil
}

func sanitizeBars(bars []models.Bar) []models.Bar {
	out := make([]models.Bar, 0, len(bars))
	for _, b := range bars {
		if b.Valid() {
			out = append(out, b)
		}
	}
	return out
}

func priceVs(closes, ma []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		if math.IsNaN(ma[i]) || ma[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = closes[i]/ma[i] - 1
	}
	return out
}

// sanitizeColumns turns any infinity produced by degenerate arithmetic into
// a missing value so it can never reach persisted output.
func sanitizeColumns(cols map[string][]float64) {
	for _, col := range cols {
		for i, v := range col {
			if math.IsInf(v, 0) {
				col[i] = math.NaN()
			}
		}
	}
}
