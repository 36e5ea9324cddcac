package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BotBourse/internal/domain/models"
)

func makeSeries(ticker string, closes []float64) *models.PriceSeries {
	bars := make([]models.Bar, len(closes))
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = models.Bar{
			Date:   day.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1000,
		}
	}
	return &models.PriceSeries{Ticker: ticker, Bars: bars}
}

func TestComputeRejectsShortSeries(t *testing.T) {
	series := makeSeries("AAPL", []float64{100, 101, 102})
	c := NewComputer(0)

	_, err := c.Compute(series)
	require.Error(t, err)
}

func TestComputeDiscardsMalformedBars(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	series := makeSeries("MSFT", closes)
	series.Bars[10].Close = math.NaN()
	series.Bars[11].Volume = -5

	c := NewComputer(0)
	table, err := c.Compute(series)
	require.NoError(t, err)
	assert.Equal(t, 58, table.Len())
}

func TestComputeConstantPriceSeries(t *testing.T) {
	closes := make([]float64, 260)
	for i := range closes {
		closes[i] = 100
	}
	c := NewComputer(0)
	table, err := c.Compute(makeSeries("FLAT", closes))
	require.NoError(t, err)

	snap, err := c.Latest(table)
	require.NoError(t, err)

	vol20, ok := snap.Feature(models.FeatureVolatility20D)
	require.True(t, ok)
	assert.InDelta(t, 0.0, vol20, 1e-12)

	vol60, ok := snap.Feature(models.FeatureVolatility60D)
	require.True(t, ok)
	assert.InDelta(t, 0.0, vol60, 1e-12)

	dd, ok := snap.Feature(models.FeatureDrawdown)
	require.True(t, ok)
	assert.InDelta(t, 0.0, dd, 1e-12)

	// neither gains nor losses in any window: RSI is missing, and the
	// snapshot carries no NaN sentinel for it
	_, ok = snap.Feature(models.FeatureRSI14)
	assert.False(t, ok)
}

func TestComputeMonotonicRiseRSIAboveSeventy(t *testing.T) {
	closes := make([]float64, 400)
	price := 100.0
	for i := range closes {
		if i >= 340 {
			price *= 1.004
		} else {
			// mild alternation before the final rise
			if i%2 == 0 {
				price *= 1.001
			} else {
				price *= 0.999
			}
		}
		closes[i] = price
	}
	c := NewComputer(0)
	table, err := c.Compute(makeSeries("UP", closes))
	require.NoError(t, err)

	snap, err := c.Latest(table)
	require.NoError(t, err)

	rsi, ok := snap.Feature(models.FeatureRSI14)
	require.True(t, ok)
	assert.Greater(t, rsi, 70.0)
}

func TestLatestSnapshotCarriesLastBar(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.1
	}
	series := makeSeries("SAP", closes)
	c := NewComputer(0)

	table, err := c.Compute(series)
	require.NoError(t, err)
	snap, err := c.Latest(table)
	require.NoError(t, err)

	assert.Equal(t, "SAP", snap.Ticker)
	assert.InDelta(t, closes[79], snap.LastClose, 1e-12)
	assert.Equal(t, series.Bars[79].Date, snap.LastDate)
}

func TestSnapshotValuesAllFinite(t *testing.T) {
	closes := make([]float64, 300)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/9)
	}
	c := NewComputer(0)
	table, err := c.Compute(makeSeries("WAVE", closes))
	require.NoError(t, err)
	snap, err := c.Latest(table)
	require.NoError(t, err)

	for name, v := range snap.Features {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "feature %s", name)
	}
}
