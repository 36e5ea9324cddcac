package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMA(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	got := SMA(xs, 3)

	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
	assert.InDelta(t, 2.0, got[2], 1e-12)
	assert.InDelta(t, 3.0, got[3], 1e-12)
	assert.InDelta(t, 4.0, got[4], 1e-12)
}

func TestEMASeededAtFirstValue(t *testing.T) {
	xs := []float64{10, 10, 10, 10}
	got := EMA(xs, 12)
	for i, v := range got {
		assert.InDelta(t, 10.0, v, 1e-12, "index %d", i)
	}
}

func TestPctChange(t *testing.T) {
	xs := []float64{100, 110, 121}
	got := PctChange(xs, 1)

	assert.True(t, math.IsNaN(got[0]))
	assert.InDelta(t, 0.10, got[1], 1e-12)
	assert.InDelta(t, 0.10, got[2], 1e-12)
}

func TestRollingStdConstantSeriesIsZero(t *testing.T) {
	xs := make([]float64, 30)
	for i := range xs {
		xs[i] = 42
	}
	got := RollingStd(xs, 20)
	assert.InDelta(t, 0.0, got[len(got)-1], 1e-12)
}

func TestDrawdownNeverPositive(t *testing.T) {
	xs := []float64{100, 110, 105, 120, 90, 95}
	got := Drawdown(xs)
	for i, v := range got {
		require.False(t, math.IsNaN(v), "index %d", i)
		assert.LessOrEqual(t, v, 0.0, "index %d", i)
	}
	// worst point: 90 after peak 120
	assert.InDelta(t, (90.0-120.0)/120.0, got[4], 1e-12)
}

func TestMaxDrawdownBoundsWorstPoint(t *testing.T) {
	xs := []float64{100, 120, 90, 110, 80, 100}
	dd := Drawdown(xs)
	mdd := MaxDrawdown(xs, 3)
	for i := range xs {
		if i < 2 {
			assert.True(t, math.IsNaN(mdd[i]), "index %d", i)
			continue
		}
		assert.LessOrEqual(t, mdd[i], dd[i], "index %d", i)
	}
}

func TestMaxDrawdownRequiresFullWindow(t *testing.T) {
	xs := []float64{100, 120, 90, 110, 80, 100}
	mdd := MaxDrawdown(xs, 252)
	for i, v := range mdd {
		assert.True(t, math.IsNaN(v), "index %d", i)
	}
}

func TestRSIBounds(t *testing.T) {
	xs := make([]float64, 60)
	price := 100.0
	for i := range xs {
		// alternating moves keep both gains and losses in the window
		if i%2 == 0 {
			price *= 1.01
		} else {
			price *= 0.995
		}
		xs[i] = price
	}
	got := RSI(xs, 14)
	for i, v := range got {
		if math.IsNaN(v) {
			continue
		}
		assert.GreaterOrEqual(t, v, 0.0, "index %d", i)
		assert.LessOrEqual(t, v, 100.0, "index %d", i)
	}
}

func TestRSIAllGainsIsHundred(t *testing.T) {
	xs := make([]float64, 30)
	for i := range xs {
		xs[i] = 100 + float64(i)
	}
	got := RSI(xs, 14)
	assert.InDelta(t, 100.0, got[len(got)-1], 1e-12)
}

func TestRSIConstantSeriesIsUndefined(t *testing.T) {
	xs := make([]float64, 30)
	for i := range xs {
		xs[i] = 100
	}
	got := RSI(xs, 14)
	// neither gains nor losses: no defined RSI, and no division by zero
	assert.True(t, math.IsNaN(got[len(got)-1]))
}

func TestMACDHistogramIsLineMinusSignal(t *testing.T) {
	xs := make([]float64, 80)
	for i := range xs {
		xs[i] = 100 + math.Sin(float64(i)/5)*10
	}
	line, signal, hist := MACD(xs)
	for i := range xs {
		assert.InDelta(t, line[i]-signal[i], hist[i], 1e-12, "index %d", i)
	}
}

func TestBollingerBandOrdering(t *testing.T) {
	xs := make([]float64, 40)
	for i := range xs {
		xs[i] = 100 + float64(i%7)
	}
	upper, lower, width, position := Bollinger(xs, 20, 2)
	last := len(xs) - 1
	require.False(t, math.IsNaN(upper[last]))
	assert.GreaterOrEqual(t, upper[last], lower[last])
	assert.GreaterOrEqual(t, width[last], 0.0)
	assert.False(t, math.IsNaN(position[last]))
}

func TestStochasticRange(t *testing.T) {
	n := 40
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		base := 100 + float64(i%9)
		highs[i] = base + 2
		lows[i] = base - 2
		closes[i] = base
	}
	k, d := Stochastic(highs, lows, closes, 14)
	last := n - 1
	require.False(t, math.IsNaN(k[last]))
	assert.GreaterOrEqual(t, k[last], 0.0)
	assert.LessOrEqual(t, k[last], 100.0)
	require.False(t, math.IsNaN(d[last]))
}

func TestTrueRangeUsesPrevClose(t *testing.T) {
	highs := []float64{10, 12}
	lows := []float64{9, 11}
	closes := []float64{9.5, 11.5}
	tr := TrueRange(highs, lows, closes)

	assert.InDelta(t, 1.0, tr[0], 1e-12)
	// max(12-11, |12-9.5|, |11-9.5|) = 2.5
	assert.InDelta(t, 2.5, tr[1], 1e-12)
}

func TestADXDefinedAfterWarmup(t *testing.T) {
	n := 80
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		base := 100 + float64(i)*0.5
		highs[i] = base + 1
		lows[i] = base - 1
		closes[i] = base
	}
	adx := ADX(highs, lows, closes, 14)
	last := adx[n-1]
	require.False(t, math.IsNaN(last))
	assert.GreaterOrEqual(t, last, 0.0)
	assert.LessOrEqual(t, last, 100.0)
	// a steady rise is a strong directional move
	assert.Greater(t, last, 25.0)
}

func TestVolumeRatio(t *testing.T) {
	vols := make([]float64, 30)
	for i := range vols {
		vols[i] = 1000
	}
	vols[29] = 3000
	got := VolumeRatio(vols, 20)
	// window mean = (19*1000+3000)/20 = 1100
	assert.InDelta(t, 3000.0/1100.0, got[29], 1e-9)
}

func TestAnnualizedVolatilityConstantPriceIsZero(t *testing.T) {
	xs := make([]float64, 80)
	for i := range xs {
		xs[i] = 100
	}
	got := AnnualizedVolatility(xs, 60)
	assert.InDelta(t, 0.0, got[len(got)-1], 1e-12)
}
