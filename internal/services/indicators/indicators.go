package indicators

import "math"

var nan = math.NaN()

// SMA computes a simple moving average over window w. Values are NaN until
// w observations exist.
func SMA(xs []float64, w int) []float64 {
	out := fill(len(xs))
	if w <= 0 || len(xs) < w {
		return out
	}
	sum := 0.0
	for i, x := range xs {
		sum += x
		if i >= w {
			sum -= xs[i-w]
		}
		if i >= w-1 {
			out[i] = sum / float64(w)
		}
	}
	return out
}

// EMA computes an exponential moving average with smoothing 2/(span+1),
// seeded at the first observation.
func EMA(xs []float64, span int) []float64 {
	out := fill(len(xs))
	if span <= 0 || len(xs) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = xs[0]
	for i := 1; i < len(xs); i++ {
		out[i] = alpha*xs[i] + (1-alpha)*out[i-1]
	}
	return out
}

// PctChange computes (x[t]/x[t-k])-1, NaN for the first k observations and
// wherever the base value is zero.
func PctChange(xs []float64, k int) []float64 {
	out := fill(len(xs))
	if k <= 0 {
		return out
	}
	for i := k; i < len(xs); i++ {
		base := xs[i-k]
		if base == 0 {
			continue
		}
		out[i] = xs[i]/base - 1
	}
	return out
}

// RollingStd computes the rolling sample standard deviation over window w.
func RollingStd(xs []float64, w int) []float64 {
	out := fill(len(xs))
	if w <= 1 || len(xs) < w {
		return out
	}
	for i := w - 1; i < len(xs); i++ {
		sum, sum2 := 0.0, 0.0
		for j := i - w + 1; j <= i; j++ {
			sum += xs[j]
			sum2 += xs[j] * xs[j]
		}
		n := float64(w)
		mean := sum / n
		variance := (sum2 - n*mean*mean) / (n - 1)
		if variance < 0 {
			variance = 0
		}
		out[i] = math.Sqrt(variance)
	}
	return out
}

// RollingMean computes the rolling mean over window w, NaN while the window
// is incomplete or contains NaN values.
func RollingMean(xs []float64, w int) []float64 {
	out := fill(len(xs))
	if w <= 0 || len(xs) < w {
		return out
	}
	for i := w - 1; i < len(xs); i++ {
		sum := 0.0
		ok := true
		for j := i - w + 1; j <= i; j++ {
			if math.IsNaN(xs[j]) {
				ok = false
				break
			}
			sum += xs[j]
		}
		if ok {
			out[i] = sum / float64(w)
		}
	}
	return out
}

// RollingMin computes the rolling minimum over window w. Like the other
// rolling statistics, no value exists until a full window of observations
// is available.
func RollingMin(xs []float64, w int) []float64 {
	out := fill(len(xs))
	if w <= 0 || len(xs) < w {
		return out
	}
	for i := w - 1; i < len(xs); i++ {
		m := math.Inf(1)
		ok := true
		for j := i - w + 1; j <= i; j++ {
			if math.IsNaN(xs[j]) {
				ok = false
				break
			}
			if xs[j] < m {
				m = xs[j]
			}
		}
		if ok {
			out[i] = m
		}
	}
	return out
}

// AnnualizedVolatility is the rolling standard deviation of 1-period
// returns scaled by sqrt(252).
func AnnualizedVolatility(closes []float64, w int) []float64 {
	rets := PctChange(closes, 1)
	out := fill(len(closes))
	if w <= 1 || len(closes) < w+1 {
		return out
	}
	// the first return is NaN, so the window is complete one bar later
	for i := w; i < len(rets); i++ {
		sum, sum2 := 0.0, 0.0
		for j := i - w + 1; j <= i; j++ {
			sum += rets[j]
			sum2 += rets[j] * rets[j]
		}
		n := float64(w)
		mean := sum / n
		variance := (sum2 - n*mean*mean) / (n - 1)
		if variance < 0 {
			variance = 0
		}
		out[i] = math.Sqrt(variance) * math.Sqrt(252)
	}
	return out
}

// Drawdown computes (close - runningMax)/runningMax per observation; always
// less than or equal to zero.
func Drawdown(closes []float64) []float64 {
	out := fill(len(closes))
	runMax := math.Inf(-1)
	for i, c := range closes {
		if c > runMax {
			runMax = c
		}
		if runMax != 0 {
			out[i] = (c - runMax) / runMax
		}
	}
	return out
}

// MaxDrawdown returns the rolling minimum of the drawdown series over w
// observations; the first w-1 values are undefined.
func MaxDrawdown(closes []float64, w int) []float64 {
	return RollingMin(Drawdown(closes), w)
}

// RSI computes the relative strength index using w-period rolling means of
// gains and losses. A zero average loss with positive gains resolves to
// 100, never a division by zero; a window with neither gains nor losses
// has no defined RSI.
func RSI(closes []float64, w int) []float64 {
	out := fill(len(closes))
	if len(closes) < w+1 {
		return out
	}
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	gains[0], losses[0] = nan, nan
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gains[i] = math.Max(delta, 0)
		losses[i] = math.Max(-delta, 0)
	}
	avgGain := RollingMean(gains, w)
	avgLoss := RollingMean(losses, w)
	for i := range closes {
		g, l := avgGain[i], avgLoss[i]
		if math.IsNaN(g) || math.IsNaN(l) {
			continue
		}
		if l == 0 {
			if g > 0 {
				out[i] = 100
			}
			continue
		}
		rs := g / l
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// MACD returns the MACD line (EMA12-EMA26), its 9-period signal line and
// the histogram.
func MACD(closes []float64) (line, signal, hist []float64) {
	ema12 := EMA(closes, 12)
	ema26 := EMA(closes, 26)
	line = fill(len(closes))
	for i := range closes {
		line[i] = ema12[i] - ema26[i]
	}
	signal = EMA(line, 9)
	hist = fill(len(closes))
	for i := range closes {
		hist[i] = line[i] - signal[i]
	}
	return line, signal, hist
}

// Bollinger returns the upper band, lower band, relative width and band
// position for a 20-period window at 2 standard deviations. Position may
// fall outside [0,1] when price pierces a band.
func Bollinger(closes []float64, w int, k float64) (upper, lower, width, position []float64) {
	sma := SMA(closes, w)
	std := RollingStd(closes, w)
	n := len(closes)
	upper, lower = fill(n), fill(n)
	width, position = fill(n), fill(n)
	for i := 0; i < n; i++ {
		if math.IsNaN(sma[i]) || math.IsNaN(std[i]) {
			continue
		}
		upper[i] = sma[i] + k*std[i]
		lower[i] = sma[i] - k*std[i]
		if closes[i] != 0 {
			width[i] = (upper[i] - lower[i]) / closes[i]
		}
		if span := upper[i] - lower[i]; span != 0 {
			position[i] = (closes[i] - lower[i]) / span
		}
	}
	return upper, lower, width, position
}

// Stochastic returns %K over window w and %D as a 3-period SMA of %K.
func Stochastic(highs, lows, closes []float64, w int) (k, d []float64) {
	n := len(closes)
	k = fill(n)
	if n < w {
		return k, fill(n)
	}
	for i := w - 1; i < n; i++ {
		hi, lo := highs[i], lows[i]
		for j := i - w + 1; j <= i; j++ {
			if highs[j] > hi {
				hi = highs[j]
			}
			if lows[j] < lo {
				lo = lows[j]
			}
		}
		if span := hi - lo; span != 0 {
			k[i] = (closes[i] - lo) / span * 100
		}
	}
	d = RollingMean(k, 3)
	return k, d
}

// TrueRange computes max(high-low, |high-prevClose|, |low-prevClose|); the
// first observation falls back to high-low.
func TrueRange(highs, lows, closes []float64) []float64 {
	n := len(closes)
	out := fill(n)
	for i := 0; i < n; i++ {
		hl := highs[i] - lows[i]
		if i == 0 {
			out[i] = hl
			continue
		}
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

// ATR is the w-period rolling mean of true range.
func ATR(highs, lows, closes []float64, w int) []float64 {
	return RollingMean(TrueRange(highs, lows, closes), w)
}

// ADX computes the average directional index. Directional deltas count only
// when one direction dominates the other and is itself positive.
func ADX(highs, lows, closes []float64, w int) []float64 {
	n := len(closes)
	out := fill(n)
	if n < 2*w {
		return out
	}

	plusDM := fill(n)
	minusDM := fill(n)
	for i := 1; i < n; i++ {
		up := highs[i] - highs[i-1]
		down := lows[i-1] - lows[i]
		plusDM[i], minusDM[i] = 0, 0
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	tr := TrueRange(highs, lows, closes)
	atr := RollingMean(tr, w)
	plusSmooth := RollingMean(plusDM, w)
	minusSmooth := RollingMean(minusDM, w)

	dx := fill(n)
	for i := 0; i < n; i++ {
		if math.IsNaN(atr[i]) || atr[i] == 0 || math.IsNaN(plusSmooth[i]) || math.IsNaN(minusSmooth[i]) {
			continue
		}
		plusDI := plusSmooth[i] / atr[i] * 100
		minusDI := minusSmooth[i] / atr[i] * 100
		if sum := plusDI + minusDI; sum != 0 {
			dx[i] = math.Abs(plusDI-minusDI) / sum * 100
		}
	}
	return RollingMean(dx, w)
}

// VolumeRatio divides current volume by its w-period rolling mean.
func VolumeRatio(volumes []float64, w int) []float64 {
	avg := RollingMean(volumes, w)
	out := fill(len(volumes))
	for i := range volumes {
		if math.IsNaN(avg[i]) || avg[i] == 0 {
			continue
		}
		out[i] = volumes[i] / avg[i]
	}
	return out
}

func fill(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = nan
	}
	return out
}
