package regime

import (
	"fmt"
	"math"

	"BotBourse/internal/domain/models"
)

// Detector runs the independent regime/divergence predicates over one
// snapshot. Each predicate may emit zero or one watchlist signal, and
// several may fire for the same asset.
type Detector struct{}

// NewDetector creates a regime detector.
func NewDetector() *Detector {
	return &Detector{}
}

func (d *Detector) Detect(snapshot *models.FeatureSnapshot) []models.WatchlistSignal {
	var signals []models.WatchlistSignal

	rsi, hasRSI := snapshot.Feature(models.FeatureRSI14)
	vol20, hasVol20 := snapshot.Feature(models.FeatureVolatility20D)
	vol60, hasVol60 := snapshot.Feature(models.FeatureVolatility60D)
	volumeRatio, hasVolumeRatio := snapshot.Feature(models.FeatureVolumeRatio)
	priceVsSMA200, hasPriceVsSMA200 := snapshot.Feature(models.FeaturePriceVsSMA200)
	adx, hasADX := snapshot.Feature(models.FeatureADX)
	return20, hasReturn20 := snapshot.Feature(models.FeatureReturn20D)
	macdHist, hasMACDHist := snapshot.Feature(models.FeatureMACDHistogram)

	ticker := snapshot.Ticker

	// 1. Volatility regime shift: 20d vol > 2x the 60d average
	if hasVol20 && vol20 != 0 && hasVol60 && vol60 > 0.05 {
		if vol20/vol60 > 2.0 {
			signals = append(signals, models.WatchlistSignal{
				Ticker:          ticker,
				SignalPrimary:   "Volatility regime shift",
				SignalSecondary: fmt.Sprintf("20d vol (%.0f%%) is %.1fx the 60d average", vol20*100, vol20/vol60),
				Explanation: "Sharp increase in volatility indicates a regime change. " +
					"This often precedes significant directional moves.",
				Horizon: models.HorizonShort,
			})
		}
	}

	// 2. Trend reversal: price crosses 200d MA with extreme RSI
	if hasRSI && hasPriceVsSMA200 {
		if math.Abs(priceVsSMA200) < 0.03 && (rsi < 30 || rsi > 70) {
			direction := "overbought near resistance"
			if rsi < 30 {
				direction = "oversold near support"
			}
			signals = append(signals, models.WatchlistSignal{
				Ticker:          ticker,
				SignalPrimary:   "Trend reversal candidate",
				SignalSecondary: fmt.Sprintf("RSI at %.0f, price near 200d MA", rsi),
				Explanation: fmt.Sprintf("Price is testing the 200-day moving average while RSI is %s. "+
					"This combination often signals a reversal point.", direction),
				Horizon: models.HorizonShort,
			})
		}
	}

	// 3. Volume anomaly: volume > 3x the 20-day average
	if hasVolumeRatio && volumeRatio > 3.0 {
		signals = append(signals, models.WatchlistSignal{
			Ticker:          ticker,
			SignalPrimary:   "Volume anomaly detected",
			SignalSecondary: fmt.Sprintf("Volume is %.1fx the 20-day average", volumeRatio),
			Explanation: "Unusually high trading volume often signals institutional activity " +
				"or a catalyst event. Monitor for directional breakout.",
			Horizon: models.HorizonShort,
		})
	}

	// 4. RSI/MACD divergence against the 20d move
	if hasRSI && rsi != 0 && hasMACDHist && hasReturn20 {
		if return20 < -0.05 && rsi > 50 && macdHist > 0 {
			signals = append(signals, models.WatchlistSignal{
				Ticker:          ticker,
				SignalPrimary:   "Bullish divergence",
				SignalSecondary: "Price down but momentum indicators positive",
				Explanation: fmt.Sprintf("Price has dropped %.1f%% over 20 days but RSI (%.0f) "+
					"and MACD remain positive, suggesting the decline may be temporary.", math.Abs(return20)*100, rsi),
				Horizon: models.HorizonShort,
			})
		} else if return20 > 0.05 && rsi < 50 && macdHist < 0 {
			signals = append(signals, models.WatchlistSignal{
				Ticker:          ticker,
				SignalPrimary:   "Bearish divergence",
				SignalSecondary: "Price up but momentum indicators negative",
				Explanation: fmt.Sprintf("Price has gained %.1f%% over 20 days but RSI (%.0f) "+
					"and MACD are negative, suggesting the rally may stall.", return20*100, rsi),
				Horizon: models.HorizonShort,
			})
		}
	}

	// 5. Strong trend: high ADX with a directional 20d move
	if hasADX && adx > 40 && hasReturn20 {
		direction := "downward"
		if return20 > 0 {
			direction = "upward"
		}
		signals = append(signals, models.WatchlistSignal{
			Ticker:          ticker,
			SignalPrimary:   fmt.Sprintf("Strong %s trend", direction),
			SignalSecondary: fmt.Sprintf("ADX at %.0f with %.1f%% move", adx, math.Abs(return20)*100),
			Explanation: "ADX above 40 indicates a strong established trend. " +
				"Trend-following strategies tend to outperform in this regime.",
			Horizon: models.HorizonMedium,
		})
	}

	return signals
}
