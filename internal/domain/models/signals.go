package models

// Horizon identifies one of the three fixed forecast windows.
type Horizon string

const (
	HorizonShort  Horizon = "short"  // ~22 trading days
	HorizonMedium Horizon = "medium" // ~252 trading days
	HorizonLong   Horizon = "long"   // ~756 trading days
)

// Horizons lists all horizons in canonical order.
var Horizons = []Horizon{HorizonShort, HorizonMedium, HorizonLong}

// TrendLabel is the coarse direction of a horizon signal.
type TrendLabel string

const (
	TrendBullish TrendLabel = "bullish"
	TrendBearish TrendLabel = "bearish"
	TrendNeutral TrendLabel = "neutral"
)

// ConfidenceLevel buckets a continuous confidence score.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// HorizonSignal is one predictor's output for one asset and horizon.
type HorizonSignal struct {
	Horizon         Horizon         `json:"horizon"`
	ExpectedReturn  float64         `json:"expectedReturn"`
	Trend           TrendLabel      `json:"trendLabel"`
	Confidence      float64         `json:"confidence"`
	ConfidenceLevel ConfidenceLevel `json:"confidenceLevel"`
	Probabilities   []float64       `json:"-"` // classifier only: [down, flat, up]
}

// NeutralSignal is the substitute emitted when a predictor has no trained
// backing for its horizon.
func NeutralSignal(h Horizon) HorizonSignal {
	return HorizonSignal{
		Horizon:         h,
		ExpectedReturn:  0,
		Trend:           TrendNeutral,
		Confidence:      0.3,
		ConfidenceLevel: ConfidenceLow,
	}
}

// WatchlistSignal is one rule-fired regime/divergence event for an asset.
type WatchlistSignal struct {
	Ticker          string  `json:"ticker"`
	Name            string  `json:"name,omitempty"`
	SignalPrimary   string  `json:"signalPrimary"`
	SignalSecondary string  `json:"signalSecondary"`
	Explanation     string  `json:"explanation"`
	Horizon         Horizon `json:"horizon"`
	DetectedAt      string  `json:"detectedAt,omitempty"`
}

// PredictionRecord is one persisted prediction: a horizon signal joined
// with asset metadata and the shared risk score.
type PredictionRecord struct {
	HorizonSignal
	Probabilities map[string]float64 `json:"probabilities,omitempty"` // negative/neutral/positive
	Ticker        string             `json:"ticker"`
	Name          string             `json:"name"`
	Sector        string             `json:"sector"`
	Region        string             `json:"region"`
	AssetType     string             `json:"assetType"`
	RiskScore     int                `json:"riskScore"`
}

// NamedProbabilities converts the classifier's ordered class probabilities
// to the persisted name->value form.
func NamedProbabilities(probs []float64) map[string]float64 {
	if len(probs) != 3 {
		return nil
	}
	return map[string]float64{
		"negative": probs[0],
		"neutral":  probs[1],
		"positive": probs[2],
	}
}
