package models

import "math"

// ScreenerRow is the flattened per-asset view merging metadata, market
// data, the latest feature values and all horizon predictions. Nullable
// floats are pointers so missing values serialize as null, never as NaN
// or infinity.
type ScreenerRow struct {
	Ticker    string `json:"ticker"`
	Name      string `json:"name"`
	Sector    string `json:"sector"`
	Region    string `json:"region"`
	AssetType string `json:"assetType"`
	Exchange  string `json:"exchange"`

	Price         float64  `json:"price"`
	ChangePercent float64  `json:"changePercent"`
	MarketCap     *float64 `json:"marketCap"`
	PERatio       *float64 `json:"peRatio"`
	DividendYield *float64 `json:"dividendYield"`
	Volume        *float64 `json:"volume"`

	RSI           *float64 `json:"rsi"`
	MACDHistogram *float64 `json:"macdHistogram"`
	ADX           *float64 `json:"adx"`
	StochK        *float64 `json:"stochK"`
	BBPosition    *float64 `json:"bbPosition"`
	BBWidth       *float64 `json:"bbWidth"`
	VolumeRatio   *float64 `json:"volumeRatio"`
	Volatility20D *float64 `json:"volatility20d"`
	Volatility60D *float64 `json:"volatility60d"`
	Drawdown      *float64 `json:"drawdown"`
	Return5D      *float64 `json:"return5d"`
	Return20D     *float64 `json:"return20d"`
	Return60D     *float64 `json:"return60d"`
	PriceVsSMA20  *float64 `json:"priceVsSma20"`
	PriceVsSMA50  *float64 `json:"priceVsSma50"`
	PriceVsSMA200 *float64 `json:"priceVsSma200"`

	RiskScore        int             `json:"riskScore"`
	ShortTrend       TrendLabel      `json:"shortTrend"`
	ShortReturn      float64         `json:"shortReturn"`
	ShortConfidence  ConfidenceLevel `json:"shortConfidence"`
	MediumTrend      TrendLabel      `json:"mediumTrend"`
	MediumReturn     float64         `json:"mediumReturn"`
	MediumConfidence ConfidenceLevel `json:"mediumConfidence"`
	LongTrend        TrendLabel      `json:"longTrend"`
	LongReturn       float64         `json:"longReturn"`
	LongConfidence   ConfidenceLevel `json:"longConfidence"`
}

// FinitePtr returns a pointer to v when v is finite, nil otherwise.
func FinitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
