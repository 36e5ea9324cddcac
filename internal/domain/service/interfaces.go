package service

import (
	"BotBourse/internal/domain/models"
)

// HorizonPredictor turns the latest feature snapshot into a directional
// signal for one horizon.
type HorizonPredictor interface {
	Horizon() models.Horizon
	Predict(snapshot *models.FeatureSnapshot) (models.HorizonSignal, error)
}

// RegimeDetector runs rule predicates over a snapshot; each predicate may
// emit zero or one watchlist signal.
type RegimeDetector interface {
	Detect(snapshot *models.FeatureSnapshot) []models.WatchlistSignal
}

// RiskScorer maps volatility and drawdown features to a 1..5 risk bucket.
type RiskScorer interface {
	Score(snapshot *models.FeatureSnapshot) int
}
