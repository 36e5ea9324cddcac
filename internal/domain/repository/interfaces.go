package repository

import (
	"context"
	"errors"

	"BotBourse/internal/domain/models"
)

// ErrNoRunOutput is returned by result readers before the first engine
// run has persisted anything.
var ErrNoRunOutput = errors.New("no run output available")

// PriceStore loads already-fetched daily bar series per asset.
type PriceStore interface {
	LoadSeries(ctx context.Context, ticker string) (*models.PriceSeries, error)
	SaveSeries(ctx context.Context, series *models.PriceSeries) error
}

// ArtifactStore loads trained predictor backings. A nil predictor with a
// nil error means the artifact is absent and the caller should fall back
// to the neutral default.
type ArtifactStore interface {
	LoadClassifier(ctx context.Context) (Classifier, error)
	LoadRegressor(ctx context.Context) (Regressor, error)
	LoadRuleTable(ctx context.Context) (*RuleTable, error)
}

// Classifier is an opaque trained 3-class model over the fixed feature set.
type Classifier interface {
	PredictProba(features []float64) ([]float64, error)
}

// Regressor is an opaque trained regression model over the fixed feature set.
type Regressor interface {
	Predict(features []float64) (float64, error)
}

// RuleDirection tags how a feature value is transformed before weighting.
type RuleDirection string

const (
	DirectionPositive    RuleDirection = "positive"
	DirectionNegative    RuleDirection = "negative"
	DirectionNegativeAbs RuleDirection = "negative_abs"
	DirectionMeanRevert  RuleDirection = "mean_revert_50"
)

// RuleEntry is one hand-authored scoring rule.
type RuleEntry struct {
	Weight    float64       `json:"weight"`
	Direction RuleDirection `json:"direction"`
	Desc      string        `json:"desc,omitempty"`
}

// RuleTable is the declarative long-horizon scoring document.
type RuleTable struct {
	Scoring map[string]RuleEntry `json:"scoring"`
	Version string               `json:"version,omitempty"`
}

// ResultStore persists run outputs.
type ResultStore interface {
	SavePredictions(ctx context.Context, records []models.PredictionRecord) error
	SaveWatchlist(ctx context.Context, signals []models.WatchlistSignal) error
	SaveScreener(ctx context.Context, rows []models.ScreenerRow) error
	SaveFeatures(ctx context.Context, ticker string, snapshot *models.FeatureSnapshot) error
	SaveRunMeta(ctx context.Context, meta *RunMeta) error
}

// ResultReader serves the last persisted run outputs to the API layer.
type ResultReader interface {
	LoadPredictions(ctx context.Context) ([]models.PredictionRecord, error)
	LoadWatchlist(ctx context.Context) ([]models.WatchlistSignal, error)
	LoadScreener(ctx context.Context) ([]models.ScreenerRow, error)
	LoadRunMeta(ctx context.Context) (*RunMeta, error)
	LoadFeatures(ctx context.Context, ticker string) (map[string]interface{}, error)
}

// RunMeta summarizes one engine run.
type RunMeta struct {
	RunAt           string `json:"runAt"`
	AssetsTotal     int    `json:"assetsTotal"`
	AssetsProcessed int    `json:"assetsProcessed"`
	AssetsSkipped   int    `json:"assetsSkipped"`
	Defaulted       int    `json:"defaulted"`
	WatchlistSize   int    `json:"watchlistSize"`
}

// WatchlistPublisher pushes the ranked watchlist to downstream consumers.
type WatchlistPublisher interface {
	PublishWatchlist(ctx context.Context, signals []models.WatchlistSignal) error
	Close() error
}

// TrainingSink receives built datasets for the external trainer.
type TrainingSink interface {
	StoreDataset(ctx context.Context, dataset *models.Dataset) error
	Close() error
}

// Metrics abstracts run instrumentation.
type Metrics interface {
	RecordAssetProcessed(assetType string)
	RecordAssetSkipped(reason string)
	RecordSignal(horizon, trend string)
	RecordWatchlistSignal(label string)
	RecordError(kind string)
	RecordRiskScore(ticker string, score int)
	RecordStageDuration(stage string, seconds float64)
}
