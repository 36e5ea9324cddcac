package usecase

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BotBourse/internal/domain/models"
	domrepo "BotBourse/internal/domain/repository"
	"BotBourse/internal/domain/service"
	"BotBourse/internal/services/features"
	"BotBourse/internal/services/predictors"
	"BotBourse/internal/services/regime"
	"BotBourse/pkg/logger"
)

type memPriceStore struct {
	mu     sync.Mutex
	series map[string]*models.PriceSeries
}

func (s *memPriceStore) LoadSeries(_ context.Context, ticker string) (*models.PriceSeries, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps, ok := s.series[ticker]
	if !ok {
		return nil, fmt.Errorf("no series for %s", ticker)
	}
	return ps, nil
}

func (s *memPriceStore) SaveSeries(_ context.Context, series *models.PriceSeries) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series[series.Ticker] = series
	return nil
}

type memResultStore struct {
	mu          sync.Mutex
	predictions []models.PredictionRecord
	watchlist   []models.WatchlistSignal
	screener    []models.ScreenerRow
	features    map[string]*models.FeatureSnapshot
	meta        *domrepo.RunMeta
}

func (s *memResultStore) SavePredictions(_ context.Context, records []models.PredictionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.predictions = records
	return nil
}

func (s *memResultStore) SaveWatchlist(_ context.Context, signals []models.WatchlistSignal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchlist = signals
	return nil
}

func (s *memResultStore) SaveScreener(_ context.Context, rows []models.ScreenerRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screener = rows
	return nil
}

func (s *memResultStore) SaveFeatures(_ context.Context, ticker string, snapshot *models.FeatureSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.features == nil {
		s.features = make(map[string]*models.FeatureSnapshot)
	}
	s.features[ticker] = snapshot
	return nil
}

func (s *memResultStore) SaveRunMeta(_ context.Context, meta *domrepo.RunMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta = meta
	return nil
}

type noopMetrics struct{}

func (noopMetrics) RecordAssetProcessed(string)        {}
func (noopMetrics) RecordAssetSkipped(string)          {}
func (noopMetrics) RecordSignal(string, string)        {}
func (noopMetrics) RecordWatchlistSignal(string)       {}
func (noopMetrics) RecordError(string)                 {}
func (noopMetrics) RecordRiskScore(string, int)        {}
func (noopMetrics) RecordStageDuration(string, float64) {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	require.NoError(t, err)
	return log
}

func syntheticSeries(ticker string, n int) *models.PriceSeries {
	bars := make([]models.Bar, n)
	day := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		c := 100 + 10*math.Sin(float64(i)/9)
		bars[i] = models.Bar{
			Date:   day.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1000 + float64(i%50),
		}
	}
	return &models.PriceSeries{Ticker: ticker, Bars: bars}
}

func newTestEngine(t *testing.T, prices domrepo.PriceStore, results domrepo.ResultStore, universe []models.AssetMeta, opts ...Option) *Engine {
	t.Helper()
	return NewEngine(
		universe,
		features.NewComputer(0),
		[]service.HorizonPredictor{
			predictors.NewShortTermClassifier(nil),
			predictors.NewMediumTermRegressor(nil),
			predictors.NewLongTermRuleScorer(nil),
		},
		predictors.NewRiskScorer(),
		regime.NewDetector(),
		prices,
		results,
		noopMetrics{},
		testLogger(t),
		opts...,
	)
}

func TestRunSkipsFailingAssetsAndCompletes(t *testing.T) {
	prices := &memPriceStore{series: map[string]*models.PriceSeries{
		"GOOD":  syntheticSeries("GOOD", 300),
		"SHORT": syntheticSeries("SHORT", 20),
	}}
	results := &memResultStore{}
	universe := []models.AssetMeta{
		{Ticker: "GOOD", Name: "Good Corp", Sector: "Tech", Region: "US", AssetType: "stock"},
		{Ticker: "SHORT", Name: "Short Corp", Sector: "Tech", Region: "US", AssetType: "stock"},
		{Ticker: "MISSING", Name: "Missing Corp", Sector: "Tech", Region: "US", AssetType: "stock"},
	}

	engine := newTestEngine(t, prices, results, universe)
	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.AssetsTotal)
	assert.Equal(t, 1, report.AssetsProcessed)
	assert.Equal(t, 2, report.AssetsSkipped)

	// one record per horizon for the surviving asset
	require.Len(t, results.predictions, 3)
	seen := map[models.Horizon]bool{}
	for _, rec := range results.predictions {
		assert.Equal(t, "GOOD", rec.Ticker)
		assert.Equal(t, "Good Corp", rec.Name)
		seen[rec.Horizon] = true
	}
	assert.Len(t, seen, 3)

	require.NotNil(t, results.meta)
	assert.Equal(t, 1, results.meta.AssetsProcessed)
	assert.Equal(t, 2, results.meta.AssetsSkipped)
}

func TestRunMissingArtifactsYieldNeutralSignals(t *testing.T) {
	prices := &memPriceStore{series: map[string]*models.PriceSeries{
		"GOOD": syntheticSeries("GOOD", 300),
	}}
	results := &memResultStore{}
	universe := []models.AssetMeta{{Ticker: "GOOD", Name: "Good Corp", AssetType: "stock"}}

	engine := newTestEngine(t, prices, results, universe)
	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	// no predictor has a backing artifact, so every horizon emits the
	// neutral default
	assert.Equal(t, 3, report.Defaulted)
	require.Len(t, results.predictions, 3)
	for _, rec := range results.predictions {
		assert.Zero(t, rec.ExpectedReturn)
		assert.Equal(t, models.TrendNeutral, rec.Trend)
		assert.InDelta(t, 0.3, rec.Confidence, 1e-12)
		assert.Equal(t, models.ConfidenceLow, rec.ConfidenceLevel)
	}
}

func TestRunWatchlistRankedAndTruncated(t *testing.T) {
	prices := &memPriceStore{series: map[string]*models.PriceSeries{}}
	results := &memResultStore{}
	var universe []models.AssetMeta
	// every asset ends on a volume spike so the volume anomaly fires
	for i := 0; i < 20; i++ {
		ticker := fmt.Sprintf("A%02d", i)
		series := syntheticSeries(ticker, 300)
		series.Bars[len(series.Bars)-1].Volume *= 8
		prices.series[ticker] = series
		universe = append(universe, models.AssetMeta{Ticker: ticker, Name: ticker, AssetType: "stock"})
	}

	engine := newTestEngine(t, prices, results, universe, WithWatchlistSize(12))
	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Greater(t, report.WatchlistDetected, 12)
	assert.Len(t, results.watchlist, 12)

	for i := 1; i < len(results.watchlist); i++ {
		assert.LessOrEqual(t, results.watchlist[i-1].SignalPrimary, results.watchlist[i].SignalPrimary)
	}
	for _, sig := range results.watchlist {
		assert.NotEmpty(t, sig.Name)
		assert.NotEmpty(t, sig.DetectedAt)
	}
}

func TestRunScreenerRowsFiniteOrNull(t *testing.T) {
	prices := &memPriceStore{series: map[string]*models.PriceSeries{
		"GOOD": syntheticSeries("GOOD", 300),
	}}
	results := &memResultStore{}
	universe := []models.AssetMeta{{Ticker: "GOOD", Name: "Good Corp", AssetType: "stock"}}

	engine := newTestEngine(t, prices, results, universe)
	_, err := engine.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, results.screener, 1)
	row := results.screener[0]
	assert.Greater(t, row.Price, 0.0)
	assert.GreaterOrEqual(t, row.RiskScore, 1)
	assert.LessOrEqual(t, row.RiskScore, 5)
	for _, p := range []*float64{
		row.RSI, row.MACDHistogram, row.ADX, row.StochK, row.BBPosition,
		row.BBWidth, row.VolumeRatio, row.Volatility20D, row.Volatility60D,
		row.Drawdown, row.Return5D, row.Return20D, row.Return60D,
	} {
		if p != nil {
			assert.False(t, math.IsNaN(*p) || math.IsInf(*p, 0))
		}
	}
}

func TestRunResultsAreDeterministicAcrossWorkerCounts(t *testing.T) {
	universe := []models.AssetMeta{
		{Ticker: "A", Name: "A", AssetType: "stock"},
		{Ticker: "B", Name: "B", AssetType: "stock"},
		{Ticker: "C", Name: "C", AssetType: "etf"},
	}
	series := map[string]*models.PriceSeries{
		"A": syntheticSeries("A", 300),
		"B": syntheticSeries("B", 320),
		"C": syntheticSeries("C", 340),
	}

	run := func(workers int) *memResultStore {
		results := &memResultStore{}
		engine := newTestEngine(t, &memPriceStore{series: series}, results, universe, WithWorkers(workers))
		_, err := engine.Run(context.Background())
		require.NoError(t, err)
		return results
	}

	serial := run(1)
	parallel := run(8)
	assert.Equal(t, serial.predictions, parallel.predictions)
	assert.Equal(t, serial.screener, parallel.screener)
}
