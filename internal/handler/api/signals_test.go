package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BotBourse/internal/domain/models"
	domrepo "BotBourse/internal/domain/repository"
	xcache "BotBourse/pkg/cache"
	"BotBourse/pkg/logger"
)

type stubReader struct {
	predictions []models.PredictionRecord
	watchlist   []models.WatchlistSignal
	screener    []models.ScreenerRow
	meta        *domrepo.RunMeta
	features    map[string]map[string]interface{}
	loads       int
}

func (s *stubReader) LoadPredictions(context.Context) ([]models.PredictionRecord, error) {
	s.loads++
	if s.predictions == nil {
		return nil, domrepo.ErrNoRunOutput
	}
	return s.predictions, nil
}

func (s *stubReader) LoadWatchlist(context.Context) ([]models.WatchlistSignal, error) {
	if s.watchlist == nil {
		return nil, domrepo.ErrNoRunOutput
	}
	return s.watchlist, nil
}

func (s *stubReader) LoadScreener(context.Context) ([]models.ScreenerRow, error) {
	if s.screener == nil {
		return nil, domrepo.ErrNoRunOutput
	}
	return s.screener, nil
}

func (s *stubReader) LoadRunMeta(context.Context) (*domrepo.RunMeta, error) {
	if s.meta == nil {
		return nil, domrepo.ErrNoRunOutput
	}
	return s.meta, nil
}

func (s *stubReader) LoadFeatures(_ context.Context, ticker string) (map[string]interface{}, error) {
	doc, ok := s.features[ticker]
	if !ok {
		return nil, domrepo.ErrNoRunOutput
	}
	return doc, nil
}

func newTestHandler(t *testing.T, reader *stubReader) (*echo.Echo, *SignalsHandler) {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	require.NoError(t, err)
	h := NewSignalsHandler(reader, log)
	e := echo.New()
	h.RegisterRoutes(e)
	return e, h
}

func doRequest(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func samplePredictions() []models.PredictionRecord {
	mk := func(ticker string, h models.Horizon, trend models.TrendLabel) models.PredictionRecord {
		return models.PredictionRecord{
			HorizonSignal: models.HorizonSignal{
				Horizon:         h,
				ExpectedReturn:  0.01,
				Trend:           trend,
				Confidence:      0.5,
				ConfidenceLevel: models.ConfidenceMedium,
			},
			Probabilities: map[string]float64{"negative": 0.2, "neutral": 0.3, "positive": 0.5},
			Ticker:        ticker,
			Name:          ticker + " Corp",
			RiskScore:     2,
		}
	}
	return []models.PredictionRecord{
		mk("AAA", models.HorizonShort, models.TrendBullish),
		mk("AAA", models.HorizonMedium, models.TrendNeutral),
		mk("BBB", models.HorizonShort, models.TrendBearish),
	}
}

func decodeRows(t *testing.T, rec *httptest.ResponseRecorder) ([]map[string]interface{}, float64) {
	t.Helper()
	var envelope struct {
		Status int `json:"status"`
		Data   struct {
			Rows  []map[string]interface{} `json:"rows"`
			Total float64                  `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data.Rows, envelope.Data.Total
}

func TestPredictionsFilterByHorizonAndTicker(t *testing.T) {
	e, _ := newTestHandler(t, &stubReader{predictions: samplePredictions()})

	rec := doRequest(e, "/api/v1/predictions?horizon=short")
	require.Equal(t, http.StatusOK, rec.Code)
	rows, total := decodeRows(t, rec)
	assert.Equal(t, float64(2), total)
	for _, row := range rows {
		assert.Equal(t, "short", row["horizon"])
	}

	rec = doRequest(e, "/api/v1/predictions?ticker=BBB")
	rows, total = decodeRows(t, rec)
	assert.Equal(t, float64(1), total)
	assert.Equal(t, "BBB", rows[0]["ticker"])
}

func TestPredictionsRejectsUnknownHorizon(t *testing.T) {
	e, _ := newTestHandler(t, &stubReader{predictions: samplePredictions()})

	rec := doRequest(e, "/api/v1/predictions?horizon=weekly")
	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Status int `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, http.StatusBadRequest, envelope.Status)
}

func TestPredictionsBeforeFirstRunIsNotFound(t *testing.T) {
	e, _ := newTestHandler(t, &stubReader{})

	rec := doRequest(e, "/api/v1/predictions")
	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Status int `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, http.StatusNotFound, envelope.Status)
}

func TestPredictionsServedFromCacheOnRepeat(t *testing.T) {
	reader := &stubReader{predictions: samplePredictions()}
	e, h := newTestHandler(t, reader)
	mem := xcache.NewMemoryCache(xcache.WithMemoryMaxSize(64))
	defer mem.Close()
	h.SetCache(mem)

	doRequest(e, "/api/v1/predictions")
	doRequest(e, "/api/v1/predictions")
	assert.Equal(t, 1, reader.loads)
}

func TestScreenerFilters(t *testing.T) {
	reader := &stubReader{screener: []models.ScreenerRow{
		{Ticker: "AAA", Sector: "Tech", Region: "US", AssetType: "stock", RiskScore: 2},
		{Ticker: "BBB", Sector: "Energy", Region: "EU", AssetType: "stock", RiskScore: 4},
		{Ticker: "CCC", Sector: "Tech", Region: "US", AssetType: "etf", RiskScore: 1},
	}}
	e, _ := newTestHandler(t, reader)

	rec := doRequest(e, "/api/v1/screener?sector=Tech&maxRisk=2")
	rows, total := decodeRows(t, rec)
	require.Equal(t, float64(2), total)
	for _, row := range rows {
		assert.Equal(t, "Tech", row["sector"])
	}

	rec = doRequest(e, "/api/v1/screener?assetType=etf")
	rows, _ = decodeRows(t, rec)
	require.Len(t, rows, 1)
	assert.Equal(t, "CCC", rows[0]["ticker"])
}

func TestWatchlistAndMeta(t *testing.T) {
	reader := &stubReader{
		watchlist: []models.WatchlistSignal{{
			Ticker:        "AAA",
			Name:          "AAA Corp",
			SignalPrimary: "Volume anomaly detected",
			Horizon:       models.HorizonShort,
			DetectedAt:    "2026-08-28",
		}},
		meta: &domrepo.RunMeta{RunAt: "2026-08-28T06:00:00Z", AssetsTotal: 10, AssetsProcessed: 9},
	}
	e, _ := newTestHandler(t, reader)

	rec := doRequest(e, "/api/v1/watchlist")
	rows, total := decodeRows(t, rec)
	assert.Equal(t, float64(1), total)
	assert.Equal(t, "Volume anomaly detected", rows[0]["signalPrimary"])

	rec = doRequest(e, "/api/v1/meta")
	var envelope struct {
		Data domrepo.RunMeta `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 10, envelope.Data.AssetsTotal)
}

func TestFeaturesEndpoint(t *testing.T) {
	reader := &stubReader{features: map[string]map[string]interface{}{
		"AAA": {"rsi_14": 55.2, "last_close": 101.5, "last_date": "2026-08-28"},
	}}
	e, _ := newTestHandler(t, reader)

	rec := doRequest(e, "/api/v1/features/AAA")
	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 55.2, envelope.Data["rsi_14"])

	rec = doRequest(e, "/api/v1/features/ZZZ")
	var missing struct {
		Status int `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &missing))
	assert.Equal(t, http.StatusNotFound, missing.Status)
}

func TestHealthz(t *testing.T) {
	e, _ := newTestHandler(t, &stubReader{})
	rec := doRequest(e, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
