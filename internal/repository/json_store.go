package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"BotBourse/internal/domain/models"
	domrepo "BotBourse/internal/domain/repository"
	applogger "BotBourse/pkg/logger"
	"BotBourse/pkg/util"
)

// priceRecord is the on-disk bar form. OHLCV fields are raw JSON values:
// upstream files occasionally carry numbers as strings, which are coerced
// and malformed rows discarded rather than failing the asset.
type priceRecord struct {
	Time   string      `json:"time"`
	Open   interface{} `json:"open"`
	High   interface{} `json:"high"`
	Low    interface{} `json:"low"`
	Close  interface{} `json:"close"`
	Volume interface{} `json:"volume"`
}

// JSONStore implements PriceStore and ResultStore over a data directory:
// prices/<ticker>.json, features/<ticker>.json and the run outputs at the
// directory root.
type JSONStore struct {
	dataDir     string
	pricesDir   string
	featuresDir string
	l           *applogger.Logger
}

// NewJSONStore creates a file-backed store rooted at dataDir.
func NewJSONStore(dataDir, pricesDir, featuresDir string, l *applogger.Logger) (*JSONStore, error) {
	for _, dir := range []string{dataDir, pricesDir, featuresDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir %s: %w", dir, err)
		}
	}
	return &JSONStore{
		dataDir:     dataDir,
		pricesDir:   pricesDir,
		featuresDir: featuresDir,
		l:           l,
	}, nil
}

func (s *JSONStore) LoadSeries(_ context.Context, ticker string) (*models.PriceSeries, error) {
	path := filepath.Join(s.pricesDir, util.SafeTicker(ticker)+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("load series %s: no price file", ticker)
		}
		return nil, fmt.Errorf("load series %s: %w", ticker, err)
	}

	var records []priceRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("load series %s: %w", ticker, err)
	}

	series := &models.PriceSeries{Ticker: ticker, Bars: make([]models.Bar, 0, len(records))}
	discarded := 0
	for _, rec := range records {
		date, ok := util.ParseDate(rec.Time)
		if !ok {
			discarded++
			continue
		}
		open, okO := util.ParseFloat(rec.Open)
		high, okH := util.ParseFloat(rec.High)
		low, okL := util.ParseFloat(rec.Low)
		cls, okC := util.ParseFloat(rec.Close)
		volume, okV := util.ParseFloat(rec.Volume)
		if !okO || !okH || !okL || !okC || !okV {
			discarded++
			continue
		}
		series.Bars = append(series.Bars, models.Bar{
			Date:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  cls,
			Volume: volume,
		})
	}
	if discarded > 0 && s.l != nil {
		s.l.Warn("price store: discarded malformed bars",
			applogger.String("ticker", ticker),
			applogger.Int("discarded", discarded),
		)
	}

	sort.SliceStable(series.Bars, func(i, j int) bool {
		return series.Bars[i].Date.Before(series.Bars[j].Date)
	})
	series.Bars = dedupeByDate(series.Bars)
	return series, nil
}

func (s *JSONStore) SaveSeries(_ context.Context, series *models.PriceSeries) error {
	records := make([]map[string]interface{}, 0, len(series.Bars))
	for _, b := range series.Bars {
		records = append(records, map[string]interface{}{
			"time":   util.FormatDate(b.Date),
			"open":   round4(b.Open),
			"high":   round4(b.High),
			"low":    round4(b.Low),
			"close":  round4(b.Close),
			"volume": b.Volume,
		})
	}
	path := filepath.Join(s.pricesDir, util.SafeTicker(series.Ticker)+".json")
	return s.writeJSON(path, records)
}

func (s *JSONStore) SavePredictions(_ context.Context, records []models.PredictionRecord) error {
	return s.writeJSON(filepath.Join(s.dataDir, "predictions.json"), records)
}

func (s *JSONStore) SaveWatchlist(_ context.Context, signals []models.WatchlistSignal) error {
	if signals == nil {
		signals = []models.WatchlistSignal{}
	}
	return s.writeJSON(filepath.Join(s.dataDir, "watchlist.json"), signals)
}

func (s *JSONStore) SaveScreener(_ context.Context, rows []models.ScreenerRow) error {
	return s.writeJSON(filepath.Join(s.dataDir, "screener.json"), rows)
}

// SaveFeatures persists the latest snapshot per ticker; missing features
// serialize as null so downstream readers see an explicit gap.
func (s *JSONStore) SaveFeatures(_ context.Context, ticker string, snapshot *models.FeatureSnapshot) error {
	doc := make(map[string]interface{}, len(snapshot.Features)+2)
	for _, name := range allFeatureNames {
		if v, ok := snapshot.Features[name]; ok {
			doc[name] = round4(v)
		} else {
			doc[name] = nil
		}
	}
	doc["last_close"] = round4(snapshot.LastClose)
	doc["last_date"] = util.FormatDate(snapshot.LastDate)

	path := filepath.Join(s.featuresDir, util.SafeTicker(ticker)+".json")
	return s.writeJSON(path, doc)
}

func (s *JSONStore) SaveRunMeta(_ context.Context, meta *domrepo.RunMeta) error {
	return s.writeJSON(filepath.Join(s.dataDir, "meta.json"), meta)
}

// LoadPredictions reads back the last persisted run output.
func (s *JSONStore) LoadPredictions(_ context.Context) ([]models.PredictionRecord, error) {
	var records []models.PredictionRecord
	if err := s.readJSON(filepath.Join(s.dataDir, "predictions.json"), &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *JSONStore) LoadWatchlist(_ context.Context) ([]models.WatchlistSignal, error) {
	var signals []models.WatchlistSignal
	if err := s.readJSON(filepath.Join(s.dataDir, "watchlist.json"), &signals); err != nil {
		return nil, err
	}
	return signals, nil
}

func (s *JSONStore) LoadScreener(_ context.Context) ([]models.ScreenerRow, error) {
	var rows []models.ScreenerRow
	if err := s.readJSON(filepath.Join(s.dataDir, "screener.json"), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *JSONStore) LoadRunMeta(_ context.Context) (*domrepo.RunMeta, error) {
	var meta domrepo.RunMeta
	if err := s.readJSON(filepath.Join(s.dataDir, "meta.json"), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadFeatures reads back a persisted snapshot, used by the signals API.
func (s *JSONStore) LoadFeatures(_ context.Context, ticker string) (map[string]interface{}, error) {
	path := filepath.Join(s.featuresDir, util.SafeTicker(ticker)+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load features %s: %w", ticker, err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("load features %s: %w", ticker, err)
	}
	return doc, nil
}

func (s *JSONStore) readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domrepo.ErrNoRunOutput
		}
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *JSONStore) writeJSON(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

var allFeatureNames = []string{
	models.FeatureReturn1D, models.FeatureReturn5D, models.FeatureReturn20D,
	models.FeatureReturn60D, models.FeatureReturn252D,
	models.FeatureSMA20, models.FeatureSMA50, models.FeatureSMA200,
	models.FeatureEMA12, models.FeatureEMA26,
	models.FeaturePriceVsSMA20, models.FeaturePriceVsSMA50, models.FeaturePriceVsSMA200,
	models.FeatureVolatility20D, models.FeatureVolatility60D,
	models.FeatureDrawdown, models.FeatureMaxDrawdown1Y,
	models.FeatureVolumeRatio,
	models.FeatureRSI14,
	models.FeatureMACD, models.FeatureMACDSignal, models.FeatureMACDHistogram,
	models.FeatureBBUpper, models.FeatureBBLower, models.FeatureBBWidth, models.FeatureBBPosition,
	models.FeatureStochK, models.FeatureStochD,
	models.FeatureADX, models.FeatureATR14,
}

func dedupeByDate(bars []models.Bar) []models.Bar {
	if len(bars) < 2 {
		return bars
	}
	out := bars[:1]
	for _, b := range bars[1:] {
		if b.Date.Equal(out[len(out)-1].Date) {
			out[len(out)-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
