package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"BotBourse/internal/domain/models"
	domrepo "BotBourse/internal/domain/repository"
	"BotBourse/internal/domain/service"
	"BotBourse/internal/services/features"
	"BotBourse/pkg/logger"
	"BotBourse/pkg/util"
)

// Option configures Engine.
type Option func(*Engine)

// Engine runs the per-asset signal pipeline: features, three horizon
// predictions, risk score and regime detection, then aggregates the
// per-asset results into the persisted outputs. Per-asset work is
// independent and fans out over a worker pool; a failing asset is skipped,
// never fatal to the run.
type Engine struct {
	universe      []models.AssetMeta
	computer      *features.Computer
	predictors    []service.HorizonPredictor
	riskScorer    service.RiskScorer
	detector      service.RegimeDetector
	prices        domrepo.PriceStore
	results       domrepo.ResultStore
	metrics       domrepo.Metrics
	publisher     domrepo.WatchlistPublisher
	log           *logger.Logger
	workers       int
	watchlistSize int
}

// NewEngine assembles the signal engine.
func NewEngine(
	universe []models.AssetMeta,
	computer *features.Computer,
	predictors []service.HorizonPredictor,
	riskScorer service.RiskScorer,
	detector service.RegimeDetector,
	prices domrepo.PriceStore,
	results domrepo.ResultStore,
	metrics domrepo.Metrics,
	log *logger.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		universe:      universe,
		computer:      computer,
		predictors:    predictors,
		riskScorer:    riskScorer,
		detector:      detector,
		prices:        prices,
		results:       results,
		metrics:       metrics,
		log:           log,
		workers:       8,
		watchlistSize: 12,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithWorkers sets the per-asset concurrency.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithWatchlistSize sets the ranked watchlist truncation.
func WithWatchlistSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.watchlistSize = n
		}
	}
}

// WithPublisher attaches a downstream watchlist publisher.
func WithPublisher(p domrepo.WatchlistPublisher) Option {
	return func(e *Engine) {
		e.publisher = p
	}
}

// Universe returns the configured asset list.
func (e *Engine) Universe() []models.AssetMeta { return e.universe }

// RunReport summarizes one engine run.
type RunReport struct {
	AssetsTotal       int
	AssetsProcessed   int
	AssetsSkipped     int
	Defaulted         int
	PredictionCount   int
	WatchlistDetected int
	WatchlistKept     int
}

type assetResult struct {
	meta      models.AssetMeta
	snapshot  *models.FeatureSnapshot
	signals   map[models.Horizon]models.HorizonSignal
	riskScore int
	watchlist []models.WatchlistSignal
	defaulted int
}

// Run executes the full inference pass over the universe.
func (e *Engine) Run(ctx context.Context) (*RunReport, error) {
	start := time.Now()
	report := &RunReport{AssetsTotal: len(e.universe)}

	jobs := make(chan models.AssetMeta)
	resultCh := make(chan *assetResult)

	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for meta := range jobs {
				res := e.processAsset(ctx, meta)
				resultCh <- res
			}
		}()
	}
	go func() {
		for _, meta := range e.universe {
			jobs <- meta
		}
		close(jobs)
		wg.Wait()
		close(resultCh)
	}()

	// merge point: ordering of per-asset results does not matter, the
	// aggregate is sorted deterministically afterwards
	var results []*assetResult
	for res := range resultCh {
		if res == nil {
			report.AssetsSkipped++
			continue
		}
		report.AssetsProcessed++
		report.Defaulted += res.defaulted
		results = append(results, res)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].meta.Ticker < results[j].meta.Ticker
	})

	predictions := e.buildPredictions(results)
	report.PredictionCount = len(predictions)

	watchlist, detected := e.buildWatchlist(results)
	report.WatchlistDetected = detected
	report.WatchlistKept = len(watchlist)

	screener := e.buildScreener(results)

	if err := e.persist(ctx, results, predictions, watchlist, screener, report); err != nil {
		return report, err
	}

	if e.publisher != nil {
		if err := e.publisher.PublishWatchlist(ctx, watchlist); err != nil {
			e.metrics.RecordError("publish_watchlist")
			e.log.Error("watchlist publish failed", logger.Error(err))
		}
	}

	e.metrics.RecordStageDuration("run", time.Since(start).Seconds())
	e.log.Info("signal run complete",
		logger.Int("assets", report.AssetsTotal),
		logger.Int("processed", report.AssetsProcessed),
		logger.Int("skipped", report.AssetsSkipped),
		logger.Int("predictions", report.PredictionCount),
		logger.Int("watchlist", report.WatchlistKept),
		logger.Duration("took", time.Since(start)),
	)
	return report, nil
}

// processAsset runs the whole per-asset pipeline; any failure downgrades
// to a skip.
func (e *Engine) processAsset(ctx context.Context, meta models.AssetMeta) *assetResult {
	series, err := e.prices.LoadSeries(ctx, meta.Ticker)
	if err != nil {
		e.metrics.RecordAssetSkipped("no_prices")
		e.log.Warn("skipping asset: no price series",
			logger.String("ticker", meta.Ticker),
			logger.Error(err),
		)
		return nil
	}

	table, err := e.computer.Compute(series)
	if err != nil {
		e.metrics.RecordAssetSkipped("insufficient_history")
		e.log.Warn("skipping asset: insufficient history",
			logger.String("ticker", meta.Ticker),
			logger.Error(err),
		)
		return nil
	}
	snapshot, err := e.computer.Latest(table)
	if err != nil {
		e.metrics.RecordAssetSkipped("empty_features")
		return nil
	}

	res := &assetResult{
		meta:     meta,
		snapshot: snapshot,
		signals:  make(map[models.Horizon]models.HorizonSignal, len(e.predictors)),
	}
	for _, p := range e.predictors {
		sig, err := p.Predict(snapshot)
		if err != nil {
			e.metrics.RecordError("predict_" + string(p.Horizon()))
			e.log.Warn("predictor failed, using neutral default",
				logger.String("ticker", meta.Ticker),
				logger.String("horizon", string(p.Horizon())),
				logger.Error(err),
			)
			sig = models.NeutralSignal(p.Horizon())
		}
		if isNeutralDefault(sig) {
			res.defaulted++
		}
		res.signals[p.Horizon()] = sig
		e.metrics.RecordSignal(string(sig.Horizon), string(sig.Trend))
	}

	res.riskScore = e.riskScorer.Score(snapshot)
	e.metrics.RecordRiskScore(meta.Ticker, res.riskScore)

	res.watchlist = e.detector.Detect(snapshot)
	for i := range res.watchlist {
		res.watchlist[i].Name = meta.Name
		res.watchlist[i].DetectedAt = util.FormatDate(snapshot.LastDate)
		e.metrics.RecordWatchlistSignal(res.watchlist[i].SignalPrimary)
	}

	e.metrics.RecordAssetProcessed(meta.AssetType)
	return res
}

func isNeutralDefault(sig models.HorizonSignal) bool {
	n := models.NeutralSignal(sig.Horizon)
	return sig.ExpectedReturn == n.ExpectedReturn &&
		sig.Trend == n.Trend &&
		sig.Confidence == n.Confidence &&
		sig.ConfidenceLevel == n.ConfidenceLevel &&
		sig.Probabilities == nil
}

func (e *Engine) buildPredictions(results []*assetResult) []models.PredictionRecord {
	var out []models.PredictionRecord
	for _, res := range results {
		for _, h := range models.Horizons {
			sig, ok := res.signals[h]
			if !ok {
				continue
			}
			out = append(out, models.PredictionRecord{
				HorizonSignal: sig,
				Probabilities: models.NamedProbabilities(sig.Probabilities),
				Ticker:        res.meta.Ticker,
				Name:          res.meta.Name,
				Sector:        res.meta.Sector,
				Region:        res.meta.Region,
				AssetType:     res.meta.AssetType,
				RiskScore:     res.riskScore,
			})
		}
	}
	return out
}

// buildWatchlist ranks all fired signals by primary label and keeps the
// top N.
func (e *Engine) buildWatchlist(results []*assetResult) ([]models.WatchlistSignal, int) {
	var all []models.WatchlistSignal
	for _, res := range results {
		all = append(all, res.watchlist...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].SignalPrimary < all[j].SignalPrimary
	})
	detected := len(all)
	if len(all) > e.watchlistSize {
		all = all[:e.watchlistSize]
	}
	return all, detected
}

func (e *Engine) buildScreener(results []*assetResult) []models.ScreenerRow {
	feat := func(s *models.FeatureSnapshot, name string) *float64 {
		if v, ok := s.Feature(name); ok {
			return models.FinitePtr(v)
		}
		return nil
	}

	out := make([]models.ScreenerRow, 0, len(results))
	for _, res := range results {
		s := res.snapshot
		row := models.ScreenerRow{
			Ticker:    res.meta.Ticker,
			Name:      res.meta.Name,
			Sector:    res.meta.Sector,
			Region:    res.meta.Region,
			AssetType: res.meta.AssetType,
			Exchange:  res.meta.Exchange,

			Price:         s.LastClose,
			ChangePercent: s.FeatureOr(models.FeatureReturn1D, 0) * 100,

			RSI:           feat(s, models.FeatureRSI14),
			MACDHistogram: feat(s, models.FeatureMACDHistogram),
			ADX:           feat(s, models.FeatureADX),
			StochK:        feat(s, models.FeatureStochK),
			BBPosition:    feat(s, models.FeatureBBPosition),
			BBWidth:       feat(s, models.FeatureBBWidth),
			VolumeRatio:   feat(s, models.FeatureVolumeRatio),
			Volatility20D: feat(s, models.FeatureVolatility20D),
			Volatility60D: feat(s, models.FeatureVolatility60D),
			Drawdown:      feat(s, models.FeatureDrawdown),
			Return5D:      feat(s, models.FeatureReturn5D),
			Return20D:     feat(s, models.FeatureReturn20D),
			Return60D:     feat(s, models.FeatureReturn60D),
			PriceVsSMA20:  feat(s, models.FeaturePriceVsSMA20),
			PriceVsSMA50:  feat(s, models.FeaturePriceVsSMA50),
			PriceVsSMA200: feat(s, models.FeaturePriceVsSMA200),

			RiskScore: res.riskScore,
		}
		if sig, ok := res.signals[models.HorizonShort]; ok {
			row.ShortTrend, row.ShortReturn, row.ShortConfidence = sig.Trend, sig.ExpectedReturn, sig.ConfidenceLevel
		}
		if sig, ok := res.signals[models.HorizonMedium]; ok {
			row.MediumTrend, row.MediumReturn, row.MediumConfidence = sig.Trend, sig.ExpectedReturn, sig.ConfidenceLevel
		}
		if sig, ok := res.signals[models.HorizonLong]; ok {
			row.LongTrend, row.LongReturn, row.LongConfidence = sig.Trend, sig.ExpectedReturn, sig.ConfidenceLevel
		}
		out = append(out, row)
	}
	return out
}

func (e *Engine) persist(
	ctx context.Context,
	results []*assetResult,
	predictions []models.PredictionRecord,
	watchlist []models.WatchlistSignal,
	screener []models.ScreenerRow,
	report *RunReport,
) error {
	for _, res := range results {
		if err := e.results.SaveFeatures(ctx, res.meta.Ticker, res.snapshot); err != nil {
			e.metrics.RecordError("save_features")
			e.log.Error("save features failed",
				logger.String("ticker", res.meta.Ticker),
				logger.Error(err),
			)
		}
	}
	if err := e.results.SavePredictions(ctx, predictions); err != nil {
		return err
	}
	if err := e.results.SaveWatchlist(ctx, watchlist); err != nil {
		return err
	}
	if err := e.results.SaveScreener(ctx, screener); err != nil {
		return err
	}
	return e.results.SaveRunMeta(ctx, &domrepo.RunMeta{
		RunAt:           time.Now().UTC().Format(time.RFC3339),
		AssetsTotal:     report.AssetsTotal,
		AssetsProcessed: report.AssetsProcessed,
		AssetsSkipped:   report.AssetsSkipped,
		Defaulted:       report.Defaulted,
		WatchlistSize:   report.WatchlistKept,
	})
}
