package di

import (
	"context"
	"fmt"
	"time"

	"BotBourse/internal/domain/models"
	domrepo "BotBourse/internal/domain/repository"
	"BotBourse/internal/domain/service"
	"BotBourse/internal/handler/api"
	internalrepo "BotBourse/internal/repository"
	"BotBourse/internal/services/dataset"
	"BotBourse/internal/services/features"
	"BotBourse/internal/services/fetch"
	"BotBourse/internal/services/predictors"
	"BotBourse/internal/services/regime"
	"BotBourse/internal/usecase"
	xcache "BotBourse/pkg/cache"
	pkgch "BotBourse/pkg/clickhouse"
	"BotBourse/pkg/config"
	xhttp "BotBourse/pkg/http"
	pkgkafka "BotBourse/pkg/kafka"
	applogger "BotBourse/pkg/logger"
	"BotBourse/pkg/metrics"
	"BotBourse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideUniverse maps the configured assets into the domain form.
func ProvideUniverse(cfg *config.Config) []models.AssetMeta {
	universe := make([]models.AssetMeta, 0, len(cfg.Universe))
	for _, a := range cfg.Universe {
		universe = append(universe, models.AssetMeta{
			Ticker:    a.Ticker,
			Name:      a.Name,
			Sector:    a.Sector,
			Region:    a.Region,
			AssetType: a.AssetType,
			Exchange:  a.Exchange,
		})
	}
	return universe
}

// ProvideJSONStore creates the file-backed price/result store.
func ProvideJSONStore(cfg *config.Config, l *applogger.Logger) (*internalrepo.JSONStore, error) {
	return internalrepo.NewJSONStore(cfg.Paths.DataDir, cfg.Paths.PricesDir, cfg.Paths.FeaturesDir, l)
}

// ProvidePriceStore exposes the JSON store as a price store.
func ProvidePriceStore(s *internalrepo.JSONStore) domrepo.PriceStore { return s }

// ProvideResultStore exposes the JSON store as a result store.
func ProvideResultStore(s *internalrepo.JSONStore) domrepo.ResultStore { return s }

// ProvideResultReader exposes the JSON store to the API layer.
func ProvideResultReader(s *internalrepo.JSONStore) domrepo.ResultReader { return s }

// ProvideArtifactStore creates the model artifact loader.
func ProvideArtifactStore(cfg *config.Config, l *applogger.Logger) domrepo.ArtifactStore {
	return internalrepo.NewFileArtifactStore(cfg.Paths.ModelsDir, l)
}

// ProvideComputer creates the feature computer.
func ProvideComputer(cfg *config.Config) *features.Computer {
	return features.NewComputer(cfg.Engine.MinHistory)
}

// ProvidePredictors loads artifacts and assembles the per-horizon
// predictors. A missing artifact degrades that horizon to the neutral
// default rather than failing startup.
func ProvidePredictors(artifacts domrepo.ArtifactStore) ([]service.HorizonPredictor, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	classifier, err := artifacts.LoadClassifier(ctx)
	if err != nil {
		return nil, fmt.Errorf("load classifier: %w", err)
	}
	regressor, err := artifacts.LoadRegressor(ctx)
	if err != nil {
		return nil, fmt.Errorf("load regressor: %w", err)
	}
	ruleTable, err := artifacts.LoadRuleTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rule table: %w", err)
	}

	return []service.HorizonPredictor{
		predictors.NewShortTermClassifier(classifier),
		predictors.NewMediumTermRegressor(regressor),
		predictors.NewLongTermRuleScorer(ruleTable),
	}, nil
}

// ProvideRiskScorer creates the volatility/drawdown risk scorer.
func ProvideRiskScorer() service.RiskScorer {
	return predictors.NewRiskScorer()
}

// ProvideDetector creates the regime-change detector.
func ProvideDetector() service.RegimeDetector {
	return regime.NewDetector()
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithBatchSize(cfg.Kafka.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Kafka.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher wraps the producer into the watchlist publisher.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.WatchlistPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaWatchlistPublisher(producer, cfg.Kafka.Topic)
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideTrainingSink creates the ClickHouse training export, or nil when
// ClickHouse is disabled.
func ProvideTrainingSink(ch *pkgch.Client, l *applogger.Logger) (domrepo.TrainingSink, error) {
	if ch == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sink, err := internalrepo.NewCHTrainingStore(ctx, ch, l)
	if err != nil {
		return nil, fmt.Errorf("training sink: %w", err)
	}
	return sink, nil
}

// ProvideCache builds the configured cache backend.
func ProvideCache(cfg *config.Config) (xcache.Service, error) {
	switch cfg.Cache.Backend {
	case "redis", "layered":
		redisCache, err := xcache.NewRedisCache(
			xcache.WithRedisAddr(cfg.Cache.Redis.Addr),
			xcache.WithRedisPassword(cfg.Cache.Redis.Password),
			xcache.WithRedisDB(cfg.Cache.Redis.DB),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		if cfg.Cache.Backend == "layered" {
			return xcache.NewLayeredCache(redisCache), nil
		}
		return redisCache, nil
	default:
		return xcache.NewMemoryCache(xcache.WithMemoryDefaultTTL(cfg.Cache.TTL)), nil
	}
}

// ProvideFetcher creates the daily bar fetcher, or nil when disabled.
func ProvideFetcher(cfg *config.Config, l *applogger.Logger) *fetch.Client {
	if !cfg.Fetch.Enabled {
		return nil
	}
	return fetch.NewClient(cfg.Fetch.BaseURL, l,
		fetch.WithPeriod(cfg.Fetch.Period),
		fetch.WithRate(cfg.Fetch.RatePerSec, cfg.Fetch.Burst),
	)
}

// ProvideEngine assembles the signal engine.
func ProvideEngine(
	cfg *config.Config,
	universe []models.AssetMeta,
	computer *features.Computer,
	preds []service.HorizonPredictor,
	riskScorer service.RiskScorer,
	detector service.RegimeDetector,
	prices domrepo.PriceStore,
	results domrepo.ResultStore,
	m domrepo.Metrics,
	publisher domrepo.WatchlistPublisher,
	l *applogger.Logger,
) *usecase.Engine {
	opts := []usecase.Option{
		usecase.WithWorkers(cfg.Engine.Workers),
		usecase.WithWatchlistSize(cfg.Engine.WatchlistSize),
	}
	if publisher != nil {
		opts = append(opts, usecase.WithPublisher(publisher))
	}
	return usecase.NewEngine(universe, computer, preds, riskScorer, detector, prices, results, m, l, opts...)
}

// ProvideDatasetBuilder creates the training dataset builder.
func ProvideDatasetBuilder(cfg *config.Config, computer *features.Computer, l *applogger.Logger) *dataset.Builder {
	return dataset.NewBuilder(computer, l,
		dataset.WithMinBars(cfg.Engine.MinTrainingBars),
		dataset.WithTrainSplit(cfg.Engine.TrainSplit),
		dataset.WithSplitPerAsset(cfg.Engine.SplitPerAsset),
	)
}

// ProvideDatasetUseCase assembles the dataset pipeline.
func ProvideDatasetUseCase(
	cfg *config.Config,
	universe []models.AssetMeta,
	builder *dataset.Builder,
	prices domrepo.PriceStore,
	sink domrepo.TrainingSink,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.DatasetUseCase {
	horizons := map[models.Horizon]int{
		models.HorizonShort:  cfg.Horizons.ShortDays,
		models.HorizonMedium: cfg.Horizons.MediumDays,
		models.HorizonLong:   cfg.Horizons.LongDays,
	}
	return usecase.NewDatasetUseCase(universe, horizons, builder, prices, sink, m, l)
}

// ProvideSignalsHandler creates the HTTP API handler.
func ProvideSignalsHandler(results domrepo.ResultReader, cache xcache.Service, l *applogger.Logger) xhttp.Handler {
	h := api.NewSignalsHandler(results, l)
	h.SetCache(cache)
	return h
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	fetcher *fetch.Client,
	engine *usecase.Engine,
	datasets *usecase.DatasetUseCase,
	handler xhttp.Handler,
	publisher domrepo.WatchlistPublisher,
	sink domrepo.TrainingSink,
	chClient *pkgch.Client,
	cache xcache.Service,
	priceStore domrepo.PriceStore,
) *server.App {
	return server.New(cfg, l, fetcher, engine, datasets, handler, publisher, sink, chClient, cache, priceStore)
}
