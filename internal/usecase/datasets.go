package usecase

import (
	"context"
	"fmt"
	"time"

	"BotBourse/internal/domain/models"
	domrepo "BotBourse/internal/domain/repository"
	"BotBourse/internal/services/dataset"
	"BotBourse/pkg/logger"
)

// DatasetUseCase builds the per-horizon training datasets and hands them
// to the training sink.
type DatasetUseCase struct {
	universe []models.AssetMeta
	horizons map[models.Horizon]int
	builder  *dataset.Builder
	prices   domrepo.PriceStore
	sink     domrepo.TrainingSink
	metrics  domrepo.Metrics
	log      *logger.Logger
}

// NewDatasetUseCase assembles the dataset pipeline. sink may be nil when
// no training export target is configured.
func NewDatasetUseCase(
	universe []models.AssetMeta,
	horizons map[models.Horizon]int,
	builder *dataset.Builder,
	prices domrepo.PriceStore,
	sink domrepo.TrainingSink,
	metrics domrepo.Metrics,
	log *logger.Logger,
) *DatasetUseCase {
	return &DatasetUseCase{
		universe: universe,
		horizons: horizons,
		builder:  builder,
		prices:   prices,
		sink:     sink,
		metrics:  metrics,
		log:      log,
	}
}

// BuildAll builds every horizon's dataset. Assets without price data are
// skipped; a horizon yielding zero rows is reported, not fatal.
func (uc *DatasetUseCase) BuildAll(ctx context.Context) (map[models.Horizon]*models.Dataset, error) {
	start := time.Now()

	inputs := make([]dataset.Input, 0, len(uc.universe))
	for _, meta := range uc.universe {
		series, err := uc.prices.LoadSeries(ctx, meta.Ticker)
		if err != nil {
			uc.log.Warn("dataset: no price series, skipping asset",
				logger.String("ticker", meta.Ticker),
				logger.Error(err),
			)
			continue
		}
		inputs = append(inputs, dataset.Input{Series: series, Meta: meta})
	}

	out := make(map[models.Horizon]*models.Dataset, len(uc.horizons))
	for _, h := range models.Horizons {
		days, ok := uc.horizons[h]
		if !ok {
			continue
		}
		ds, err := uc.builder.Build(inputs, h, days)
		if err != nil {
			return nil, fmt.Errorf("build %s dataset: %w", h, err)
		}
		uc.log.Info("dataset built",
			logger.String("horizon", string(h)),
			logger.Int("horizon_days", days),
			logger.Int("train", len(ds.Train)),
			logger.Int("validation", len(ds.Validation)),
		)
		out[h] = ds

		if uc.sink != nil {
			if err := uc.sink.StoreDataset(ctx, ds); err != nil {
				uc.metrics.RecordError("store_dataset")
				uc.log.Error("dataset export failed",
					logger.String("horizon", string(h)),
					logger.Error(err),
				)
			}
		}
	}

	uc.metrics.RecordStageDuration("datasets", time.Since(start).Seconds())
	return out, nil
}
