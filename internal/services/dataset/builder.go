package dataset

import (
	"fmt"
	"math"
	"sort"

	"BotBourse/internal/domain/models"
	"BotBourse/internal/services/features"
	"BotBourse/pkg/logger"
)

// MinTrainingBars is the minimum number of valid bars for an asset to
// contribute training rows.
const MinTrainingBars = 300

// Option configures Builder.
type Option func(*Builder)

// Builder assembles cross-sectional horizon datasets with forward-looking
// targets.
type Builder struct {
	computer      *features.Computer
	log           *logger.Logger
	minBars       int
	trainSplit    float64
	splitPerAsset bool
}

// NewBuilder creates a dataset builder.
func NewBuilder(computer *features.Computer, log *logger.Logger, opts ...Option) *Builder {
	b := &Builder{
		computer:   computer,
		log:        log,
		minBars:    MinTrainingBars,
		trainSplit: 0.8,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// WithMinBars overrides the minimum per-asset series length.
func WithMinBars(n int) Option {
	return func(b *Builder) {
		b.minBars = n
	}
}

// WithTrainSplit sets the train fraction of the chronological split.
func WithTrainSplit(frac float64) Option {
	return func(b *Builder) {
		if frac > 0 && frac < 1 {
			b.trainSplit = frac
		}
	}
}

// WithSplitPerAsset partitions each asset's rows chronologically before
// merging, so no validation row for an asset predates a training row of
// the same asset. The default reproduces the single global-date split,
// which can interleave assets across the cut date.
func WithSplitPerAsset(enabled bool) Option {
	return func(b *Builder) {
		b.splitPerAsset = enabled
	}
}

// Input couples one asset's series with its static metadata.
type Input struct {
	Series *models.PriceSeries
	Meta   models.AssetMeta
}

// Build produces the train/validation dataset for one horizon. Assets with
// too little history are skipped, never fatal.
func (b *Builder) Build(inputs []Input, horizon models.Horizon, horizonDays int) (*models.Dataset, error) {
	if horizonDays <= 0 {
		return nil, fmt.Errorf("build dataset: invalid horizon days %d", horizonDays)
	}

	var rows []models.TrainingExample
	perAsset := make(map[string][]models.TrainingExample)

	for _, in := range inputs {
		// malformed rows in a feed do not count toward the history floor
		if in.Series == nil || in.Series.ValidLen() < b.minBars {
			b.log.Debug("dataset: skipping asset with short history",
				logger.String("ticker", in.Meta.Ticker),
				logger.Int("bars", seriesLen(in.Series)),
			)
			continue
		}
		assetRows, err := b.assetRows(in, horizonDays)
		if err != nil {
			b.log.Warn("dataset: asset failed, continuing",
				logger.String("ticker", in.Meta.Ticker),
				logger.Error(err),
			)
			continue
		}
		if b.splitPerAsset {
			perAsset[in.Meta.Ticker] = assetRows
		} else {
			rows = append(rows, assetRows...)
		}
	}

	ds := &models.Dataset{Horizon: horizon, HorizonDays: horizonDays}

	if b.splitPerAsset {
		for _, assetRows := range perAsset {
			train, valid := chronoSplit(assetRows, b.trainSplit)
			ds.Train = append(ds.Train, train...)
			ds.Validation = append(ds.Validation, valid...)
		}
		sortByDate(ds.Train)
		sortByDate(ds.Validation)
	} else {
		sortByDate(rows)
		ds.Train, ds.Validation = chronoSplit(rows, b.trainSplit)
	}

	return ds, nil
}

// assetRows computes all usable training rows for one asset. The final
// horizonDays rows have no realized forward return and are dropped, not
// zero-filled.
func (b *Builder) assetRows(in Input, horizonDays int) ([]models.TrainingExample, error) {
	table, err := b.computer.Compute(in.Series)
	if err != nil {
		return nil, err
	}

	n := table.Len()
	out := make([]models.TrainingExample, 0, n)
	for i := 0; i < n-horizonDays; i++ {
		future := table.Closes[i+horizonDays]
		base := table.Closes[i]
		if base == 0 {
			continue
		}
		target := future/base - 1
		if math.IsNaN(target) || math.IsInf(target, 0) {
			continue
		}

		vec := make([]float64, len(models.ModelFeatures))
		complete := true
		for j, name := range models.ModelFeatures {
			v, ok := table.Value(name, i)
			if !ok {
				complete = false
				break
			}
			vec[j] = v
		}
		if !complete {
			continue
		}

		out = append(out, models.TrainingExample{
			Ticker:        in.Meta.Ticker,
			Sector:        in.Meta.Sector,
			Region:        in.Meta.Region,
			Date:          table.Dates[i],
			Features:      vec,
			ForwardReturn: target,
		})
	}
	return out, nil
}

func chronoSplit(rows []models.TrainingExample, frac float64) (train, valid []models.TrainingExample) {
	cut := int(float64(len(rows)) * frac)
	return rows[:cut], rows[cut:]
}

func sortByDate(rows []models.TrainingExample) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})
}

func seriesLen(s *models.PriceSeries) int {
	if s == nil {
		return 0
	}
	return s.Len()
}
