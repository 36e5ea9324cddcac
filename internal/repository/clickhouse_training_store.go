package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"BotBourse/internal/domain/models"
	pkgch "BotBourse/pkg/clickhouse"
	applogger "BotBourse/pkg/logger"
)

const trainingSchema = `
CREATE TABLE IF NOT EXISTS training_examples (
    horizon      LowCardinality(String),
    horizon_days UInt16,
    partition    LowCardinality(String),
    ticker       LowCardinality(String),
    sector       LowCardinality(String),
    region       LowCardinality(String),
    date         Date,
    features     Array(Float64),
    forward_ret  Float64,
    inserted_at  DateTime DEFAULT now()
) ENGINE = MergeTree()
ORDER BY (horizon, date, ticker)
`

// CHTrainingStore streams built datasets into ClickHouse for the external
// trainer and offline analysis.
type CHTrainingStore struct {
	db *sql.DB
	l  *applogger.Logger
}

// NewCHTrainingStore creates the sink and ensures its table exists.
func NewCHTrainingStore(ctx context.Context, ch *pkgch.Client, l *applogger.Logger) (*CHTrainingStore, error) {
	if err := ch.InitSchema(ctx, []string{trainingSchema}); err != nil {
		return nil, fmt.Errorf("training store: %w", err)
	}
	return &CHTrainingStore{db: ch.DB(), l: l}, nil
}

func (s *CHTrainingStore) StoreDataset(ctx context.Context, dataset *models.Dataset) error {
	start := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store dataset: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO training_examples
            (horizon, horizon_days, partition, ticker, sector, region, date, features, forward_ret)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("store dataset: %w", err)
	}
	defer stmt.Close()

	insert := func(partition string, rows []models.TrainingExample) error {
		for _, row := range rows {
			if _, err := stmt.ExecContext(ctx,
				string(dataset.Horizon), uint16(dataset.HorizonDays), partition,
				row.Ticker, row.Sector, row.Region, row.Date,
				row.Features, row.ForwardReturn,
			); err != nil {
				return err
			}
		}
		return nil
	}

	if err := insert("train", dataset.Train); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("store dataset train: %w", err)
	}
	if err := insert("validation", dataset.Validation); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("store dataset validation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store dataset: %w", err)
	}

	if s.l != nil {
		s.l.Info("training dataset stored",
			applogger.String("horizon", string(dataset.Horizon)),
			applogger.Int("train", len(dataset.Train)),
			applogger.Int("validation", len(dataset.Validation)),
			applogger.Duration("took", time.Since(start)),
		)
	}
	return nil
}

func (s *CHTrainingStore) Close() error {
	return nil
}
