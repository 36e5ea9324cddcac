package repository

import (
	"context"
	"fmt"

	"BotBourse/internal/domain/models"
	pkgkafka "BotBourse/pkg/kafka"
)

// KafkaWatchlistPublisher publishes watchlist signals keyed by ticker so
// per-asset ordering is preserved across partitions.
type KafkaWatchlistPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaWatchlistPublisher wraps a producer for the given topic.
func NewKafkaWatchlistPublisher(producer *pkgkafka.Producer, topic string) *KafkaWatchlistPublisher {
	return &KafkaWatchlistPublisher{producer: producer, topic: topic}
}

func (p *KafkaWatchlistPublisher) PublishWatchlist(ctx context.Context, signals []models.WatchlistSignal) error {
	if len(signals) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(signals))
	for _, sig := range signals {
		msgs = append(msgs, pkgkafka.Message{
			Key:   []byte(sig.Ticker),
			Value: sig,
		})
	}
	if err := p.producer.PublishBatch(ctx, p.topic, msgs); err != nil {
		return fmt.Errorf("publish watchlist: %w", err)
	}
	return nil
}

func (p *KafkaWatchlistPublisher) Close() error {
	return p.producer.Close()
}
