package repository

import (
	"context"
	"fmt"
	"time"

	"FinCast/internal/domain/models"
	pkgkafka "FinCast/pkg/kafka"
	applogger "FinCast/pkg/logger"
)

// ForecastEvent is the Kafka payload for one persisted hour: the full
// horizon set plus the reference hour it anchors to.
type ForecastEvent struct {
	Symbol      string            `json:"symbol"`
	OpenTime    int64             `json:"open_time"`
	Forecasts   []models.Forecast `json:"forecasts"`
	PublishedAt time.Time         `json:"published_at"`
}

// KafkaPublisher implements Publisher on top of the shared Kafka producer.
// Messages are keyed by symbol so consumers see each symbol's hours in order.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
	l        *applogger.Logger
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// SetLogger injects a structured logger.
func (p *KafkaPublisher) SetLogger(l *applogger.Logger) { p.l = l }

func (p *KafkaPublisher) PublishForecasts(ctx context.Context, symbol string, forecasts []models.Forecast) error {
	if len(forecasts) == 0 {
		return nil
	}
	event := ForecastEvent{
		Symbol:      symbol,
		OpenTime:    forecasts[0].OpenTime,
		Forecasts:   forecasts,
		PublishedAt: time.Now().UTC(),
	}
	if err := p.producer.Publish(ctx, p.topic, []byte(symbol), event); err != nil {
		return fmt.Errorf("publish forecasts: %w", err)
	}
	if p.l != nil {
		p.l.Debug("forecast event published",
			applogger.String("topic", p.topic),
			applogger.String("symbol", symbol),
			applogger.Int("forecasts", len(forecasts)),
		)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
