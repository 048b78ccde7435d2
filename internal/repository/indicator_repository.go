package repository

import (
	"context"
	"database/sql"
	"fmt"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
	pkgkafka "StockPulse/pkg/kafka"
)

// ClickHouseStorage implements Storage for ClickHouse.
type ClickHouseStorage struct {
	db    *sql.DB
	table string
}

// NewClickHouseStorage creates ClickHouse indicator storage.
func NewClickHouseStorage(db *sql.DB, table string) repository.Storage {
	return &ClickHouseStorage{db: db, table: table}
}

func (s *ClickHouseStorage) Store(ctx context.Context, ind *models.PerformanceIndicators) error {
	q := fmt.Sprintf(
		"INSERT INTO %s (ts, symbol, price, pct_change, period_min, period_max, last_sma) VALUES (?, ?, ?, ?, ?, ?, ?)",
		s.table,
	)
	_, err := s.db.ExecContext(ctx, q,
		ind.Timestamp,
		ind.Symbol,
		ind.Price,
		ind.PctChange,
		ind.PeriodMin,
		ind.PeriodMax,
		ind.LastSMA,
	)
	if err != nil {
		return fmt.Errorf("clickhouse store %s: %w", ind.Symbol, err)
	}
	return nil
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	// pool lifetime is owned by the clickhouse client
	return nil
}

// KafkaPublisher implements Publisher on top of the shared producer.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates a Kafka indicator publisher. Indicators are
// keyed by symbol so per-symbol ordering survives partitioning.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ind *models.PerformanceIndicators) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(ind.Symbol), ind); err != nil {
		return fmt.Errorf("kafka publish %s: %w", ind.Symbol, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
