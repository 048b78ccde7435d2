package repository

import (
	"context"
	"time"

	"StockPulse/internal/domain/models"
)

// QuoteProvider is the external market-data collaborator. It may return
// an empty or unsorted sequence and may fail; callers treat any failure
// as an empty series, never as a pipeline error.
type QuoteProvider interface {
	History(ctx context.Context, symbol string, from, to time.Time) ([]models.QuotePoint, error)
}

// Publisher forwards indicators to a message broker.
type Publisher interface {
	Publish(ctx context.Context, ind *models.PerformanceIndicators) error
	Close() error
}

// Storage persists indicators in an external store.
type Storage interface {
	Store(ctx context.Context, ind *models.PerformanceIndicators) error
	Health(ctx context.Context) error
	Close() error
}

// Metrics records pipeline observability signals.
type Metrics interface {
	RecordMessageSent(backend, symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordBufferDepth(n int)
}
