package usecase

import (
	"context"
	"errors"
	"testing"

	"StockPulse/internal/domain/models"
)

type fakePublisher struct {
	published []string
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, ind *models.PerformanceIndicators) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, ind.Symbol)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeStorage struct {
	stored []string
}

func (f *fakeStorage) Store(ctx context.Context, ind *models.PerformanceIndicators) error {
	f.stored = append(f.stored, ind.Symbol)
	return nil
}

func (f *fakeStorage) Health(ctx context.Context) error { return nil }
func (f *fakeStorage) Close() error                     { return nil }

func TestArchiveSinkKafkaBackend(t *testing.T) {
	b := newTestBus(t)
	pub := &fakePublisher{}
	metrics := newStubMetrics()
	s := NewArchiveSink("kafka", pub, nil, metrics, newTestLogger(t))

	ctx := context.Background()
	if _, err := s.Start(ctx, b); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Handle(ctx, indicatorAt(1)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(pub.published) != 1 || pub.published[0] != "AAPL" {
		t.Fatalf("published = %v", pub.published)
	}
	if metrics.sentCount("kafka") != 1 {
		t.Fatalf("kafka sent metric = %d", metrics.sentCount("kafka"))
	}
}

func TestArchiveSinkClickHouseBackend(t *testing.T) {
	b := newTestBus(t)
	store := &fakeStorage{}
	s := NewArchiveSink("clickhouse", nil, store, newStubMetrics(), newTestLogger(t))

	ctx := context.Background()
	if _, err := s.Start(ctx, b); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Handle(ctx, indicatorAt(2)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(store.stored) != 1 {
		t.Fatalf("stored = %v", store.stored)
	}
}

func TestArchiveSinkFailureDoesNotCrash(t *testing.T) {
	b := newTestBus(t)
	metrics := newStubMetrics()
	s := NewArchiveSink("kafka", &fakePublisher{err: errors.New("broker down")}, nil, metrics, newTestLogger(t))

	ctx := context.Background()
	if _, err := s.Start(ctx, b); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Handle(ctx, indicatorAt(3)); err != nil {
		t.Fatalf("archive failure must not crash the worker: %v", err)
	}
	if metrics.errorCount("archive") != 1 {
		t.Fatalf("archive error metric = %d", metrics.errorCount("archive"))
	}
}
