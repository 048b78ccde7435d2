package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"StockPulse/internal/domain/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestProcessorComputesIndicators(t *testing.T) {
	b := newTestBus(t)
	metrics := newStubMetrics()
	p := NewProcessor(30, metrics, newTestLogger(t))

	ctx := context.Background()
	if _, err := p.Start(ctx, b); err != nil {
		t.Fatalf("start: %v", err)
	}
	out, err := b.Subscribe(models.TopicIndicators, "test", 4)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// points arrive out of order; the processor must sort by timestamp
	series := models.QuoteSeries{
		Symbol: "AAPL",
		Points: []models.QuotePoint{
			{Timestamp: t1.Add(time.Hour), Close: 12},
			{Timestamp: t1, Close: 10},
			{Timestamp: t1.Add(2 * time.Hour), Close: 9},
		},
	}
	if err := p.Handle(ctx, series); err != nil {
		t.Fatalf("handle: %v", err)
	}

	got := (<-out.C()).(models.PerformanceIndicators)
	if got.Symbol != "AAPL" {
		t.Fatalf("symbol = %s", got.Symbol)
	}
	if !got.Timestamp.Equal(t1.Add(2 * time.Hour)) {
		t.Fatalf("timestamp = %v, want latest point", got.Timestamp)
	}
	if !almostEqual(got.Price, 9) {
		t.Fatalf("price = %v, want 9", got.Price)
	}
	if !almostEqual(got.PctChange, -0.1) {
		t.Fatalf("pct change = %v, want -0.1", got.PctChange)
	}
	if !almostEqual(got.PeriodMin, 9) || !almostEqual(got.PeriodMax, 12) {
		t.Fatalf("min/max = %v/%v, want 9/12", got.PeriodMin, got.PeriodMax)
	}
	// series shorter than the window yields no average
	if got.LastSMA != 0 {
		t.Fatalf("sma = %v, want 0", got.LastSMA)
	}

	if metrics.lastPrice["AAPL"] != 9 {
		t.Fatalf("last price metric = %v", metrics.lastPrice["AAPL"])
	}
}

func TestProcessorMovingAverage(t *testing.T) {
	b := newTestBus(t)
	p := NewProcessor(2, newStubMetrics(), newTestLogger(t))

	ctx := context.Background()
	if _, err := p.Start(ctx, b); err != nil {
		t.Fatalf("start: %v", err)
	}
	out, err := b.Subscribe(models.TopicIndicators, "test", 4)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.QuotePoint, 0, 4)
	for i, close := range []float64{1, 2, 3, 4} {
		points = append(points, models.QuotePoint{Timestamp: t1.Add(time.Duration(i) * time.Hour), Close: close})
	}
	if err := p.Handle(ctx, models.QuoteSeries{Symbol: "MSFT", Points: points}); err != nil {
		t.Fatalf("handle: %v", err)
	}

	got := (<-out.C()).(models.PerformanceIndicators)
	if !almostEqual(got.LastSMA, 3.5) {
		t.Fatalf("sma = %v, want 3.5", got.LastSMA)
	}
}

func TestProcessorIgnoresEmptySeries(t *testing.T) {
	b := newTestBus(t)
	p := NewProcessor(30, newStubMetrics(), newTestLogger(t))

	ctx := context.Background()
	if _, err := p.Start(ctx, b); err != nil {
		t.Fatalf("start: %v", err)
	}
	out, err := b.Subscribe(models.TopicIndicators, "test", 4)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := p.Handle(ctx, models.QuoteSeries{Symbol: "UBER"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("empty series must not produce indicators, got %d", out.Len())
	}
}

func TestProcessorSinglePoint(t *testing.T) {
	b := newTestBus(t)
	p := NewProcessor(30, newStubMetrics(), newTestLogger(t))

	ctx := context.Background()
	if _, err := p.Start(ctx, b); err != nil {
		t.Fatalf("start: %v", err)
	}
	out, err := b.Subscribe(models.TopicIndicators, "test", 4)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := models.QuoteSeries{Symbol: "GOOG", Points: []models.QuotePoint{{Timestamp: t1, Close: 140}}}
	if err := p.Handle(ctx, series); err != nil {
		t.Fatalf("handle: %v", err)
	}

	got := (<-out.C()).(models.PerformanceIndicators)
	if got.PctChange != 0 {
		t.Fatalf("pct change = %v, want 0 for single point", got.PctChange)
	}
	if !almostEqual(got.PeriodMin, 140) || !almostEqual(got.PeriodMax, 140) {
		t.Fatalf("min/max = %v/%v, want 140/140", got.PeriodMin, got.PeriodMax)
	}
}
