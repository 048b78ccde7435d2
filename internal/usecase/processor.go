package usecase

import (
	"context"
	"fmt"
	"sort"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	"StockPulse/internal/signal"
	pkgbus "StockPulse/pkg/bus"
	applogger "StockPulse/pkg/logger"
)

// Processor derives performance indicators from raw quote series. An
// empty series is a no-op beyond a debug line; a non-empty one always
// yields exactly one indicator message.
type Processor struct {
	window  int
	metrics drepo.Metrics
	log     *applogger.Logger

	bus *pkgbus.Bus
}

// NewProcessor creates a processor with the given moving-average window.
func NewProcessor(window int, metrics drepo.Metrics, log *applogger.Logger) *Processor {
	return &Processor{window: window, metrics: metrics, log: log}
}

func (p *Processor) Name() string { return "processor" }

func (p *Processor) Start(ctx context.Context, b *pkgbus.Bus) (*pkgbus.Mailbox, error) {
	p.bus = b
	return b.Subscribe(models.TopicQuoteSeries, p.Name(), 256)
}

func (p *Processor) Handle(ctx context.Context, msg any) error {
	series, ok := msg.(models.QuoteSeries)
	if !ok {
		return nil
	}
	if len(series.Points) == 0 {
		p.log.Debug("no quotes", applogger.String("symbol", series.Symbol))
		return nil
	}

	points := make([]models.QuotePoint, len(series.Points))
	copy(points, series.Points)
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})

	closes := make([]float64, len(points))
	for i, pt := range points {
		closes[i] = pt.Close
	}

	ind := models.PerformanceIndicators{
		Symbol:    series.Symbol,
		Timestamp: points[len(points)-1].Timestamp,
		Price:     closes[len(closes)-1],
	}
	if min, ok := signal.MinPrice(closes); ok {
		ind.PeriodMin = min
	}
	if max, ok := signal.MaxPrice(closes); ok {
		ind.PeriodMax = max
	}
	if _, rel, ok := signal.PriceDifference(closes); ok {
		ind.PctChange = rel
	}
	if sma := signal.WindowedSMA(closes, p.window); len(sma) > 0 {
		ind.LastSMA = sma[len(sma)-1]
	}

	if err := p.bus.Publish(models.TopicIndicators, ind); err != nil {
		return fmt.Errorf("publish indicators %s: %w", series.Symbol, err)
	}

	p.metrics.RecordLastPrice(ind.Symbol, ind.Price)
	p.log.Info("indicators computed",
		applogger.String("symbol", ind.Symbol),
		applogger.Float64("price", ind.Price),
		applogger.Float64("pct_change", ind.PctChange*100),
		applogger.Float64("min", ind.PeriodMin),
		applogger.Float64("max", ind.PeriodMax),
		applogger.Float64("sma", ind.LastSMA),
	)
	return nil
}

func (p *Processor) Stop(ctx context.Context) {}
