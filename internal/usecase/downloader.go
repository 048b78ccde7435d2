package usecase

import (
	"context"
	"sync"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	pkgbus "StockPulse/pkg/bus"
	applogger "StockPulse/pkg/logger"
)

// Downloader turns FetchRequests into QuoteSeries. Fetches run on their
// own goroutines so a slow symbol cannot stall the rest of the tick; a
// semaphore caps how many are in flight at once. Provider failures
// degrade to an empty series so downstream consumers always see one
// message per request.
type Downloader struct {
	provider drepo.QuoteProvider
	metrics  drepo.Metrics
	log      *applogger.Logger
	timeout  time.Duration

	bus *pkgbus.Bus
	sem chan struct{}
	wg  sync.WaitGroup
}

// NewDownloader creates a downloader with the given per-request timeout
// and in-flight fetch cap.
func NewDownloader(provider drepo.QuoteProvider, workers int, timeout time.Duration, metrics drepo.Metrics, log *applogger.Logger) *Downloader {
	if workers < 1 {
		workers = 1
	}
	return &Downloader{
		provider: provider,
		metrics:  metrics,
		log:      log,
		timeout:  timeout,
		sem:      make(chan struct{}, workers),
	}
}

func (d *Downloader) Name() string { return "downloader" }

func (d *Downloader) Start(ctx context.Context, b *pkgbus.Bus) (*pkgbus.Mailbox, error) {
	d.bus = b
	return b.Subscribe(models.TopicFetchRequests, d.Name(), 256)
}

func (d *Downloader) Handle(ctx context.Context, msg any) error {
	req, ok := msg.(models.FetchRequest)
	if !ok {
		return nil
	}

	select {
	case d.sem <- struct{}{}:
	case <-ctx.Done():
		return nil
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() { <-d.sem }()
		d.fetch(ctx, req)
	}()
	return nil
}

func (d *Downloader) fetch(ctx context.Context, req models.FetchRequest) {
	fctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	started := time.Now()
	points, err := d.provider.History(fctx, req.Symbol, req.From, req.To)
	d.metrics.RecordLatency("fetch", time.Since(started).Seconds())

	series := models.QuoteSeries{Symbol: req.Symbol}
	if err != nil {
		// degrade to an empty series rather than dropping the message
		d.metrics.RecordError("fetch")
		d.log.Warn("quote fetch failed",
			applogger.String("symbol", req.Symbol),
			applogger.Error(err),
		)
	} else {
		series.Points = points
	}

	if err := d.bus.Publish(models.TopicQuoteSeries, series); err != nil {
		// only happens during shutdown
		d.log.Debug("series publish skipped", applogger.String("symbol", req.Symbol), applogger.Error(err))
	}
}

func (d *Downloader) Stop(ctx context.Context) {
	// in-flight fetches are bounded by the request timeout
	d.wg.Wait()
}
