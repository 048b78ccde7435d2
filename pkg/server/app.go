package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StockPulse/internal/domain/repository"
	"StockPulse/internal/handler/api"
	"StockPulse/internal/handler/ws"
	"StockPulse/internal/service/cache"
	"StockPulse/internal/usecase"
	pkgbus "StockPulse/pkg/bus"
	pkgch "StockPulse/pkg/clickhouse"
	"StockPulse/pkg/config"
	xhttp "StockPulse/pkg/http"
	pkgkafka "StockPulse/pkg/kafka"
	applogger "StockPulse/pkg/logger"
)

// App owns the full pipeline lifecycle: supervised workers on the bus,
// the HTTP query server, and the external clients.
type App struct {
	cfg      *config.Config
	log      *applogger.Logger
	metrics  repository.Metrics
	bus      *pkgbus.Bus
	provider repository.QuoteProvider
	pub      repository.Publisher
	store    repository.Storage
	producer *pkgkafka.Producer
	chClient *pkgch.Client
	cache    cache.BytesCache
	buffer   *usecase.BufferSink
	hub      *ws.Hub
	handler  *api.MarketHandler

	httpServer *xhttp.Server
}

// New creates an App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	metrics repository.Metrics,
	b *pkgbus.Bus,
	provider repository.QuoteProvider,
	pub repository.Publisher,
	store repository.Storage,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	c cache.BytesCache,
	buffer *usecase.BufferSink,
	hub *ws.Hub,
	handler *api.MarketHandler,
) *App {
	return &App{
		cfg:      cfg,
		log:      log,
		metrics:  metrics,
		bus:      b,
		provider: provider,
		pub:      pub,
		store:    store,
		producer: producer,
		chClient: chClient,
		cache:    c,
		buffer:   buffer,
		hub:      hub,
		handler:  handler,
	}
}

type spawn struct {
	name    string
	factory func() pkgbus.Actor
}

// Run starts the pipeline and blocks until interrupted. Startup order
// matters: every consumer of a topic is spawned before the scheduler
// publishes the first request, so no message can outrun its audience.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.producer != nil && a.cfg.Kafka.LogsTopic != "" {
		a.log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          a.cfg.Kafka.LogsTopic,
			Publisher:      a.producer,
		})
	}

	sup := pkgbus.NewSupervisor(a.bus, a.log)

	spawns := []spawn{
		{"file sink", func() pkgbus.Actor {
			return usecase.NewFileSink(a.cfg.Sink.Dir, a.metrics, a.log)
		}},
		{"buffer sink", func() pkgbus.Actor { return a.buffer }},
		{"ws hub", func() pkgbus.Actor { return a.hub }},
		{"processor", func() pkgbus.Actor {
			return usecase.NewProcessor(a.cfg.Fetch.SMAWindow, a.metrics, a.log)
		}},
		{"downloader", func() pkgbus.Actor {
			return usecase.NewDownloader(a.provider, a.cfg.Fetch.Workers, a.cfg.Fetch.Timeout, a.metrics, a.log)
		}},
	}
	if a.cfg.Backend.Type != "none" {
		spawns = append(spawns, spawn{"archive sink", func() pkgbus.Actor {
			return usecase.NewArchiveSink(a.cfg.Backend.Type, a.pub, a.store, a.metrics, a.log)
		}})
	}
	// the scheduler goes last: all subscriptions above are in place
	// before the first tick can fire
	spawns = append(spawns, spawn{"scheduler", func() pkgbus.Actor {
		return usecase.NewScheduler(a.cfg.Symbols, a.cfg.FromTime(), a.cfg.Fetch.Interval, a.log)
	}})

	for _, sp := range spawns {
		if err := sup.Spawn(ctx, sp.factory); err != nil {
			cancel()
			sup.Wait()
			a.closeClients()
			return fmt.Errorf("spawn %s: %w", sp.name, err)
		}
	}

	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(a.log),
	)
	a.hub.RegisterRoutes(a.httpServer.Echo())

	if err := a.httpServer.Start(); err != nil {
		cancel()
		sup.Wait()
		a.closeClients()
		return fmt.Errorf("http server: %w", err)
	}

	a.log.Info("pipeline running",
		applogger.Strings("symbols", a.cfg.Symbols),
		applogger.Duration("interval", a.cfg.Fetch.Interval),
		applogger.String("backend", a.cfg.Backend.Type),
		applogger.Int("port", a.cfg.Server.Port),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(cancel, sup)
}

// shutdown drains in order: stop producing, wait for the workers, then
// shut the query surface and the clients.
func (a *App) shutdown(cancel context.CancelFunc, sup *pkgbus.Supervisor) error {
	cancel()
	sup.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Warn("http shutdown error", applogger.Error(err))
	}

	a.bus.Close()
	a.closeClients()

	a.log.Info("shutdown complete")
	return nil
}

func (a *App) closeClients() {
	// collector last writes may still need the producer; detach first
	a.log.RemoveCollector()

	if a.pub != nil {
		if err := a.pub.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	} else if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if closer, ok := a.cache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}
}
