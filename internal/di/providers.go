package di

import (
	"context"
	"fmt"
	"time"

	"StockPulse/internal/domain/repository"
	"StockPulse/internal/handler/api"
	"StockPulse/internal/handler/ws"
	internalrepo "StockPulse/internal/repository"
	"StockPulse/internal/service/cache"
	"StockPulse/internal/service/yahoo"
	"StockPulse/internal/usecase"
	pkgbus "StockPulse/pkg/bus"
	pkgch "StockPulse/pkg/clickhouse"
	"StockPulse/pkg/config"
	pkgkafka "StockPulse/pkg/kafka"
	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/metrics"
	"StockPulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	format := "console"
	if cfg.Environment == "prod" {
		format = "json"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideBus creates the pipeline message bus. Delivery drops surface
// through the error counter.
func ProvideBus(log *applogger.Logger, m repository.Metrics) *pkgbus.Bus {
	return pkgbus.New(log, pkgbus.WithDropObserver(func(topic, subscriber string) {
		m.RecordError("bus_drop")
	}))
}

// ProvideKafkaProducer creates a Kafka producer when the kafka backend
// is selected, nil otherwise.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideClickHouseClient creates a ClickHouse client when the
// clickhouse backend is selected, nil otherwise.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Backend.Type != "clickhouse" {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	table := cfg.ClickHouse.Database + "." + cfg.ClickHouse.Table
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
		"CREATE TABLE IF NOT EXISTS " + table +
			" (ts DateTime, symbol String, price Float64, pct_change Float64," +
			" period_min Float64, period_max Float64, last_sma Float64)" +
			" ENGINE=MergeTree ORDER BY (symbol, ts)",
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideIndicatorPublisher creates the Kafka publisher repository.
func ProvideIndicatorPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideIndicatorStorage creates the ClickHouse storage repository.
func ProvideIndicatorStorage(chClient *pkgch.Client, cfg *config.Config) repository.Storage {
	if chClient == nil {
		return nil
	}
	return internalrepo.NewClickHouseStorage(chClient.DB(), cfg.ClickHouse.Database+"."+cfg.ClickHouse.Table)
}

// ProvideCache creates the latest-value cache backend.
func ProvideCache(cfg *config.Config) (cache.BytesCache, error) {
	if cfg.Cache.Backend == "redis" {
		rc := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return rc, nil
	}
	return cache.NewTTLCache(), nil
}

// ProvideQuoteProvider creates the market-data client.
func ProvideQuoteProvider(cfg *config.Config) repository.QuoteProvider {
	return yahoo.New(cfg.Provider.BaseURL, cfg.Provider.Interval, cfg.Provider.Timeout)
}

// ProvideBufferSink creates the shared retention buffer.
func ProvideBufferSink(cfg *config.Config, c cache.BytesCache, m repository.Metrics, log *applogger.Logger) *usecase.BufferSink {
	return usecase.NewBufferSink(cfg.Buffer.Capacity, c, cfg.Cache.TTL, m, log)
}

// ProvideHub creates the shared WebSocket streaming hub.
func ProvideHub(log *applogger.Logger) *ws.Hub {
	return ws.NewHub(log)
}

// ProvideMarketHandler creates the HTTP query handler.
func ProvideMarketHandler(buffer *usecase.BufferSink, c cache.BytesCache, cfg *config.Config, log *applogger.Logger) *api.MarketHandler {
	return api.NewMarketHandler(buffer, c, cfg.Symbols, cfg.Buffer.QueryTimeout, log)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	m repository.Metrics,
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
) *server.App {
	return server.New(cfg, log, m, b, provider, pub, store, producer, chClient, c, buffer, hub, handler)
}
