package usecase

import (
	"context"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	pkgbus "StockPulse/pkg/bus"
	applogger "StockPulse/pkg/logger"
)

// ArchiveSink forwards indicators to an external backend, either a
// broker publisher or a column store. Archive failures are logged and
// counted but never interrupt consumption; the in-process sinks remain
// the source of truth for queries.
type ArchiveSink struct {
	backend string
	pub     drepo.Publisher
	store   drepo.Storage
	metrics drepo.Metrics
	log     *applogger.Logger
}

// NewArchiveSink creates an archive sink. Exactly one of pub or store
// is used, selected by backend ("kafka" or "clickhouse").
func NewArchiveSink(backend string, pub drepo.Publisher, store drepo.Storage, metrics drepo.Metrics, log *applogger.Logger) *ArchiveSink {
	return &ArchiveSink{backend: backend, pub: pub, store: store, metrics: metrics, log: log}
}

func (s *ArchiveSink) Name() string { return "archive-sink" }

func (s *ArchiveSink) Start(ctx context.Context, b *pkgbus.Bus) (*pkgbus.Mailbox, error) {
	return b.Subscribe(models.TopicIndicators, s.Name(), 256)
}

func (s *ArchiveSink) Handle(ctx context.Context, msg any) error {
	ind, ok := msg.(models.PerformanceIndicators)
	if !ok {
		return nil
	}

	var err error
	switch s.backend {
	case "kafka":
		err = s.pub.Publish(ctx, &ind)
	case "clickhouse":
		err = s.store.Store(ctx, &ind)
	default:
		return nil
	}

	if err != nil {
		s.metrics.RecordError("archive")
		s.log.Error("archive write failed",
			applogger.String("backend", s.backend),
			applogger.String("symbol", ind.Symbol),
			applogger.Error(err),
		)
		return nil
	}

	s.metrics.RecordMessageSent(s.backend, ind.Symbol)
	return nil
}

func (s *ArchiveSink) Stop(ctx context.Context) {}
