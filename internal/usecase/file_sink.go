package usecase

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	pkgbus "StockPulse/pkg/bus"
	applogger "StockPulse/pkg/logger"
)

const (
	csvHeader    = "period start,symbol,price,change %,min,max,30d avg"
	csvRowFormat = "%s,%s,$%.2f,%.2f%%,$%.2f,$%.2f,$%.2f\n"
)

// FileSink appends every indicator as one CSV row to a run-scoped file.
// The file is named after the start timestamp so consecutive runs never
// clobber each other. Rows are flushed as they arrive; a crash loses at
// most the row being written.
type FileSink struct {
	dir     string
	metrics drepo.Metrics
	log     *applogger.Logger

	file *os.File
	w    *bufio.Writer
}

// NewFileSink creates a CSV sink writing into dir.
func NewFileSink(dir string, metrics drepo.Metrics, log *applogger.Logger) *FileSink {
	return &FileSink{dir: dir, metrics: metrics, log: log}
}

func (s *FileSink) Name() string { return "file-sink" }

func (s *FileSink) Start(ctx context.Context, b *pkgbus.Bus) (*pkgbus.Mailbox, error) {
	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sink dir: %w", err)
		}
	}

	name := filepath.Join(s.dir, fmt.Sprintf("%d.csv", time.Now().Unix()))
	file, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}
	s.file = file
	s.w = bufio.NewWriter(file)

	if _, err := fmt.Fprintln(s.w, csvHeader); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	if err := s.w.Flush(); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	s.log.Info("csv sink opened", applogger.String("file", name))
	return b.Subscribe(models.TopicIndicators, s.Name(), 256)
}

func (s *FileSink) Handle(ctx context.Context, msg any) error {
	ind, ok := msg.(models.PerformanceIndicators)
	if !ok {
		return nil
	}

	_, err := fmt.Fprintf(s.w, csvRowFormat,
		ind.Timestamp.Format(time.RFC3339),
		ind.Symbol,
		ind.Price,
		ind.PctChange*100,
		ind.PeriodMin,
		ind.PeriodMax,
		ind.LastSMA,
	)
	if err == nil {
		err = s.w.Flush()
	}
	if err != nil {
		// keep consuming; a full disk should not take the pipeline down
		s.metrics.RecordError("csv_write")
		s.log.Error("csv write failed", applogger.String("symbol", ind.Symbol), applogger.Error(err))
		return nil
	}

	s.metrics.RecordMessageSent("csv", ind.Symbol)
	return nil
}

func (s *FileSink) Stop(ctx context.Context) {
	if s.w != nil {
		if err := s.w.Flush(); err != nil {
			s.log.Error("csv final flush failed", applogger.Error(err))
		}
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			s.log.Error("csv close failed", applogger.Error(err))
		}
		s.file = nil
		s.w = nil
	}
}
