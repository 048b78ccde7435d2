package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	"StockPulse/internal/service/cache"
	pkgbus "StockPulse/pkg/bus"
	applogger "StockPulse/pkg/logger"
)

// ErrBufferUnavailable is returned by Tail while the buffer worker is
// not running, i.e. before startup or between restarts.
var ErrBufferUnavailable = errors.New("buffer sink unavailable")

// snapshotRequest asks the buffer for its newest n entries. It travels
// through the same mailbox as indicator messages, so a snapshot always
// reflects a consistent point between inserts.
type snapshotRequest struct {
	n     int
	reply chan []models.PerformanceIndicators
}

// BufferSink retains the most recent indicators, newest first, capped
// at a fixed capacity. One instance is shared between the supervisor
// and the HTTP layer: Start reinitializes all state, so a restart after
// a crash begins from an empty buffer like any other worker.
//
// When a cache is configured, the newest indicator per symbol is
// mirrored into it for point lookups.
type BufferSink struct {
	capacity int
	cache    cache.BytesCache
	cacheTTL time.Duration
	metrics  drepo.Metrics
	log      *applogger.Logger

	mu    sync.RWMutex
	inbox *pkgbus.Mailbox
	data  []models.PerformanceIndicators
}

// NewBufferSink creates a buffer sink with the given capacity. cache
// may be nil to disable latest-value mirroring.
func NewBufferSink(capacity int, c cache.BytesCache, cacheTTL time.Duration, metrics drepo.Metrics, log *applogger.Logger) *BufferSink {
	if capacity < 1 {
		capacity = 1
	}
	return &BufferSink{capacity: capacity, cache: c, cacheTTL: cacheTTL, metrics: metrics, log: log}
}

func (s *BufferSink) Name() string { return "buffer-sink" }

func (s *BufferSink) Start(ctx context.Context, b *pkgbus.Bus) (*pkgbus.Mailbox, error) {
	inbox, err := b.Subscribe(models.TopicIndicators, s.Name(), s.capacity*2)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.inbox = inbox
	s.data = make([]models.PerformanceIndicators, 0, s.capacity)
	s.mu.Unlock()

	return inbox, nil
}

func (s *BufferSink) Handle(ctx context.Context, msg any) error {
	switch m := msg.(type) {
	case models.PerformanceIndicators:
		s.insert(m)
	case snapshotRequest:
		s.snapshot(m)
	}
	return nil
}

func (s *BufferSink) insert(ind models.PerformanceIndicators) {
	s.mu.Lock()
	s.data = append(s.data, models.PerformanceIndicators{})
	copy(s.data[1:], s.data)
	s.data[0] = ind
	if len(s.data) > s.capacity {
		s.data = s.data[:s.capacity]
	}
	depth := len(s.data)
	s.mu.Unlock()

	s.metrics.RecordBufferDepth(depth)

	if s.cache != nil {
		payload, err := json.Marshal(ind)
		if err == nil {
			err = s.cache.SetBytes("latest:"+ind.Symbol, payload, s.cacheTTL)
		}
		if err != nil {
			s.log.Warn("latest cache update failed",
				applogger.String("symbol", ind.Symbol),
				applogger.Error(err),
			)
		}
	}
}

func (s *BufferSink) snapshot(req snapshotRequest) {
	s.mu.RLock()
	n := req.n
	if n > len(s.data) {
		n = len(s.data)
	}
	out := make([]models.PerformanceIndicators, n)
	copy(out, s.data[:n])
	s.mu.RUnlock()

	// reply channel is buffered; an abandoned caller never blocks us
	select {
	case req.reply <- out:
	default:
	}
}

// Tail returns the newest n buffered indicators, newest first. It is
// safe for concurrent use from request handlers.
func (s *BufferSink) Tail(ctx context.Context, n int) ([]models.PerformanceIndicators, error) {
	if n <= 0 {
		return []models.PerformanceIndicators{}, nil
	}

	s.mu.RLock()
	inbox := s.inbox
	s.mu.RUnlock()
	if inbox == nil {
		return nil, ErrBufferUnavailable
	}

	req := snapshotRequest{n: n, reply: make(chan []models.PerformanceIndicators, 1)}
	if err := inbox.Put(req); err != nil {
		return nil, ErrBufferUnavailable
	}

	select {
	case out := <-req.reply:
		return out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *BufferSink) Stop(ctx context.Context) {
	s.mu.Lock()
	s.inbox = nil
	s.mu.Unlock()
}
