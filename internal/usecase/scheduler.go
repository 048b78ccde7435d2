package usecase

import (
	"context"
	"fmt"
	"time"

	"StockPulse/internal/domain/models"
	pkgbus "StockPulse/pkg/bus"
	applogger "StockPulse/pkg/logger"
)

// tick is the scheduler's private wake-up message.
type tick struct {
	at time.Time
}

// Scheduler emits one FetchRequest per tracked symbol on a fixed
// interval. It is not a bus consumer: its mailbox is fed by its own
// ticker goroutine, which keeps tick handling on the same sequential
// path as every other worker.
//
// A publish failure is fatal to the scheduling loop; the supervisor
// rebuilds the scheduler from scratch. That is the one consistent
// severity rule for publishers: bus-level failure escalates, delivery
// failure to individual subscribers never does.
type Scheduler struct {
	symbols  []string
	from     time.Time
	interval time.Duration
	log      *applogger.Logger

	bus *pkgbus.Bus
}

// NewScheduler creates a scheduler for the given watchlist.
func NewScheduler(symbols []string, from time.Time, interval time.Duration, log *applogger.Logger) *Scheduler {
	return &Scheduler{symbols: symbols, from: from, interval: interval, log: log}
}

func (s *Scheduler) Name() string { return "scheduler" }

func (s *Scheduler) Start(ctx context.Context, b *pkgbus.Bus) (*pkgbus.Mailbox, error) {
	s.bus = b
	inbox := pkgbus.NewMailbox(s.Name(), 1)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				// a full mailbox means the previous tick is still being
				// handled; skipping keeps tick cadence instead of queueing
				if err := inbox.Put(tick{at: now}); err == pkgbus.ErrMailboxClosed {
					return
				}
			}
		}
	}()

	s.log.Info("scheduler started",
		applogger.Strings("symbols", s.symbols),
		applogger.Duration("interval", s.interval),
	)
	return inbox, nil
}

func (s *Scheduler) Handle(ctx context.Context, msg any) error {
	t, ok := msg.(tick)
	if !ok {
		return nil
	}
	for _, symbol := range s.symbols {
		req := models.FetchRequest{Symbol: symbol, From: s.from, To: t.at}
		if err := s.bus.Publish(models.TopicFetchRequests, req); err != nil {
			return fmt.Errorf("publish fetch request %s: %w", symbol, err)
		}
	}
	s.log.Debug("tick dispatched", applogger.Int("symbols", len(s.symbols)))
	return nil
}

func (s *Scheduler) Stop(ctx context.Context) {}
