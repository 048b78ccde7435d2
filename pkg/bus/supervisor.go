package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	applogger "StockPulse/pkg/logger"
)

// Supervisor keeps actors alive. A crashed actor (panic or error from
// Start/Handle) is replaced by a freshly constructed instance: the
// factory runs again, so private state and subscriptions are rebuilt
// from scratch. Restarts are unconditional and unlimited; in-flight
// state of the dead incarnation is not recovered.
type Supervisor struct {
	bus *Bus
	log *applogger.Logger
	wg  sync.WaitGroup

	// pause between incarnations when Start itself fails, so a broken
	// resource (e.g. an unwritable sink directory) cannot spin a hot
	// restart loop.
	startRetryDelay time.Duration
}

// NewSupervisor creates a supervisor bound to the bus.
func NewSupervisor(b *Bus, log *applogger.Logger) *Supervisor {
	return &Supervisor{bus: b, log: log, startRetryDelay: 250 * time.Millisecond}
}

// Spawn runs the actor produced by factory under supervision. It blocks
// until the first incarnation has completed Start, so callers can rely
// on subscriptions being registered before they continue wiring (the
// scheduler is spawned last for exactly this reason). The first Start
// error is returned instead of retried: a worker that cannot acquire
// its resources at boot aborts startup.
func (s *Supervisor) Spawn(ctx context.Context, factory func() Actor) error {
	a := factory()
	inbox, err := a.Start(ctx, s.bus)
	if err != nil {
		return fmt.Errorf("start %s: %w", a.Name(), err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx, a, inbox, factory)
	}()
	return nil
}

// loop drives incarnations until the context is cancelled. The first
// incarnation arrives already started.
func (s *Supervisor) loop(ctx context.Context, a Actor, inbox *Mailbox, factory func() Actor) {
	for {
		err := s.runStarted(ctx, a, inbox)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			// clean stop without cancellation: nothing to restart
			return
		}
		s.log.Error("worker crashed, restarting",
			applogger.String("worker", a.Name()),
			applogger.Error(err),
		)

		a = factory()
		for {
			inbox, err = s.startRecovering(ctx, a)
			if err == nil {
				break
			}
			s.log.Error("worker restart failed",
				applogger.String("worker", a.Name()),
				applogger.Error(err),
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.startRetryDelay):
			}
		}
	}
}

// runStarted is the Running phase of one incarnation, with panic
// containment. Stop runs on every exit path.
func (s *Supervisor) runStarted(ctx context.Context, a Actor, inbox *Mailbox) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		inbox.Close()
		a.Stop(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-inbox.C():
			if herr := a.Handle(ctx, msg); herr != nil {
				return herr
			}
			if inbox.Closed() && inbox.Len() == 0 {
				return nil
			}
		}
	}
}

func (s *Supervisor) startRecovering(ctx context.Context, a Actor) (inbox *Mailbox, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in start: %v", r)
		}
	}()
	return a.Start(ctx, s.bus)
}

// Wait blocks until every supervised loop has returned.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}
