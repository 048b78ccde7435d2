package bus

import (
	"context"
)

// Actor is a long-lived worker with a private mailbox. The runtime
// drives it through Started -> Running -> Stopping: Start registers
// subscriptions and acquires resources, Handle processes one message at
// a time, Stop flushes and releases resources on every exit path.
//
// A non-nil error from Start or Handle crashes the actor; the
// supervisor then builds a fresh instance and starts over.
type Actor interface {
	Name() string
	Start(ctx context.Context, b *Bus) (*Mailbox, error)
	Handle(ctx context.Context, msg any) error
	Stop(ctx context.Context)
}

// Run drives one actor incarnation until the context is cancelled, the
// inbox is closed, or the actor fails. Stop always runs, including when
// Handle returns an error.
func Run(ctx context.Context, b *Bus, a Actor) error {
	inbox, err := a.Start(ctx, b)
	if err != nil {
		return err
	}
	defer func() {
		inbox.Close()
		a.Stop(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-inbox.C():
			if err := a.Handle(ctx, msg); err != nil {
				return err
			}
			if inbox.Closed() && inbox.Len() == 0 {
				return nil
			}
		}
	}
}
