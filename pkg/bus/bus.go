package bus

import (
	"errors"
	"sync"

	applogger "StockPulse/pkg/logger"
)

// ErrBusClosed is returned by Publish and Subscribe after Close.
var ErrBusClosed = errors.New("bus closed")

// DropObserver is invoked when a message cannot be delivered to one
// subscriber. Used to feed the metrics recorder without coupling the
// bus to it.
type DropObserver func(topic, subscriber string)

// Bus is a topic-based publish/subscribe registry connecting pipeline
// stages. Publish is fire-and-forget: a slow or dead subscriber never
// backpressures or fails the publisher; its message is dropped and
// logged. Delivery to a single mailbox preserves the publish order of
// any one publishing goroutine.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]*Mailbox
	closed bool

	log    *applogger.Logger
	onDrop DropObserver
}

// Option configures a Bus.
type Option func(*Bus)

// WithDropObserver registers a delivery failure hook.
func WithDropObserver(fn DropObserver) Option {
	return func(b *Bus) { b.onDrop = fn }
}

// New creates an empty Bus.
func New(log *applogger.Logger, opts ...Option) *Bus {
	b := &Bus{
		subs: make(map[string][]*Mailbox),
		log:  log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a fresh mailbox for the topic and returns it.
// Messages published before registration are not delivered; consumers
// must subscribe during their own startup, before the first producer
// tick.
func (b *Bus) Subscribe(topic, name string, size int) (*Mailbox, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	mb := NewMailbox(name, size)
	b.subs[topic] = append(b.subs[topic], mb)
	return mb, nil
}

// Unsubscribe removes the mailbox from the topic and closes it.
func (b *Bus) Unsubscribe(topic string, mb *Mailbox) {
	b.mu.Lock()
	list := b.subs[topic]
	for i, cur := range list {
		if cur == mb {
			b.subs[topic] = append(list[:i], list[i+1:]...)
			break
		}
	}
	b.mu.Unlock()
	mb.Close()
}

// Publish delivers msg to every mailbox currently registered for the
// topic and returns immediately. Per-subscriber failures are logged and
// dropped. The only error condition is a closed bus, which publishers
// treat as fatal to their own loop.
func (b *Bus) Publish(topic string, msg any) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	list := b.subs[topic]
	b.mu.RUnlock()

	var dead []*Mailbox
	for _, mb := range list {
		if err := mb.Put(msg); err != nil {
			if b.log != nil {
				b.log.Warn("bus delivery dropped",
					applogger.String("topic", topic),
					applogger.String("subscriber", mb.Name()),
					applogger.Error(err),
				)
			}
			if b.onDrop != nil {
				b.onDrop(topic, mb.Name())
			}
			if err == ErrMailboxClosed {
				dead = append(dead, mb)
			}
		}
	}
	// prune mailboxes of dead incarnations; their replacements
	// re-subscribe with fresh mailboxes on restart
	for _, mb := range dead {
		b.Unsubscribe(topic, mb)
	}
	return nil
}

// Subscribers returns the number of mailboxes registered for a topic.
func (b *Bus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Close rejects further publishes and closes every registered mailbox.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, list := range b.subs {
		for _, mb := range list {
			mb.Close()
		}
	}
	b.subs = make(map[string][]*Mailbox)
}
