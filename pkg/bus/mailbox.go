package bus

import (
	"errors"
	"sync"
)

var (
	// ErrMailboxClosed is returned when delivering to a closed mailbox.
	ErrMailboxClosed = errors.New("mailbox closed")
	// ErrMailboxFull is returned when a mailbox buffer cannot accept a message.
	ErrMailboxFull = errors.New("mailbox full")
)

// Mailbox is a worker's private inbound queue. Messages are delivered
// without blocking the sender and consumed by exactly one worker loop,
// which is what gives each worker sequential, race-free state access.
type Mailbox struct {
	name string
	ch   chan any
	done chan struct{}
	once sync.Once
}

// NewMailbox creates a mailbox with the given buffer size.
func NewMailbox(name string, size int) *Mailbox {
	if size <= 0 {
		size = 64
	}
	return &Mailbox{
		name: name,
		ch:   make(chan any, size),
		done: make(chan struct{}),
	}
}

// Name returns the owner's name, used in delivery failure logs.
func (m *Mailbox) Name() string { return m.name }

// C returns the receive side of the mailbox.
func (m *Mailbox) C() <-chan any { return m.ch }

// Len returns the number of queued messages.
func (m *Mailbox) Len() int { return len(m.ch) }

// Put enqueues a message without blocking. A closed mailbox rejects the
// message with ErrMailboxClosed; a full buffer rejects it with
// ErrMailboxFull. Sends from a single goroutine are received in order.
func (m *Mailbox) Put(msg any) error {
	select {
	case <-m.done:
		return ErrMailboxClosed
	default:
	}
	select {
	case m.ch <- msg:
		return nil
	case <-m.done:
		return ErrMailboxClosed
	default:
		return ErrMailboxFull
	}
}

// Close rejects all further deliveries. Messages already queued remain
// readable so a stopping worker can drain them.
func (m *Mailbox) Close() {
	m.once.Do(func() { close(m.done) })
}

// Closed reports whether the mailbox no longer accepts deliveries.
func (m *Mailbox) Closed() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}
