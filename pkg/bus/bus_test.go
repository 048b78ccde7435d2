package bus

import (
	"testing"

	applogger "StockPulse/pkg/logger"
)

func newTestLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestPublishFanout(t *testing.T) {
	b := New(newTestLogger(t))
	defer b.Close()

	a, err := b.Subscribe("quotes", "a", 4)
	if err != nil {
		t.Fatalf("subscribe a: %v", err)
	}
	c, err := b.Subscribe("quotes", "c", 4)
	if err != nil {
		t.Fatalf("subscribe c: %v", err)
	}

	if err := b.Publish("quotes", 42); err != nil {
		t.Fatalf("publish: %v", err)
	}

	for _, mb := range []*Mailbox{a, c} {
		got := <-mb.C()
		if got != 42 {
			t.Fatalf("%s got %v, want 42", mb.Name(), got)
		}
	}
}

func TestPublishOrderPerPublisher(t *testing.T) {
	b := New(newTestLogger(t))
	defer b.Close()

	mb, err := b.Subscribe("quotes", "sub", 128)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	for i := 0; i < 100; i++ {
		if err := b.Publish("quotes", i); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	for i := 0; i < 100; i++ {
		got := <-mb.C()
		if got != i {
			t.Fatalf("got %v at position %d", got, i)
		}
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	var drops int
	b := New(newTestLogger(t), WithDropObserver(func(topic, sub string) {
		drops++
		if topic != "quotes" || sub != "slow" {
			t.Errorf("unexpected drop %s/%s", topic, sub)
		}
	}))
	defer b.Close()

	mb, err := b.Subscribe("quotes", "slow", 1)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	// second and third publishes overflow the one-slot buffer but must
	// not block or error
	for i := 0; i < 3; i++ {
		if err := b.Publish("quotes", i); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	if drops != 2 {
		t.Fatalf("drops = %d, want 2", drops)
	}
	if got := <-mb.C(); got != 0 {
		t.Fatalf("delivered %v, want 0", got)
	}
}

func TestPublishToTopicWithoutSubscribers(t *testing.T) {
	b := New(newTestLogger(t))
	defer b.Close()
	if err := b.Publish("nobody-home", "msg"); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestClosedBus(t *testing.T) {
	b := New(newTestLogger(t))
	mb, err := b.Subscribe("quotes", "sub", 4)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	b.Close()

	if err := b.Publish("quotes", 1); err != ErrBusClosed {
		t.Fatalf("publish after close: %v, want ErrBusClosed", err)
	}
	if _, err := b.Subscribe("quotes", "late", 4); err != ErrBusClosed {
		t.Fatalf("subscribe after close: %v, want ErrBusClosed", err)
	}
	if !mb.Closed() {
		t.Fatal("mailbox should be closed with the bus")
	}
}

func TestPublishPrunesClosedMailboxes(t *testing.T) {
	b := New(newTestLogger(t))
	defer b.Close()

	mb, err := b.Subscribe("quotes", "dead", 4)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	mb.Close()

	if err := b.Publish("quotes", 1); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if n := b.Subscribers("quotes"); n != 0 {
		t.Fatalf("subscribers = %d, want 0 after prune", n)
	}
}

func TestMailboxPut(t *testing.T) {
	mb := NewMailbox("m", 1)
	if err := mb.Put("x"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := mb.Put("y"); err != ErrMailboxFull {
		t.Fatalf("put full: %v, want ErrMailboxFull", err)
	}
	mb.Close()
	if err := mb.Put("z"); err != ErrMailboxClosed {
		t.Fatalf("put closed: %v, want ErrMailboxClosed", err)
	}
	// queued message survives close so the owner can drain
	if got := <-mb.C(); got != "x" {
		t.Fatalf("drained %v, want x", got)
	}
}
