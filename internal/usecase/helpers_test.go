package usecase

import (
	"sync"
	"testing"

	pkgbus "StockPulse/pkg/bus"
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

func newTestBus(t *testing.T) *pkgbus.Bus {
	t.Helper()
	b := pkgbus.New(newTestLogger(t))
	t.Cleanup(b.Close)
	return b
}

// stubMetrics counts recorder calls without a registry.
type stubMetrics struct {
	mu          sync.Mutex
	sent        map[string]int
	errors      map[string]int
	lastPrice   map[string]float64
	bufferDepth int
}

func newStubMetrics() *stubMetrics {
	return &stubMetrics{
		sent:      make(map[string]int),
		errors:    make(map[string]int),
		lastPrice: make(map[string]float64),
	}
}

func (m *stubMetrics) RecordMessageSent(backend, symbol string) {
	m.mu.Lock()
	m.sent[backend]++
	m.mu.Unlock()
}

func (m *stubMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *stubMetrics) RecordLastPrice(symbol string, price float64) {
	m.mu.Lock()
	m.lastPrice[symbol] = price
	m.mu.Unlock()
}

func (m *stubMetrics) RecordLatency(op string, seconds float64) {}

func (m *stubMetrics) RecordBufferDepth(n int) {
	m.mu.Lock()
	m.bufferDepth = n
	m.mu.Unlock()
}

func (m *stubMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func (m *stubMetrics) sentCount(backend string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[backend]
}

func (m *stubMetrics) depth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bufferDepth
}
