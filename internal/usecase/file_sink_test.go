package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"StockPulse/internal/domain/models"
)

func TestFileSinkWritesRows(t *testing.T) {
	dir := t.TempDir()
	b := newTestBus(t)
	metrics := newStubMetrics()
	s := NewFileSink(dir, metrics, newTestLogger(t))

	ctx := context.Background()
	if _, err := s.Start(ctx, b); err != nil {
		t.Fatalf("start: %v", err)
	}

	ind := models.PerformanceIndicators{
		Symbol:    "AAPL",
		Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Price:     9,
		PctChange: -0.1,
		PeriodMin: 9,
		PeriodMax: 12,
		LastSMA:   10.5,
	}
	if err := s.Handle(ctx, ind); err != nil {
		t.Fatalf("handle: %v", err)
	}
	s.Stop(ctx)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("files = %d, want 1", len(entries))
	}
	if !strings.HasSuffix(entries[0].Name(), ".csv") {
		t.Fatalf("unexpected file name %s", entries[0].Name())
	}

	raw, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want header + 1 row: %q", len(lines), raw)
	}
	if lines[0] != "period start,symbol,price,change %,min,max,30d avg" {
		t.Fatalf("header = %q", lines[0])
	}
	want := "2024-01-02T00:00:00Z,AAPL,$9.00,-10.00%,$9.00,$12.00,$10.50"
	if lines[1] != want {
		t.Fatalf("row = %q, want %q", lines[1], want)
	}

	if metrics.sentCount("csv") != 1 {
		t.Fatalf("csv sent metric = %d", metrics.sentCount("csv"))
	}
}

func TestFileSinkRowsSurviveWithoutStop(t *testing.T) {
	dir := t.TempDir()
	b := newTestBus(t)
	s := NewFileSink(dir, newStubMetrics(), newTestLogger(t))

	ctx := context.Background()
	if _, err := s.Start(ctx, b); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Handle(ctx, models.PerformanceIndicators{
		Symbol:    "MSFT",
		Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Price:     420,
	}); err != nil {
		t.Fatalf("handle: %v", err)
	}

	// rows are flushed per message, not on Stop
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(raw), "MSFT,$420.00") {
		t.Fatalf("row not flushed: %q", raw)
	}
	s.Stop(ctx)
}

func TestFileSinkBadDirFailsStart(t *testing.T) {
	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked")
	if err := os.WriteFile(blocked, []byte("not a dir"), 0o644); err != nil {
		t.Fatalf("prep: %v", err)
	}

	b := newTestBus(t)
	s := NewFileSink(filepath.Join(blocked, "out"), newStubMetrics(), newTestLogger(t))
	if _, err := s.Start(context.Background(), b); err == nil {
		t.Fatal("expected start error for unusable sink dir")
	}
}
