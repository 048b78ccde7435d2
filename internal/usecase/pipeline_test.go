package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"StockPulse/internal/domain/models"
	pkgbus "StockPulse/pkg/bus"
)

func csvContains(t *testing.T, dir, want string) bool {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}
		if strings.Contains(string(raw), want) {
			return true
		}
	}
	return false
}

// A fetch request travels the full supervised pipeline: downloader,
// processor, then both sinks. The same indicator record must come out
// of the CSV log and the retention buffer.
func TestPipelineFetchToSinks(t *testing.T) {
	b := newTestBus(t)
	metrics := newStubMetrics()
	log := newTestLogger(t)

	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	provider := &fakeProvider{points: []models.QuotePoint{
		{Timestamp: base.Add(time.Hour), Close: 12},
		{Timestamp: base, Close: 10},
		{Timestamp: base.Add(2 * time.Hour), Close: 9},
	}}

	dir := t.TempDir()
	buffer := NewBufferSink(50, nil, 0, metrics, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sup := pkgbus.NewSupervisor(b, log)
	for _, factory := range []func() pkgbus.Actor{
		func() pkgbus.Actor { return NewFileSink(dir, metrics, log) },
		func() pkgbus.Actor { return buffer },
		func() pkgbus.Actor { return NewProcessor(30, metrics, log) },
		func() pkgbus.Actor { return NewDownloader(provider, 2, time.Second, metrics, log) },
	} {
		if err := sup.Spawn(ctx, factory); err != nil {
			t.Fatalf("spawn: %v", err)
		}
	}

	req := models.FetchRequest{Symbol: "AAPL", From: base, To: base.Add(2 * time.Hour)}
	if err := b.Publish(models.TopicFetchRequests, req); err != nil {
		t.Fatalf("publish: %v", err)
	}

	tctx, tcancel := context.WithTimeout(ctx, 2*time.Second)
	defer tcancel()
	var got []models.PerformanceIndicators
	for len(got) == 0 {
		var err error
		got, err = buffer.Tail(tctx, 1)
		if err != nil {
			t.Fatalf("tail: %v", err)
		}
		if len(got) == 0 {
			select {
			case <-tctx.Done():
				t.Fatal("indicator never reached the buffer")
			case <-time.After(10 * time.Millisecond):
			}
		}
	}

	ind := got[0]
	if ind.Symbol != "AAPL" || ind.Price != 9 || ind.PeriodMin != 9 || ind.PeriodMax != 12 {
		t.Fatalf("indicators = %+v", ind)
	}
	if ind.PctChange != -0.1 {
		t.Fatalf("pct change = %v, want -0.1", ind.PctChange)
	}
	if !ind.Timestamp.Equal(base.Add(2 * time.Hour)) {
		t.Fatalf("timestamp = %v, want latest point", ind.Timestamp)
	}

	// rows are flushed as written, so the file catches up without Stop
	wantRow := "2024-01-02T02:00:00Z,AAPL,$9.00,-10.00%,$9.00,$12.00,$0.00"
	deadline := time.Now().Add(2 * time.Second)
	for !csvContains(t, dir, wantRow) {
		if time.Now().After(deadline) {
			t.Fatalf("csv row %q never written", wantRow)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	sup.Wait()
}
