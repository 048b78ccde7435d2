package signal

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPriceDifferenceEmpty(t *testing.T) {
	if _, _, ok := PriceDifference(nil); ok {
		t.Fatalf("expected not ok for empty series")
	}
}

func TestPriceDifferenceSinglePoint(t *testing.T) {
	abs, rel, ok := PriceDifference([]float64{10.0})
	if !ok {
		t.Fatalf("expected ok")
	}
	if abs != 0 || rel != 0 {
		t.Fatalf("expected zero diff, got abs=%v rel=%v", abs, rel)
	}
}

func TestPriceDifferenceZeroFirstPrice(t *testing.T) {
	series := []float64{0.0, 3.0, 5.0, 6.0, 1.0, 2.0, 1.0}
	abs, rel, ok := PriceDifference(series)
	if !ok {
		t.Fatalf("expected ok")
	}
	if !almostEqual(abs, 1.0) {
		t.Fatalf("abs = %v, want 1.0", abs)
	}
	// zero first price substitutes a unit denominator
	if !almostEqual(rel, 1.0) {
		t.Fatalf("rel = %v, want 1.0", rel)
	}
}

func TestPriceDifferenceNegative(t *testing.T) {
	abs, rel, ok := PriceDifference([]float64{10.0, 12.0, 9.0})
	if !ok {
		t.Fatalf("expected ok")
	}
	if !almostEqual(abs, -1.0) || !almostEqual(rel, -0.1) {
		t.Fatalf("got abs=%v rel=%v, want -1.0 and -0.1", abs, rel)
	}
}

func TestMinMaxPrice(t *testing.T) {
	series := []float64{4.0, 1.5, 9.25, 3.0}
	min, ok := MinPrice(series)
	if !ok || min != 1.5 {
		t.Fatalf("min = %v ok=%v, want 1.5", min, ok)
	}
	max, ok := MaxPrice(series)
	if !ok || max != 9.25 {
		t.Fatalf("max = %v ok=%v, want 9.25", max, ok)
	}
	if _, ok := MinPrice(nil); ok {
		t.Fatalf("expected not ok for empty min")
	}
	if _, ok := MaxPrice(nil); ok {
		t.Fatalf("expected not ok for empty max")
	}
}

func TestWindowedSMA(t *testing.T) {
	series := []float64{1.0, 2.0, 3.0, 4.0}
	got := WindowedSMA(series, 2)
	want := []float64{1.5, 2.5, 3.5}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Fatalf("sma[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestWindowedSMAWindowLargerThanSeries(t *testing.T) {
	if got := WindowedSMA([]float64{1.0, 2.0, 3.0}, 30); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestWindowedSMAUnitWindow(t *testing.T) {
	if got := WindowedSMA([]float64{1.0, 2.0}, 1); got != nil {
		t.Fatalf("expected nil for window 1, got %v", got)
	}
	if got := WindowedSMA([]float64{1.0, 2.0}, 0); got != nil {
		t.Fatalf("expected nil for window 0, got %v", got)
	}
}

func TestWindowedSMAExactWindow(t *testing.T) {
	got := WindowedSMA([]float64{2.0, 4.0, 6.0}, 3)
	if len(got) != 1 || !almostEqual(got[0], 4.0) {
		t.Fatalf("got %v, want [4.0]", got)
	}
}
