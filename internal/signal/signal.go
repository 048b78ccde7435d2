// Package signal holds the pure statistic functions computed over a
// close-price series. The set is fixed and known at compile time, so
// plain functions are used instead of an interface.
package signal

// PriceDifference returns the absolute and relative change between the
// first and last value of the series, relative to the first. A zero
// first price substitutes a unit denominator so the ratio stays
// defined. ok is false for an empty series.
func PriceDifference(series []float64) (abs, rel float64, ok bool) {
	if len(series) == 0 {
		return 0, 0, false
	}
	first, last := series[0], series[len(series)-1]
	abs = last - first
	if first == 0 {
		first = 1
	}
	return abs, abs / first, true
}

// MinPrice returns the minimum of the series. ok is false when empty.
func MinPrice(series []float64) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	min := series[0]
	for _, v := range series[1:] {
		if v < min {
			min = v
		}
	}
	return min, true
}

// MaxPrice returns the maximum of the series. ok is false when empty.
func MaxPrice(series []float64) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	max := series[0]
	for _, v := range series[1:] {
		if v > max {
			max = v
		}
	}
	return max, true
}

// WindowedSMA computes the simple moving average over every contiguous
// window of the given size, yielding len(series)-window+1 values. A
// window of 1 or less, or a series shorter than the window, yields nil
// rather than an error.
func WindowedSMA(series []float64, window int) []float64 {
	if window <= 1 || len(series) < window {
		return nil
	}
	out := make([]float64, 0, len(series)-window+1)
	var sum float64
	for i, v := range series {
		sum += v
		if i >= window {
			sum -= series[i-window]
		}
		if i >= window-1 {
			out = append(out, sum/float64(window))
		}
	}
	return out
}
