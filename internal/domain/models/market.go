package models

import "time"

// Bus topics for the pipeline hops. Producers and consumers agree on
// these at wiring time; the payload type per topic is fixed.
const (
	TopicFetchRequests = "quotes.requests"
	TopicQuoteSeries   = "quotes.series"
	TopicIndicators    = "indicators"
)

// FetchRequest asks a downloader to pull the quote history of one
// symbol for one period. Emitted once per symbol per scheduler tick.
type FetchRequest struct {
	Symbol string
	From   time.Time
	To     time.Time
}

// QuotePoint is a single close observation.
type QuotePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Close     float64   `json:"close"`
}

// QuoteSeries is the raw provider result for one symbol. Points may be
// empty (provider failure or no data, never an error value) and are not
// guaranteed to be sorted.
type QuoteSeries struct {
	Symbol string
	Points []QuotePoint
}

// PerformanceIndicators summarizes one quote series. Timestamp and
// Price come from the latest point; PctChange is a fraction (-0.1 for
// -10%); LastSMA is 0 when no full window was available.
type PerformanceIndicators struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	PctChange float64   `json:"pct_change"`
	PeriodMin float64   `json:"period_min"`
	PeriodMax float64   `json:"period_max"`
	LastSMA   float64   `json:"last_sma"`
}
