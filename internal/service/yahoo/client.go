package yahoo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	xhttp "StockPulse/pkg/http"
)

// Client implements QuoteProvider against the Yahoo Finance v8 chart
// API. Any API-level failure is returned as an error; the downloader
// converts it to an empty series so one symbol cannot poison the
// pipeline.
type Client struct {
	baseURL  string
	interval string
	http     *xhttp.Client
}

// New creates a Yahoo quote provider.
func New(baseURL, interval string, timeout time.Duration) drepo.QuoteProvider {
	return &Client{
		baseURL:  baseURL,
		interval: interval,
		http:     xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

// chartResponse is the subset of the v8 chart payload we consume.
// Close values are pointers because the API emits nulls for halted
// sessions.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// History fetches the close-price history of symbol between from and to.
func (c *Client) History(ctx context.Context, symbol string, from, to time.Time) ([]models.QuotePoint, error) {
	var resp chartResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, symbol),
		QueryParams: map[string][]string{
			"period1":        {strconv.FormatInt(from.Unix(), 10)},
			"period2":        {strconv.FormatInt(to.Unix(), 10)},
			"interval":       {c.interval},
			"includePrePost": {"false"},
		},
		Headers: map[string]string{
			"User-Agent": "Mozilla/5.0 (compatible; StockPulse/1.0)",
			"Accept":     "application/json",
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("chart request %s: %w", symbol, err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("chart api %s: %s - %s", symbol, resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart api %s: empty result", symbol)
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart api %s: no quote block", symbol)
	}

	closes := result.Indicators.Quote[0].Close
	points := make([]models.QuotePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		points = append(points, models.QuotePoint{
			Timestamp: time.Unix(ts, 0).UTC(),
			Close:     *closes[i],
		})
	}
	return points, nil
}
