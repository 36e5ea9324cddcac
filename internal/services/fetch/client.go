package fetch

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"BotBourse/internal/domain/models"
	"BotBourse/internal/services/ratelimit"
	pkghttp "BotBourse/pkg/http"
	"BotBourse/pkg/logger"
	"BotBourse/pkg/util"
)

// Option configures Client.
type Option func(*Client)

// Client retrieves daily OHLCV history from the market-data provider.
// Requests are throttled through a shared token bucket so a large universe
// does not trip provider rate limits.
type Client struct {
	http       *pkghttp.Client
	limiter    *ratelimit.Limiter
	log        *logger.Logger
	baseURL    string
	period     string
	ratePerSec float64
	burst      float64
	attempts   int
}

// NewClient creates a fetch client for baseURL.
func NewClient(baseURL string, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		http:       pkghttp.NewClient(pkghttp.WithTimeout(30 * time.Second)),
		limiter:    ratelimit.New(),
		log:        log,
		baseURL:    baseURL,
		period:     "5y",
		ratePerSec: 2,
		burst:      4,
		attempts:   3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithPeriod sets the history period requested per ticker.
func WithPeriod(period string) Option {
	return func(c *Client) {
		c.period = period
	}
}

// WithRate sets the request rate and burst.
func WithRate(perSec, burst float64) Option {
	return func(c *Client) {
		c.ratePerSec = perSec
		c.burst = burst
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *pkghttp.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

type barRecord struct {
	Time   string      `json:"time"`
	Open   interface{} `json:"open"`
	High   interface{} `json:"high"`
	Low    interface{} `json:"low"`
	Close  interface{} `json:"close"`
	Volume interface{} `json:"volume"`
}

// FetchSeries retrieves the daily bar history for one ticker. Malformed
// rows are coerced or discarded; the result is sorted ascending by date.
func (c *Client) FetchSeries(ctx context.Context, ticker string) (*models.PriceSeries, error) {
	if err := c.limiter.Wait(ctx, "history", c.burst, c.ratePerSec); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ticker, err)
	}

	var records []barRecord
	err := c.http.SendAndParseWithRetry(ctx, &pkghttp.RequestOptions{
		Method: http.MethodGet,
		URL:    c.baseURL + "/v1/history",
		QueryParams: map[string][]string{
			"ticker":   {ticker},
			"period":   {c.period},
			"interval": {"1d"},
		},
	}, &records, c.attempts)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ticker, err)
	}

	series := &models.PriceSeries{Ticker: ticker, Bars: make([]models.Bar, 0, len(records))}
	discarded := 0
	for _, rec := range records {
		bar, ok := coerceBar(rec)
		if !ok {
			discarded++
			continue
		}
		series.Bars = append(series.Bars, bar)
	}
	sort.SliceStable(series.Bars, func(i, j int) bool {
		return series.Bars[i].Date.Before(series.Bars[j].Date)
	})

	c.log.Debug("fetched price history",
		logger.String("ticker", ticker),
		logger.Int("bars", len(series.Bars)),
		logger.Int("discarded", discarded),
	)
	return series, nil
}

// FetchUniverse retrieves history for every asset, skipping failures so one
// bad ticker never aborts the run. Returns series keyed by ticker and the
// tickers that failed.
func (c *Client) FetchUniverse(ctx context.Context, assets []models.AssetMeta) (map[string]*models.PriceSeries, []string) {
	out := make(map[string]*models.PriceSeries, len(assets))
	var failed []string
	for _, asset := range assets {
		series, err := c.FetchSeries(ctx, asset.Ticker)
		if err != nil {
			c.log.Warn("fetch failed, skipping asset",
				logger.String("ticker", asset.Ticker),
				logger.Error(err),
			)
			failed = append(failed, asset.Ticker)
			continue
		}
		out[asset.Ticker] = series
	}
	return out, failed
}

func coerceBar(rec barRecord) (models.Bar, bool) {
	date, ok := util.ParseDate(rec.Time)
	if !ok {
		return models.Bar{}, false
	}
	open, okO := util.ParseFloat(rec.Open)
	high, okH := util.ParseFloat(rec.High)
	low, okL := util.ParseFloat(rec.Low)
	cls, okC := util.ParseFloat(rec.Close)
	volume, okV := util.ParseFloat(rec.Volume)
	if !okO || !okH || !okL || !okC || !okV {
		return models.Bar{}, false
	}
	return models.Bar{Date: date, Open: open, High: high, Low: low, Close: cls, Volume: volume}, true
}
